package server

import (
	"github.com/gofiber/fiber/v3"

	"github.com/dproxy/dproxy/internal/config"
)

// Stage 标识处理请求的解析阶段，仅用于日志与指标。
type Stage string

const (
	StageBypass Stage = "bypass"
	StageMap    Stage = "map"
	StageLocal  Stage = "local"
	StageRemote Stage = "remote"
)

// LogMask 返回该阶段对应的日志开关位。
func (s Stage) LogMask() config.LogMask {
	switch s {
	case StageBypass:
		return config.LogBypass
	case StageMap:
		return config.LogMap
	case StageLocal:
		return config.LogLocal
	case StageRemote:
		return config.LogRemote
	default:
		return 0
	}
}

// RequestContext 是单个请求私有的注解槽位，随请求创建、随响应结束丢弃。
type RequestContext struct {
	RequestID string
	Stage     Stage
	Message   string
}

const contextKeyRequest = "_dproxy_request_context"

// Annotate 记录命中的阶段与可选说明，不影响解析结果。
func Annotate(c fiber.Ctx, stage Stage, message string) {
	rc := RequestContextFrom(c)
	if rc == nil {
		rc = &RequestContext{}
		c.Locals(contextKeyRequest, rc)
	}
	rc.Stage = stage
	rc.Message = message
}

// RequestContextFrom 读取当前请求的注解，未初始化时返回 nil。
func RequestContextFrom(c fiber.Ctx) *RequestContext {
	if value := c.Locals(contextKeyRequest); value != nil {
		if rc, ok := value.(*RequestContext); ok {
			return rc
		}
	}
	return nil
}

// RequestURI 返回请求的 path+query，保持客户端发送时的编码；
// 客户端以绝对 URL 作为请求目标时同样只返回 path+query。
func RequestURI(c fiber.Ctx) string {
	uri := c.Request().URI()
	target := string(uri.PathOriginal())
	if target == "" || target[0] != '/' {
		target = "/" + target
	}
	if qs := uri.QueryString(); len(qs) > 0 {
		target += "?" + string(qs)
	}
	return target
}

// RequestID returns the request identifier stored by the request-context middleware.
func RequestID(c fiber.Ctx) string {
	if rc := RequestContextFrom(c); rc != nil {
		return rc.RequestID
	}
	return ""
}
