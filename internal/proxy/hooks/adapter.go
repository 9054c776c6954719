package hooks

import (
	"fmt"
	"net/http"
	"runtime/debug"
)

// StampHeader/StampValue 标记经过本服务转发的流量，请求与响应两个方向都会写入。
const (
	StampHeader = "X-Proxied-By"
	StampValue  = "dproxy"
)

// Error 包装 hook 返回的错误，并保留调用栈，交由错误边界输出。
type Error struct {
	Capability string
	Err        error
	Stack      []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s hook failed: %v", e.Capability, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StackTrace 返回 hook 出错时的调用栈。
func (e *Error) StackTrace() []byte {
	return e.Stack
}

// Descriptor 描述当前加载的 handler 及其能力，供诊断接口输出。
type Descriptor struct {
	Name       string `json:"name"`
	OnRequest  bool   `json:"on_request"`
	OnResponse bool   `json:"on_response"`
}

// Adapter 在每次上游转发前后调用 handler，并无条件写入标识头。
// 它不捕获 hook 的错误或 panic，二者都会交给错误边界处理。
type Adapter struct {
	name  string
	hooks Hooks
}

// NewAdapter 基于已校验的 Hooks 创建 Adapter；hooks 可以为空。
func NewAdapter(name string, hooks Hooks) *Adapter {
	return &Adapter{name: name, hooks: hooks}
}

// Describe 返回 handler 名称与能力。
func (a *Adapter) Describe() Descriptor {
	if a == nil {
		return Descriptor{}
	}
	return Descriptor{
		Name:       a.name,
		OnRequest:  a.hooks.OnRequest != nil,
		OnResponse: a.hooks.OnResponse != nil,
	}
}

// BeforeDispatch 写入标识头后调用 OnRequest，hook 可以修改出站请求头。
func (a *Adapter) BeforeDispatch(ex *Exchange, outbound *http.Request) error {
	outbound.Header.Set(StampHeader, StampValue)
	if a == nil || a.hooks.OnRequest == nil {
		return nil
	}
	if err := a.hooks.OnRequest(ex, outbound); err != nil {
		return &Error{Capability: "onRequest", Err: err, Stack: debug.Stack()}
	}
	return nil
}

// AfterDispatch 调用 OnResponse 后写入标识头；hook 可以修改状态码、响应头与响应体。
func (a *Adapter) AfterDispatch(ex *Exchange, inbound *http.Request, resp *http.Response) error {
	if a != nil && a.hooks.OnResponse != nil {
		if err := a.hooks.OnResponse(ex, inbound, resp); err != nil {
			return &Error{Capability: "onResponse", Err: err, Stack: debug.Stack()}
		}
	}
	if resp.Header == nil {
		resp.Header = http.Header{}
	}
	resp.Header.Set(StampHeader, StampValue)
	return nil
}
