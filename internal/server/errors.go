package server

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// PanicError 包装被错误边界捕获的 panic，并保留当时的调用栈。
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// StackTrace 返回 panic 发生时的调用栈。
func (e *PanicError) StackTrace() []byte {
	return e.Stack
}

// stackTracer 由携带调用栈的错误实现（PanicError、hook 错误）。
type stackTracer interface {
	StackTrace() []byte
}

// errorBoundary 把下游 handler 的 panic 转成 PanicError，交给 ErrorHandler 统一输出，
// 保证单个请求的失败不会影响后续请求。
func errorBoundary() fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				if r == http.ErrAbortHandler {
					panic(r)
				}
				err = &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
		return c.Next()
	}
}

// ErrorHandler 输出 JSON 错误：fiber.Error 保留状态码，其余错误返回 500 并附带诊断详情与调用栈。
func ErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		payload := fiber.Map{
			"error":  "internal_error",
			"detail": err.Error(),
		}
		var st stackTracer
		if errors.As(err, &st) {
			payload["stack"] = string(st.StackTrace())
		}

		if logger != nil {
			logger.WithFields(logrus.Fields{
				"action":     "error_boundary",
				"method":     c.Method(),
				"path":       c.Path(),
				"request_id": RequestID(c),
			}).WithError(err).Error("request_failed")
		}

		return c.Status(fiber.StatusInternalServerError).JSON(payload)
	}
}

// statusFromError 推断错误最终会渲染出的状态码，供访问日志使用。
func statusFromError(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
