package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dproxy/dproxy/internal/config"
	"github.com/dproxy/dproxy/internal/logging"
)

// Handler resolves a single request. The resolver chain implements it; tests
// inject fakes.
type Handler interface {
	Handle(fiber.Ctx) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(fiber.Ctx) error

// Handle makes HandlerFunc satisfy Handler.
func (f HandlerFunc) Handle(c fiber.Ctx) error {
	return f(c)
}

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger  *logrus.Logger
	Config  *config.Config
	Handler Handler
}

// NewApp builds a Fiber application with request-context, access log,
// optional compression and the error boundary in front of the handler.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Handler == nil {
		return nil, errors.New("handler is required")
	}
	if opts.Config.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.Config.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		ErrorHandler:  ErrorHandler(opts.Logger),
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware())
	app.Use(accessLogMiddleware(opts.Logger, opts.Config.LogMask))
	if opts.Config.Compress {
		app.Use(compress.New())
	}
	app.Use(errorBoundary())

	diagnostics := opts.Config.Diagnostics
	app.All("/*", func(c fiber.Ctx) error {
		if diagnostics && isDiagnosticsPath(c.Path()) {
			return c.Next()
		}
		return opts.Handler.Handle(c)
	})

	return app, nil
}

// requestContextMiddleware 为每个请求生成独立的 RequestContext 与请求 ID。
func requestContextMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequest, &RequestContext{RequestID: reqID})
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// accessLogMiddleware 在响应完成后按日志掩码输出命中阶段。
func accessLogMiddleware(logger *logrus.Logger, mask config.LogMask) fiber.Handler {
	return func(c fiber.Ctx) error {
		started := time.Now()
		err := c.Next()

		rc := RequestContextFrom(c)
		if rc == nil || rc.Stage == "" || !mask.Has(rc.Stage.LogMask()) {
			return err
		}

		status := c.Response().StatusCode()
		if err != nil {
			status = statusFromError(err)
		}
		fields := logging.RequestFields(c.Method(), string(rc.Stage), RequestURI(c), status)
		fields["request_id"] = rc.RequestID
		fields["elapsed_ms"] = time.Since(started).Milliseconds()
		if rc.Message != "" {
			fields["message"] = rc.Message
		}
		logger.WithFields(fields).Info(strings.ToUpper(string(rc.Stage)))
		return err
	}
}

func isDiagnosticsPath(path string) bool {
	return strings.HasPrefix(path, "/-/")
}
