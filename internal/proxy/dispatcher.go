package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/dproxy/dproxy/internal/config"
	"github.com/dproxy/dproxy/internal/logging"
	"github.com/dproxy/dproxy/internal/proxy/hooks"
	"github.com/dproxy/dproxy/internal/server"
)

// Dispatcher 将请求转发到唯一的上游，并把改写后的响应流式写回客户端。
// 构建完成后只读，可被所有请求并发使用。
type Dispatcher struct {
	client   *http.Client
	logger   *logrus.Logger
	adapter  *hooks.Adapter
	rewriter *ResponseRewriter
	upstream config.Upstream
	origin   string
	cors     bool
}

// NewDispatcher constructs a dispatcher with the shared HTTP client and hook adapter.
func NewDispatcher(cfg *config.Config, client *http.Client, logger *logrus.Logger, adapter *hooks.Adapter) *Dispatcher {
	if adapter == nil {
		adapter = hooks.NewAdapter("", hooks.Hooks{})
	}
	return &Dispatcher{
		client:   client,
		logger:   logger,
		adapter:  adapter,
		rewriter: NewResponseRewriter(cfg.Upstream.Host, cfg.LocalOrigin()),
		upstream: cfg.Upstream,
		origin:   cfg.LocalOrigin(),
		cors:     cfg.CORS,
	}
}

// Dispatch 执行一次上游往返：构建出站请求 → OnRequest → 发送 → 改写 → OnResponse → CORS → 回写。
// hook 返回的错误原样向上传递，由错误边界处理。
func (d *Dispatcher) Dispatch(c fiber.Ctx) error {
	started := time.Now()
	requestID := server.RequestID(c)

	ex := &hooks.Exchange{
		RequestID:      requestID,
		Method:         c.Method(),
		Path:           c.Path(),
		UpstreamHost:   d.upstream.Host,
		UpstreamURL:    d.upstream.URL().String(),
		LocalOrigin:    d.origin,
		ResponseHeader: http.Header{},
	}

	outbound, err := d.buildUpstreamRequest(c)
	if err != nil {
		d.logResult(c, requestID, 0, started, err)
		return d.writeError(c, fiber.StatusBadGateway, "upstream_failed")
	}
	if err := d.adapter.BeforeDispatch(ex, outbound); err != nil {
		return err
	}

	resp, err := d.client.Do(outbound)
	server.MetricUpstreamDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		server.MetricUpstreamErrors.Inc()
		d.logResult(c, requestID, 0, started, err)
		return d.writeError(c, fiber.StatusBadGateway, "upstream_failed")
	}
	defer func() {
		if resp.Body != nil {
			resp.Body.Close()
		}
	}()

	d.rewriter.Rewrite(resp.Header)

	inbound, err := inboundRequest(c)
	if err != nil {
		return err
	}
	if err := d.adapter.AfterDispatch(ex, inbound, resp); err != nil {
		return err
	}

	if d.cors {
		applyCORS(resp.Header, c.Get(fiber.HeaderOrigin))
	}

	copyResponseHeaders(c, resp.Header)
	for key, values := range ex.ResponseHeader {
		for i, value := range values {
			if i == 0 {
				c.Set(key, value)
				continue
			}
			c.Response().Header.Add(key, value)
		}
	}
	c.Status(resp.StatusCode)

	if c.Method() == http.MethodHead || resp.Body == nil {
		d.logResult(c, requestID, resp.StatusCode, started, nil)
		return nil
	}

	_, err = io.Copy(c.Response().BodyWriter(), resp.Body)
	d.logResult(c, requestID, resp.StatusCode, started, err)
	if err != nil {
		server.MetricUpstreamErrors.Inc()
		c.Response().ResetBody()
		return fiber.NewError(fiber.StatusBadGateway, "upstream_failed")
	}
	return nil
}

func (d *Dispatcher) buildUpstreamRequest(c fiber.Ctx) (*http.Request, error) {
	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	target := d.upstream.URL().String() + server.RequestURI(c)
	req, err := http.NewRequestWithContext(ctx, c.Method(), target, bodyReader(c.Request().Body()))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}

	server.CopyHeaders(req.Header, fiberHeadersAsHTTP(c))
	req.Header.Del("Accept-Encoding")
	req.Header.Del("Host")
	req.Host = d.upstream.Host
	req.Header.Set("X-Forwarded-Host", c.Hostname())
	if ip := c.IP(); ip != "" {
		if prior := req.Header.Get("X-Forwarded-For"); prior != "" {
			req.Header.Set("X-Forwarded-For", prior+", "+ip)
		} else {
			req.Header.Set("X-Forwarded-For", ip)
		}
	}
	req.Header.Set("X-Forwarded-Proto", "http")
	return req, nil
}

func (d *Dispatcher) writeError(c fiber.Ctx, status int, code string) error {
	c.Set(hooks.StampHeader, hooks.StampValue)
	return c.Status(status).JSON(fiber.Map{"error": code})
}

func (d *Dispatcher) logResult(c fiber.Ctx, requestID string, status int, started time.Time, err error) {
	if d.logger == nil {
		return
	}
	fields := logging.BaseFields("proxy", d.upstream.URL().String())
	fields["method"] = c.Method()
	fields["path"] = server.RequestURI(c)
	fields["upstream_status"] = status
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	if requestID != "" {
		fields["request_id"] = requestID
	}
	if err != nil {
		fields["error"] = err.Error()
		d.logger.WithFields(fields).Error("proxy_failed")
		return
	}
	d.logger.WithFields(fields).Debug("proxy_complete")
}

// inboundRequest 把 fasthttp 请求转换为 *http.Request，供 OnResponse 读取原始请求。
func inboundRequest(c fiber.Ctx) (*http.Request, error) {
	req := new(http.Request)
	if err := fasthttpadaptor.ConvertRequest(c.RequestCtx(), req, true); err != nil {
		return nil, fmt.Errorf("convert inbound request: %w", err)
	}
	if ctx := c.Context(); ctx != nil {
		return req.WithContext(ctx), nil
	}
	return req, nil
}

func bodyReader(b []byte) io.Reader {
	if len(b) == 0 {
		return http.NoBody
	}
	return bytes.NewReader(append([]byte(nil), b...))
}

func fiberHeadersAsHTTP(c fiber.Ctx) http.Header {
	header := http.Header{}
	c.Request().Header.VisitAll(func(key, value []byte) {
		header.Add(string(key), string(value))
	})
	return header
}

func copyResponseHeaders(c fiber.Ctx, headers http.Header) {
	for key, values := range headers {
		if server.IsHopByHopHeader(key) {
			continue
		}
		for _, value := range values {
			c.Response().Header.Add(key, value)
		}
	}
}
