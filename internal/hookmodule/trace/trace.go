// Package trace 让请求 ID 贯穿到上游，并在响应中标出实际访问的上游地址。
package trace

import (
	"net/http"

	"github.com/dproxy/dproxy/internal/proxy/hooks"
)

// UpstreamHeader 写入客户端响应，值为上游 origin。
const UpstreamHeader = "X-Dproxy-Upstream"

func init() {
	hooks.MustRegister("trace", hooks.Hooks{
		Description: "forward X-Request-ID upstream and report the upstream origin",
		OnRequest:   onRequest,
	})
}

func onRequest(ex *hooks.Exchange, outbound *http.Request) error {
	if ex.RequestID != "" {
		outbound.Header.Set("X-Request-ID", ex.RequestID)
	}
	if ex.ResponseHeader != nil && ex.UpstreamURL != "" {
		ex.ResponseHeader.Set(UpstreamHeader, ex.UpstreamURL)
	}
	return nil
}
