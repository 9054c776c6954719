// Package nocache 去掉上游的缓存校验头，保证浏览器每次都回到本地前端。
package nocache

import (
	"net/http"

	"github.com/dproxy/dproxy/internal/proxy/hooks"
)

var strippedHeaders = []string{"ETag", "Last-Modified", "Expires", "Pragma"}

func init() {
	hooks.MustRegister("nocache", hooks.Hooks{
		Description: "disable browser caching of upstream responses",
		OnResponse:  onResponse,
	})
}

func onResponse(_ *hooks.Exchange, _ *http.Request, resp *http.Response) error {
	if resp.Header == nil {
		resp.Header = http.Header{}
	}
	for _, key := range strippedHeaders {
		resp.Header.Del(key)
	}
	resp.Header.Set("Cache-Control", "no-store")
	return nil
}
