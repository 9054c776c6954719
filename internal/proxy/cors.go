package proxy

import "net/http"

// applyCORS 回显请求的 Origin 作为允许来源，覆盖上游返回的同名头。
func applyCORS(header http.Header, origin string) {
	if origin == "" {
		return
	}
	header.Set("Access-Control-Allow-Origin", origin)
	header.Set("Access-Control-Allow-Credentials", "true")
}
