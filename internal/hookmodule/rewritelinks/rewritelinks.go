// Package rewritelinks 将 HTML 中指向上游主机的绝对链接改写为本地地址，
// 使页面内跳转继续经过本地前端。
package rewritelinks

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"strconv"
	"sync"

	"golang.org/x/net/html"

	"github.com/dproxy/dproxy/internal/proxy"
	"github.com/dproxy/dproxy/internal/proxy/hooks"
)

var rewrittenAttrs = map[string]struct{}{
	"href":   {},
	"src":    {},
	"action": {},
}

// patterns 按上游主机缓存已编译的匹配规则。
var patterns sync.Map

func init() {
	hooks.MustRegister("rewrite-links", hooks.Hooks{
		Description: "rewrite absolute upstream links in HTML bodies to the local origin",
		OnResponse:  onResponse,
	})
}

func onResponse(ex *hooks.Exchange, _ *http.Request, resp *http.Response) error {
	if resp == nil || resp.Body == nil || ex.UpstreamHost == "" || ex.LocalOrigin == "" {
		return nil
	}
	if !isHTML(resp.Header.Get("Content-Type")) || resp.Header.Get("Content-Encoding") != "" {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return err
	}

	rewritten, err := rewriteHTML(body, patternFor(ex.UpstreamHost), ex.LocalOrigin)
	if err != nil {
		resp.Body = io.NopCloser(bytes.NewReader(body))
		return nil
	}

	resp.Body = io.NopCloser(bytes.NewReader(rewritten))
	resp.ContentLength = int64(len(rewritten))
	resp.Header.Set("Content-Length", strconv.Itoa(len(rewritten)))
	return nil
}

func rewriteHTML(body []byte, pattern *proxy.DomainPattern, origin string) ([]byte, error) {
	node, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	rewriteNode(node, pattern, origin)
	var buf bytes.Buffer
	if err := html.Render(&buf, node); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rewriteNode(n *html.Node, pattern *proxy.DomainPattern, origin string) {
	if n.Type == html.ElementNode {
		for i, attr := range n.Attr {
			if _, ok := rewrittenAttrs[attr.Key]; !ok {
				continue
			}
			if next, ok := pattern.Rewrite(attr.Val, origin); ok {
				n.Attr[i].Val = next
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		rewriteNode(child, pattern, origin)
	}
}

func patternFor(host string) *proxy.DomainPattern {
	if cached, ok := patterns.Load(host); ok {
		return cached.(*proxy.DomainPattern)
	}
	actual, _ := patterns.LoadOrStore(host, proxy.NewDomainPattern(host))
	return actual.(*proxy.DomainPattern)
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "text/html"
}
