package proxy

import (
	"fmt"
	"net/http"
	"regexp"
)

// secureAttr 匹配 Set-Cookie 中独立的 Secure 属性（区分大小写），不会误伤以 Secure 开头的 cookie 名。
var secureAttr = regexp.MustCompile(`(\sSecure(?:;|$))|(^Secure(?:;|$))`)

// DomainPattern 匹配指向上游主机的绝对地址，构建一次后只读共享。
type DomainPattern struct {
	re *regexp.Regexp
}

// NewDomainPattern 根据上游主机名编译匹配规则，主机名中的正则元字符会被转义。
func NewDomainPattern(host string) *DomainPattern {
	expr := fmt.Sprintf(`^(https?)://%s(?::(\d+))?/(.*)$`, regexp.QuoteMeta(host))
	return &DomainPattern{re: regexp.MustCompile(expr)}
}

// Rewrite 将匹配上游主机的地址改写到 origin，返回是否发生改写。
func (p *DomainPattern) Rewrite(value, origin string) (string, bool) {
	if p == nil || p.re == nil {
		return value, false
	}
	m := p.re.FindStringSubmatch(value)
	if m == nil {
		return value, false
	}
	return origin + "/" + m[3], true
}

// Match 判断 value 是否为指向上游主机的绝对地址。
func (p *DomainPattern) Match(value string) bool {
	return p != nil && p.re != nil && p.re.MatchString(value)
}

func (p *DomainPattern) String() string {
	if p == nil || p.re == nil {
		return ""
	}
	return p.re.String()
}

// StripSecure 去掉 cookie 的 Secure 属性，其余属性与顺序保持不变。
func StripSecure(cookie string) string {
	return secureAttr.ReplaceAllString(cookie, "")
}

// ResponseRewriter 在响应交给 hook 之前改写 Set-Cookie 与 Location。
type ResponseRewriter struct {
	pattern *DomainPattern
	origin  string
}

// NewResponseRewriter 以上游主机与本地 origin 构建改写器。
func NewResponseRewriter(upstreamHost, localOrigin string) *ResponseRewriter {
	return &ResponseRewriter{
		pattern: NewDomainPattern(upstreamHost),
		origin:  localOrigin,
	}
}

// Pattern exposes the compiled domain pattern.
func (r *ResponseRewriter) Pattern() *DomainPattern {
	return r.pattern
}

// Rewrite 原地修改响应头。
func (r *ResponseRewriter) Rewrite(header http.Header) {
	if header == nil {
		return
	}
	if cookies := header.Values("Set-Cookie"); len(cookies) > 0 {
		rewritten := make([]string, len(cookies))
		for i, cookie := range cookies {
			rewritten[i] = StripSecure(cookie)
		}
		header["Set-Cookie"] = rewritten
	}
	if location := header.Get("Location"); location != "" {
		if next, ok := r.pattern.Rewrite(location, r.origin); ok {
			header.Set("Location", next)
		}
	}
}
