package hooks

import "net/http"

// Exchange exposes request details to hook handlers without importing server internals.
type Exchange struct {
	RequestID    string
	Method       string
	Path         string
	UpstreamHost string
	// UpstreamURL is the upstream origin, e.g. https://example.com:443.
	UpstreamURL string
	// LocalOrigin is the origin clients use to reach this server.
	LocalOrigin string
	// ResponseHeader is the in-flight client response header set. Values written
	// by OnRequest are applied to the response returned to the client.
	ResponseHeader http.Header
}

// OnRequestFunc receives the outbound upstream request; header changes are sent upstream.
type OnRequestFunc = func(ex *Exchange, outbound *http.Request) error

// OnResponseFunc receives the original client request and the upstream response
// about to be returned; status, header and body changes reach the client.
type OnResponseFunc = func(ex *Exchange, inbound *http.Request, resp *http.Response) error

// Hooks describes the two independently optional capabilities of a handler.
type Hooks struct {
	Description string
	OnRequest   OnRequestFunc
	OnResponse  OnResponseFunc
}

// Empty reports whether neither capability is present.
func (h Hooks) Empty() bool {
	return h.OnRequest == nil && h.OnResponse == nil
}
