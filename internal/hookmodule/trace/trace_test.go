package trace

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dproxy/dproxy/internal/proxy/hooks"
)

func TestTraceRegistered(t *testing.T) {
	h, ok := hooks.Fetch("trace")
	if !ok || h.OnRequest == nil || h.OnResponse != nil {
		t.Fatalf("trace should register OnRequest only, got %+v", h)
	}
}

func TestOnRequestPropagatesRequestID(t *testing.T) {
	ex := &hooks.Exchange{
		RequestID:      "req-1",
		UpstreamURL:    "https://example.com:443",
		ResponseHeader: http.Header{},
	}
	outbound := httptest.NewRequest(http.MethodGet, "https://example.com/a", nil)
	if err := onRequest(ex, outbound); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outbound.Header.Get("X-Request-ID") != "req-1" {
		t.Fatalf("expected request id upstream")
	}
	if ex.ResponseHeader.Get(UpstreamHeader) != "https://example.com:443" {
		t.Fatalf("expected upstream header, got %v", ex.ResponseHeader)
	}
}
