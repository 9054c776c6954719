package nocache

import (
	"net/http"
	"testing"

	"github.com/dproxy/dproxy/internal/proxy/hooks"
)

func TestNocacheRegistered(t *testing.T) {
	h, ok := hooks.Fetch("NoCache")
	if !ok || h.OnResponse == nil {
		t.Fatalf("nocache should register OnResponse")
	}
}

func TestOnResponseStripsValidators(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("ETag", `"abc"`)
	resp.Header.Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
	resp.Header.Set("Cache-Control", "max-age=3600")
	resp.Header.Set("Content-Type", "text/css")

	if err := onResponse(&hooks.Exchange{}, nil, resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Header.Get("ETag") != "" || resp.Header.Get("Last-Modified") != "" {
		t.Fatalf("validators should be removed: %v", resp.Header)
	}
	if resp.Header.Get("Cache-Control") != "no-store" {
		t.Fatalf("expected no-store, got %q", resp.Header.Get("Cache-Control"))
	}
	if resp.Header.Get("Content-Type") != "text/css" {
		t.Fatalf("unrelated headers must stay")
	}
}
