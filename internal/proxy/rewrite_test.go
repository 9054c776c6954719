package proxy

import (
	"net/http"
	"testing"
)

func TestStripSecure(t *testing.T) {
	cases := map[string]string{
		"id=1; Secure; Path=/":          "id=1; Path=/",
		"Secure; id=1":                  " id=1",
		"id=1; Path=/; HttpOnly":        "id=1; Path=/; HttpOnly",
		"id=1; Path=/; Secure":          "id=1; Path=/;",
		"id=1; secure; Path=/":          "id=1; secure; Path=/",
		"SecureToken=abc; Secure":       "SecureToken=abc;",
		"id=1; HttpOnly; Secure; Path=/": "id=1; HttpOnly; Path=/",
	}
	for in, want := range cases {
		if got := StripSecure(in); got != want {
			t.Fatalf("StripSecure(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDomainPatternRewrite(t *testing.T) {
	pattern := NewDomainPattern("upstream.example")
	origin := "http://localhost:3333"

	cases := []struct {
		in      string
		want    string
		changed bool
	}{
		{"https://upstream.example:8443/a/b?x=1", "http://localhost:3333/a/b?x=1", true},
		{"http://upstream.example/", "http://localhost:3333/", true},
		{"https://upstream.example/login", "http://localhost:3333/login", true},
		{"https://other.example/a", "https://other.example/a", false},
		{"https://upstream.example.evil.com/a", "https://upstream.example.evil.com/a", false},
		{"/relative/path", "/relative/path", false},
		{"https://upstream.example", "https://upstream.example", false},
	}
	for _, tc := range cases {
		got, changed := pattern.Rewrite(tc.in, origin)
		if got != tc.want || changed != tc.changed {
			t.Fatalf("Rewrite(%q) = %q/%v, want %q/%v", tc.in, got, changed, tc.want, tc.changed)
		}
	}
}

func TestDomainPatternEscapesHost(t *testing.T) {
	pattern := NewDomainPattern("api.example.com")
	if pattern.Match("https://apixexample.com/a") {
		t.Fatalf("dots in host must be matched literally")
	}
	if !pattern.Match("https://api.example.com/a") {
		t.Fatalf("expected literal host to match")
	}
}

func TestResponseRewriterHeaders(t *testing.T) {
	rw := NewResponseRewriter("upstream.example", "http://localhost:4000")
	header := http.Header{}
	header.Add("Set-Cookie", "a=1; Secure; Path=/")
	header.Add("Set-Cookie", "b=2; HttpOnly")
	header.Add("Set-Cookie", "c=3; Path=/; Secure")
	header.Set("Location", "https://upstream.example/next?step=2")
	header.Set("X-Other", "https://upstream.example/untouched")

	rw.Rewrite(header)

	cookies := header.Values("Set-Cookie")
	want := []string{"a=1; Path=/", "b=2; HttpOnly", "c=3; Path=/;"}
	if len(cookies) != len(want) {
		t.Fatalf("expected %d cookies, got %v", len(want), cookies)
	}
	for i := range want {
		if cookies[i] != want[i] {
			t.Fatalf("cookie %d = %q, want %q", i, cookies[i], want[i])
		}
	}
	if loc := header.Get("Location"); loc != "http://localhost:4000/next?step=2" {
		t.Fatalf("unexpected location: %s", loc)
	}
	if other := header.Get("X-Other"); other != "https://upstream.example/untouched" {
		t.Fatalf("unrelated headers must not change, got %s", other)
	}
}
