package server

import (
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/valyala/fasthttp"
)

func TestRequestURIIgnoresAbsoluteFormTarget(t *testing.T) {
	app := fiber.New()
	defer app.Shutdown()

	cases := map[string]string{
		"http://127.0.0.1/api/data.json":    "/api/data.json",
		"/api/data.json?x=1&y=%20z":         "/api/data.json?x=1&y=%20z",
		"http://localhost:3333/a%2Fb?q=1":   "/a%2Fb?q=1",
		"https://upstream.example/?only=qs": "/?only=qs",
	}
	for target, want := range cases {
		ctx := app.AcquireCtx(new(fasthttp.RequestCtx))
		ctx.Request().SetRequestURI(target)
		got := RequestURI(ctx)
		app.ReleaseCtx(ctx)
		if got != want {
			t.Fatalf("RequestURI(%q) = %q, want %q", target, got, want)
		}
	}
}
