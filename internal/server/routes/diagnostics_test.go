package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/dproxy/dproxy/internal/config"
	"github.com/dproxy/dproxy/internal/proxy/hooks"
	"github.com/dproxy/dproxy/internal/server"
)

func TestStatusExposesConfiguration(t *testing.T) {
	cfg := testConfig()
	app := fiber.New()
	RegisterDiagnosticsRoutes(app, cfg, hooks.Descriptor{Name: "trace", OnRequest: true})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "http://localhost/-/status", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	var payload statusPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if payload.Upstream != "https://example.com:443" || payload.ListenPort != 4000 {
		t.Fatalf("unexpected status payload: %+v", payload)
	}
	if len(payload.Mappings) != 1 || payload.Mappings[0].Remote != "static/*.txt" {
		t.Fatalf("unexpected mappings: %+v", payload.Mappings)
	}
	if payload.Bypass != "^/api/" || payload.Handler.Name != "trace" || !payload.Handler.OnRequest {
		t.Fatalf("unexpected bypass/handler: %+v", payload)
	}
}

func TestHooksListsRegistry(t *testing.T) {
	name := "diagnostics-routes-test"
	_ = hooks.Register(name, hooks.Hooks{
		Description: "test hook",
		OnResponse:  func(*hooks.Exchange, *http.Request, *http.Response) error { return nil },
	})

	app := fiber.New()
	RegisterDiagnosticsRoutes(app, testConfig(), hooks.Descriptor{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "http://localhost/-/hooks", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	var payload struct {
		Registry []hookPayload `json:"registry"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode hooks: %v", err)
	}
	found := false
	for _, item := range payload.Registry {
		if item.Name == name {
			found = item.OnResponse && !item.OnRequest && item.Status == "registered" && item.Description == "test hook"
		}
	}
	if !found {
		t.Fatalf("expected %s in registry payload: %+v", name, payload.Registry)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "http://localhost/-/hooks/"+name, nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("expected hook detail, got %v / %v", resp, err)
	}
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "http://localhost/-/hooks/unknown-hook", nil))
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown hook, got %v / %v", resp, err)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server.InitMetrics()
	server.MetricRequestsResolved.WithLabelValues(string(server.StageLocal)).Inc()

	app := fiber.New()
	RegisterDiagnosticsRoutes(app, testConfig(), hooks.Descriptor{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "http://localhost/-/metrics", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `dproxy_requests_resolved_total{stage="local"}`) {
		t.Fatalf("expected resolver counter in metrics output")
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Upstream:        config.Upstream{Scheme: "https", Host: "example.com", Port: 443},
		StaticRoot:      "/srv/www",
		Mappings:        []config.MappingEntry{{Remote: "static/*.txt", Local: "readme.txt"}},
		Bypass:          regexp.MustCompile(`^/api/`),
		LogMask:         config.DefaultLogMask,
		ListenPort:      4000,
		UpstreamTimeout: 30 * time.Second,
	}
}
