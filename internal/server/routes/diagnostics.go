package routes

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dproxy/dproxy/internal/config"
	"github.com/dproxy/dproxy/internal/proxy/hooks"
	"github.com/dproxy/dproxy/internal/version"
)

// RegisterDiagnosticsRoutes 暴露 /-/status、/-/hooks 与 /-/metrics，仅在 --diagnostics 开启时挂载。
func RegisterDiagnosticsRoutes(app *fiber.App, cfg *config.Config, handler hooks.Descriptor) {
	if app == nil || cfg == nil {
		return
	}

	app.Get("/-/status", func(c fiber.Ctx) error {
		return c.JSON(encodeStatus(cfg, handler))
	})

	app.Get("/-/hooks", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"active":   handler,
			"registry": encodeHooks(hooks.Names()),
		})
	})

	app.Get("/-/hooks/:name", func(c fiber.Ctx) error {
		name := strings.ToLower(strings.TrimSpace(c.Params("name")))
		h, ok := hooks.Fetch(name)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "hook_not_found"})
		}
		return c.JSON(encodeHook(name, h))
	})

	app.Get("/-/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

type statusPayload struct {
	Version     string           `json:"version"`
	Upstream    string           `json:"upstream"`
	StaticRoot  string           `json:"static_root"`
	ListenPort  int              `json:"listen_port"`
	Bypass      string           `json:"bypass,omitempty"`
	Mappings    []mappingPayload `json:"mappings"`
	LogMask     uint8            `json:"log_mask"`
	CORS        bool             `json:"cors"`
	Compress    bool             `json:"compress"`
	TimeoutSecs float64          `json:"timeout_seconds"`
	Handler     hooks.Descriptor `json:"handler"`
}

type mappingPayload struct {
	Remote string `json:"remote"`
	Local  string `json:"local"`
}

type hookPayload struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	OnRequest   bool   `json:"on_request"`
	OnResponse  bool   `json:"on_response"`
	Status      string `json:"status"`
}

func encodeStatus(cfg *config.Config, handler hooks.Descriptor) statusPayload {
	entries := cfg.MappingList()
	mappings := make([]mappingPayload, 0, len(entries))
	for _, entry := range entries {
		mappings = append(mappings, mappingPayload{Remote: entry.Remote, Local: entry.Local})
	}
	return statusPayload{
		Version:     version.Full(),
		Upstream:    cfg.Upstream.URL().String(),
		StaticRoot:  cfg.StaticRoot,
		ListenPort:  cfg.ListenPort,
		Bypass:      cfg.BypassSource(),
		Mappings:    mappings,
		LogMask:     uint8(cfg.LogMask),
		CORS:        cfg.CORS,
		Compress:    cfg.Compress,
		TimeoutSecs: cfg.UpstreamTimeout.Seconds(),
		Handler:     handler,
	}
}

// encodeHooks 按名称顺序输出注册表，names 已由 hooks.Names 排序。
func encodeHooks(names []string) []hookPayload {
	if len(names) == 0 {
		return nil
	}
	status := hooks.Snapshot(names)
	result := make([]hookPayload, 0, len(names))
	for _, name := range names {
		h, _ := hooks.Fetch(name)
		item := encodeHook(name, h)
		item.Status = status[name]
		result = append(result, item)
	}
	return result
}

func encodeHook(name string, h hooks.Hooks) hookPayload {
	return hookPayload{
		Name:        name,
		Description: h.Description,
		OnRequest:   h.OnRequest != nil,
		OnResponse:  h.OnResponse != nil,
		Status:      hooks.Status(name),
	}
}
