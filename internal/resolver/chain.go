package resolver

import (
	"github.com/gofiber/fiber/v3"

	"github.com/dproxy/dproxy/internal/config"
	"github.com/dproxy/dproxy/internal/server"
)

// Result 表示阶段是否终止了解析。
type Result int

const (
	// Continue 交给下一个阶段。
	Continue Result = iota
	// Handled 表示该阶段已经写出（或正在写出）响应。
	Handled
)

// Stage 是解析链中的一个策略。
type Stage interface {
	Name() server.Stage
	Resolve(c fiber.Ctx) (Result, error)
}

// Dispatcher forwards a request to the upstream. *proxy.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(c fiber.Ctx) error
}

// Chain 按固定顺序执行阶段，实现 server.Handler。
type Chain struct {
	stages []Stage
}

// New 以给定顺序组装解析链。
func New(stages ...Stage) *Chain {
	return &Chain{stages: append([]Stage(nil), stages...)}
}

// NewChain 按 Bypass → Map → Local → Remote 组装默认解析链。
func NewChain(cfg *config.Config, dispatcher Dispatcher) *Chain {
	return New(
		NewBypassStage(cfg.Bypass, dispatcher),
		NewMapStage(cfg.StaticRoot, cfg.MappingList()),
		NewLocalStage(cfg.StaticRoot),
		NewRemoteStage(dispatcher),
	)
}

// Handle 依次执行阶段，直到某个阶段终止或返回错误；终止阶段即使出错也计入指标。全部放行时返回 404。
func (ch *Chain) Handle(c fiber.Ctx) error {
	for _, stage := range ch.stages {
		result, err := stage.Resolve(c)
		if result == Handled {
			server.MetricRequestsResolved.WithLabelValues(string(stage.Name())).Inc()
			return err
		}
		if err != nil {
			return err
		}
	}
	return fiber.NewError(fiber.StatusNotFound, "not_found")
}

// Names returns stage labels in execution order.
func (ch *Chain) Names() []server.Stage {
	names := make([]server.Stage, len(ch.stages))
	for i, stage := range ch.stages {
		names[i] = stage.Name()
	}
	return names
}
