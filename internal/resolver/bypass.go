package resolver

import (
	"regexp"

	"github.com/gofiber/fiber/v3"

	"github.com/dproxy/dproxy/internal/server"
)

type bypassStage struct {
	pattern    *regexp.Regexp
	dispatcher Dispatcher
}

// NewBypassStage 在请求的 path + query（保持原始编码）匹配 pattern 时直接转发上游。
// pattern 为 nil 时该阶段始终放行。
func NewBypassStage(pattern *regexp.Regexp, dispatcher Dispatcher) Stage {
	return &bypassStage{pattern: pattern, dispatcher: dispatcher}
}

func (s *bypassStage) Name() server.Stage { return server.StageBypass }

func (s *bypassStage) Resolve(c fiber.Ctx) (Result, error) {
	if s.pattern == nil || !s.pattern.MatchString(server.RequestURI(c)) {
		return Continue, nil
	}
	server.Annotate(c, server.StageBypass, "")
	return Handled, s.dispatcher.Dispatch(c)
}
