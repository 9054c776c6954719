package resolver

import (
	"github.com/gofiber/fiber/v3"

	"github.com/dproxy/dproxy/internal/server"
)

type remoteStage struct {
	dispatcher Dispatcher
}

// NewRemoteStage 是无条件的兜底阶段。
func NewRemoteStage(dispatcher Dispatcher) Stage {
	return &remoteStage{dispatcher: dispatcher}
}

func (s *remoteStage) Name() server.Stage { return server.StageRemote }

func (s *remoteStage) Resolve(c fiber.Ctx) (Result, error) {
	server.Annotate(c, server.StageRemote, "")
	return Handled, s.dispatcher.Dispatch(c)
}
