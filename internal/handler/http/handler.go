package http

import (
	"github.com/loreleaf/loreleaf/internal/logger"
	"github.com/loreleaf/loreleaf/internal/netmon"
	"github.com/loreleaf/loreleaf/internal/service"
)

type Handler struct {
	engine  service.Engine
	monitor netmon.Monitor
	version string

	logger *logger.Logger
}

func NewHandler(engine service.Engine, monitor netmon.Monitor, version string, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		engine:  engine,
		monitor: monitor,
		version: version,
		logger:  logger,
	}
}
