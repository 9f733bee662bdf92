package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/vigil-ops/vigil-backend-go/internal/core/alerting"
	"github.com/vigil-ops/vigil-backend-go/internal/core/providers"
	"github.com/vigil-ops/vigil-backend-go/internal/websocket"
)

// Handlers aggregates the API handlers' dependencies
type Handlers struct {
	engine   *alerting.Engine
	platform *providers.PlatformProvider
	hub      *websocket.Hub
	logger   *logrus.Logger
}

// NewHandlers creates the handler set
func NewHandlers(engine *alerting.Engine, platform *providers.PlatformProvider, hub *websocket.Hub, logger *logrus.Logger) *Handlers {
	return &Handlers{
		engine:   engine,
		platform: platform,
		hub:      hub,
		logger:   logger,
	}
}
