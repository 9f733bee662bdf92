package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/vigil-ops/vigil-backend-go/internal/api/handlers"
	"github.com/vigil-ops/vigil-backend-go/internal/api/middleware"
	"github.com/vigil-ops/vigil-backend-go/internal/config"
	"github.com/vigil-ops/vigil-backend-go/internal/core/alerting"
	"github.com/vigil-ops/vigil-backend-go/internal/core/providers"
	"github.com/vigil-ops/vigil-backend-go/internal/websocket"
)

// NewRouter creates and configures the main HTTP router
func NewRouter(cfg *config.Config, engine *alerting.Engine, platform *providers.PlatformProvider, hub *websocket.Hub, logger *logrus.Logger) *gin.Engine {
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	router.Use(middleware.ErrorHandlingMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.CORSMiddleware())

	h := handlers.NewHandlers(engine, platform, hub, logger)

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(engine.Metrics.Handler()))
	router.GET("/ws", websocket.HandleWebSocketGin(hub))

	api := router.Group("/api/v1")
	{
		alerts := api.Group("/alerts")
		{
			alerts.GET("", h.GetActiveAlerts)
			alerts.POST("", h.CreateAlert)
			alerts.GET("/stats", h.GetAlertStats)
			alerts.GET("/:id", h.GetAlert)
			alerts.POST("/:id/acknowledge", h.AcknowledgeAlert)
			alerts.POST("/:id/resolve", h.ResolveAlert)
			alerts.POST("/:id/suppress", h.SuppressAlert)
		}

		rules := api.Group("/rules")
		{
			rules.GET("", h.GetRules)
			rules.POST("/:id/enable", h.EnableRule)
			rules.POST("/:id/disable", h.DisableRule)
		}

		monitoring := api.Group("/monitoring")
		{
			monitoring.POST("/start", h.StartMonitoring)
			monitoring.POST("/stop", h.StopMonitoring)
			monitoring.POST("/metrics", h.IngestMetrics)
		}
	}

	return router
}
