package api

import (
	"github.com/gin-gonic/gin"

	"github.com/majorjayant/siteconfig/internal/app"
	"github.com/majorjayant/siteconfig/internal/handlers"
	"github.com/majorjayant/siteconfig/internal/monitoring"
)

func registerHealthRoutes(r *gin.Engine, cfg *app.Config, manager *monitoring.HealthManager) {
	if !cfg.Monitoring.Health.Enabled {
		manager = nil
	}

	handler := handlers.NewHealthHandler(manager)
	r.GET("/health", handler.Health)
	r.GET("/health/live", handler.Live)
	r.GET("/health/ready", handler.Ready)
}
