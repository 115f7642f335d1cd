package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/majorjayant/siteconfig/internal/app"
	iauth "github.com/majorjayant/siteconfig/internal/auth"
	"github.com/majorjayant/siteconfig/internal/handlers"
	"github.com/majorjayant/siteconfig/internal/middleware"
	"github.com/majorjayant/siteconfig/internal/monitoring"
	"github.com/majorjayant/siteconfig/internal/siteconfig"
)

// Dependencies are the long-lived services the router mounts.
type Dependencies struct {
	Service   *siteconfig.Service
	JWT       *iauth.JWTService
	Health    *monitoring.HealthManager
	RateStore middleware.RateStore

	// MountRoot also serves the endpoint at "/", for API Gateway stages
	// that forward the bare stage path.
	MountRoot bool
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(cfg *app.Config, deps Dependencies) (*gin.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.Service == nil {
		return nil, fmt.Errorf("site configuration service must be provided")
	}

	r := gin.New()
	r.HandleMethodNotAllowed = false

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())

	registerHealthRoutes(r, cfg, deps.Health)
	registerMetricsRoutes(r, cfg)
	registerConfigRoutes(r, cfg, deps)

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

func registerConfigRoutes(r *gin.Engine, cfg *app.Config, deps Dependencies) {
	chain := []gin.HandlerFunc{middleware.Auth(deps.JWT)}
	if limit := cfg.Server.RateLimit; limit.Enabled {
		chain = append(chain, middleware.RateLimit(deps.RateStore, limit.Requests, limit.Window))
	}

	handler := handlers.NewSiteConfigHandler(deps.Service, cfg.Auth.RequireTokenForWrites)
	chain = append(chain, handler.Handle)

	endpoint := cfg.Server.Endpoint
	if endpoint == "" {
		endpoint = "/api/config"
	}
	r.Any(endpoint, chain...)
	if trimmed := strings.TrimSuffix(endpoint, "/"); trimmed != endpoint && trimmed != "" {
		r.Any(trimmed, chain...)
	}

	if deps.MountRoot && endpoint != "/" {
		r.Any("/", chain...)
	}
}
