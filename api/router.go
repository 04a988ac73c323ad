package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/filmgrab/api/handler"
	"github.com/use-agent/filmgrab/api/middleware"
	"github.com/use-agent/filmgrab/config"
	"github.com/use-agent/filmgrab/scraper"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → RequestID
//	Scrape:  CORS (if enabled) → Auth (if keys set) → RateLimit (if enabled)
//
// Health sits outside auth so monitoring probes always work. ctx bounds the
// lifetime of background middleware work.
func NewRouter(ctx context.Context, sc *scraper.Scraper, engines []string, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())

	r.GET("/api/v1/health", handler.Health(engines, startTime))

	scrape := r.Group("/api")
	if cfg.Server.CORSEnabled {
		scrape.Use(middleware.CORS())
	}
	scrape.Use(middleware.Auth(cfg.Auth.APIKeys))
	if cfg.RateLimit.Enabled {
		scrape.Use(middleware.RateLimit(ctx, cfg.RateLimit))
	}

	// Every method is routed here so the handler can answer 405 itself.
	scrape.Any("/scrape", handler.Scrape(sc, cfg.Server.Diagnostics))

	return r
}
