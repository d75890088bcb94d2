package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/aniscrape/api/handler"
	"github.com/use-agent/aniscrape/api/middleware"
	"github.com/use-agent/aniscrape/cache"
	"github.com/use-agent/aniscrape/config"
	"github.com/use-agent/aniscrape/crawl"
	"github.com/use-agent/aniscrape/models"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work. ctx bounds
// the background eviction of the rate limiter and response caches. browser
// may be nil.
func NewRouter(ctx context.Context, cfg *config.Config, runner *crawl.Runner, browser handler.BrowserStatus, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(cfg.Crawl.Variant, browser, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))

	homepageCache := cache.New[*models.HomepageData](ctx, 1, cfg.Cache.TTL)
	catalogCache := cache.New[models.CatalogPageResponse](ctx, cfg.Cache.MaxEntries, cfg.Cache.TTL)

	protected.GET("/homepage", handler.Homepage(runner, homepageCache))
	protected.GET("/catalog/:letter", handler.CatalogPage(runner.Walker(), catalogCache))
	protected.GET("/stream", handler.Stream(runner.Resolver(), cfg.Site.Origin))

	return r
}
