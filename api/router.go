// Package api exposes the analyzer over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/tagcheck/analyzer"
	"github.com/seo-optimizer/tagcheck/logging"
	"github.com/seo-optimizer/tagcheck/middleware"
	"github.com/seo-optimizer/tagcheck/stats"
)

// Analyzer runs one analysis. *analyzer.Analyzer satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, rawURL string) (*analyzer.Result, error)
}

// Options wires the router's collaborators. Analyzer is required.
type Options struct {
	Analyzer    Analyzer
	Stats       *stats.Storage
	Logger      logrus.FieldLogger
	RateLimiter *middleware.RateLimiter
	CORSOrigins []string
	// DevMode adds the failure breakdown and popular hosts to /api/statistics.
	DevMode bool
}

type handler struct {
	analyzer Analyzer
	stats    *stats.Storage
	logger   logrus.FieldLogger
	devMode  bool
}

// NewRouter builds the gin engine with middlewares and /api routes.
func NewRouter(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Stats == nil {
		opts.Stats, _ = stats.NewStorage("", opts.Logger)
	}

	h := &handler{
		analyzer: opts.Analyzer,
		stats:    opts.Stats,
		logger:   opts.Logger,
		devMode:  opts.DevMode,
	}

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(middleware.ErrorHandler(opts.Logger))
	r.Use(middleware.CORS(opts.CORSOrigins))
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.StatsMiddleware(opts.Stats))
	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.RateLimit())
	}

	api := r.Group("/api")
	{
		api.GET("/health", h.health)
		api.POST("/analyze", h.analyze)
		api.GET("/statistics", h.statistics)
	}

	return r
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func (h *handler) statistics(c *gin.Context) {
	c.JSON(http.StatusOK, h.stats.Snapshot(h.devMode))
}
