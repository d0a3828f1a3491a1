package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/seo-optimizer/tagcheck/api"
	"github.com/seo-optimizer/tagcheck/config"
	"github.com/seo-optimizer/tagcheck/logging"
	"github.com/seo-optimizer/tagcheck/middleware"
	"github.com/seo-optimizer/tagcheck/stats"
)

// Statistics older than this many months are dropped at startup.
const retainStatsMonths = 2

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var (
		port    int
		persist bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			if persist && cfg.Stats.DataDir == "" {
				cfg.Stats.DataDir = config.DefaultDataDir()
			}
			return serve(cmd, cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides PORT)")
	cmd.Flags().BoolVar(&persist, "persist-stats", false, "persist statistics under the XDG data directory when no data_dir is configured")

	return cmd
}

func serve(cmd *cobra.Command, cfg *config.Config) error {
	log := logging.New(cfg.Logging)
	gin.SetMode(cfg.Server.Mode)

	store, err := stats.NewStorage(cfg.Stats.DataDir, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("failed to save statistics")
		}
	}()
	store.Cleanup(retainStatsMonths)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL.Duration)
	}

	router := api.NewRouter(api.Options{
		Analyzer:    newAnalyzer(cfg, log),
		Stats:       store,
		Logger:      log,
		RateLimiter: limiter,
		CORSOrigins: cfg.Server.CORSOrigins,
		DevMode:     cfg.Stats.DevMode,
	})

	log.WithFields(logrus.Fields{
		"port":          cfg.Server.Port,
		"mode":          cfg.Server.Mode,
		"fetch_timeout": cfg.Fetch.Timeout.String(),
		"rate_limit":    cfg.RateLimit.RequestsPerSecond,
		"stats_dir":     cfg.Stats.DataDir,
	}).Info("starting tagcheck")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return api.Serve(ctx, fmt.Sprintf(":%d", cfg.Server.Port), router, cfg.Server.ShutdownTimeout.Duration, log)
}
