package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/seo-optimizer/tagcheck/api"
	"github.com/seo-optimizer/tagcheck/config"
	"github.com/seo-optimizer/tagcheck/logging"
	"github.com/seo-optimizer/tagcheck/report"
)

const defaultConcurrency = 4

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	var (
		format      string
		concurrency int
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "analyze URL...",
		Short: "Analyze one or more pages and print a report",
		Example: `  tagcheck analyze https://example.com/
  tagcheck analyze --format json https://example.com/ https://example.org/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			if concurrency < 1 {
				return fmt.Errorf("--concurrency must be at least 1")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("timeout") {
				if timeout <= 0 {
					return config.ErrInvalidTimeout
				}
				cfg.Fetch.Timeout = config.DurationFrom(timeout)
			}

			log := logging.New(cfg.Logging)
			if cfg.Logging.File == "" {
				log.SetOutput(cmd.ErrOrStderr())
			}

			entries := analyzeAll(cmd.Context(), newAnalyzer(cfg, log), args, concurrency)

			w, err := report.New(f, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := w.Write(entries); err != nil {
				return err
			}

			failed := 0
			for _, e := range entries {
				if e.Err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d analyses failed", failed, len(entries))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(report.FormatMarkdown), "output format: markdown or json")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "n", defaultConcurrency, "number of pages analyzed at once")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "per-page fetch timeout (overrides config)")

	return cmd
}

// analyzeAll runs every analysis independently, at most limit at a time, and
// returns the entries in input order.
func analyzeAll(ctx context.Context, a api.Analyzer, urls []string, limit int) []report.Entry {
	entries := make([]report.Entry, len(urls))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			res, err := a.Analyze(ctx, u)
			entries[i] = report.Entry{URL: u, Result: res, Err: err}
			// Failures land in the entry; the group never cancels.
			return nil
		})
	}
	_ = g.Wait()

	return entries
}
