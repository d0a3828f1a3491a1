package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/seo-optimizer/tagcheck/analyzer"
	"github.com/seo-optimizer/tagcheck/config"
)

// NewRootCmd creates the tagcheck command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tagcheck",
		Short: "Inspect the SEO meta tags of a web page",
		Long: `tagcheck fetches a single page and scores its title, description,
Open Graph, Twitter Card and technical tags.

Run "tagcheck serve" for the HTTP API or "tagcheck analyze" for one-off reports.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "config file (default $XDG_CONFIG_HOME/tagcheck/config.yaml)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads .env files and the config named by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	config.LoadEnvFiles()
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func newAnalyzer(cfg *config.Config, log logrus.FieldLogger) *analyzer.Analyzer {
	fetcher := analyzer.NewHTTPFetcher(analyzer.FetchOptions{
		UserAgent:    cfg.Fetch.UserAgent,
		Timeout:      cfg.Fetch.Timeout.Duration,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
	})
	return analyzer.New(
		analyzer.WithFetcher(fetcher),
		analyzer.WithLogger(log),
	)
}
