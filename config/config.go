package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppName names the XDG directories.
const AppName = "tagcheck"

// Environment variables read by Load.
const (
	EnvPort           = "PORT"
	EnvGinMode        = "GIN_MODE"
	EnvDevMode        = "DEV_MODE"
	EnvDataDir        = "DATA_DIR"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
	EnvLogFile        = "LOG_FILE"
	EnvFetchTimeout   = "FETCH_TIMEOUT"
	EnvFetchMaxBytes  = "FETCH_MAX_BYTES"
	EnvFetchUserAgent = "FETCH_USER_AGENT"
	EnvRateLimitRPS   = "RATE_LIMIT_RPS"
	EnvRateLimitBurst = "RATE_LIMIT_BURST"
	EnvCORSOrigins    = "CORS_ORIGINS"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Fetch     FetchConfig     `yaml:"fetch"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Stats     StatsConfig     `yaml:"stats"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	Mode            string   `yaml:"mode"`
	CORSOrigins     []string `yaml:"cors_origins"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// FetchConfig bounds the page fetch.
type FetchConfig struct {
	Timeout      Duration `yaml:"timeout"`
	MaxBodyBytes int64    `yaml:"max_body_bytes"`
	UserAgent    string   `yaml:"user_agent"`
}

// RateLimitConfig is a per-client token bucket. Zero RequestsPerSecond disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	Burst             int      `yaml:"burst"`
	IdleTTL           Duration `yaml:"idle_ttl"`
}

// LoggingConfig selects logrus level and formatter.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File switches output from stdout to a rotated log file.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// StatsConfig controls the service statistics.
type StatsConfig struct {
	// DataDir holds the statistics snapshot. Empty keeps statistics in memory only.
	DataDir string `yaml:"data_dir"`
	// DevMode exposes the per-kind failure breakdown on /api/statistics.
	DevMode bool `yaml:"dev_mode"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8082,
			Mode:            "release",
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: DurationFrom(10 * time.Second),
		},
		Fetch: FetchConfig{
			Timeout:      DurationFrom(10 * time.Second),
			MaxBodyBytes: 5 * 1024 * 1024,
			UserAgent:    "Mozilla/5.0 (compatible; SEO-Analyzer/1.0)",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			Burst:             5,
			IdleTTL:           DurationFrom(10 * time.Minute),
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// DefaultConfigPath is the config file looked up when none is given.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// DefaultDataDir is where statistics are stored when persistence is enabled
// without an explicit directory.
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// LoadEnvFiles loads .env.development, falling back to .env. Missing files are
// not an error; variables already set in the environment win.
func LoadEnvFiles() {
	if err := godotenv.Load(".env.development"); err != nil {
		_ = godotenv.Load()
	}
}

// Load builds the configuration from defaults, the YAML file at path and the
// environment, in that order. An empty path tries DefaultConfigPath and skips
// it silently when absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if err := cfg.loadFile(path); err != nil {
		if !errors.Is(err, ErrConfigNotFound) || explicit {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup(EnvGinMode); ok && v != "" {
		c.Server.Mode = v
	}
	if v, ok := lookup(EnvCORSOrigins); ok && v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v, ok := lookup(EnvDevMode); ok {
		c.Stats.DevMode = v == "true"
	}
	if v, ok := lookup(EnvDataDir); ok {
		c.Stats.DataDir = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		c.Logging.Format = v
	}
	if v, ok := lookup(EnvLogFile); ok {
		c.Logging.File = v
	}
	if v, ok := lookup(EnvFetchTimeout); ok && v != "" {
		if err := c.Fetch.Timeout.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: %w", EnvFetchTimeout, err)
		}
	}
	if v, ok := lookup(EnvFetchMaxBytes); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvFetchMaxBytes, err)
		}
		c.Fetch.MaxBodyBytes = n
	}
	if v, ok := lookup(EnvFetchUserAgent); ok && v != "" {
		c.Fetch.UserAgent = v
	}
	if v, ok := lookup(EnvRateLimitRPS); ok && v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRateLimitRPS, err)
		}
		c.RateLimit.RequestsPerSecond = rps
	}
	if v, ok := lookup(EnvRateLimitBurst); ok && v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRateLimitBurst, err)
		}
		c.RateLimit.Burst = burst
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return ErrInvalidPort
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return ErrInvalidGinMode
	}
	if c.Fetch.Timeout.Duration <= 0 {
		return ErrInvalidTimeout
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return ErrInvalidMaxBodyBytes
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return ErrInvalidRateLimit
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return ErrInvalidLogLevel
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return ErrInvalidLogFormat
	}
	return nil
}
