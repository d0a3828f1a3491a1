package config

import "errors"

// Validation errors returned by Config.Validate.
var (
	ErrInvalidPort         = errors.New("invalid port: must be between 1 and 65535")
	ErrInvalidTimeout      = errors.New("invalid fetch timeout: must be positive")
	ErrInvalidMaxBodyBytes = errors.New("invalid max body size: must be positive")
	ErrInvalidRateLimit    = errors.New("invalid rate limit: requests per second and burst must be non-negative")
	ErrInvalidLogLevel     = errors.New("invalid log level: use debug, info, warn or error")
	ErrInvalidLogFormat    = errors.New("invalid log format: use text or json")
	ErrInvalidGinMode      = errors.New("invalid gin mode: use debug, release or test")
)

// ErrConfigNotFound is returned when an explicitly requested config file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")
