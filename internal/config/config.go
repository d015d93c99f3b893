// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Query    QueryConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Options  OptionsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on; PORT is honoured for compatibility (default: 5000)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"5000"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds non-upload requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig holds CSV upload settings. Size fields accept human
// readable values such as "500MiB" or "64KiB".
type UploadConfig struct {
	// MaxFileSize rejects larger uploads before parsing (default: 500MiB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"500MiB" size:"true"`

	// ChunkSize is the read size of the streaming parser (default: 64KiB)
	ChunkSize int64 `env:"UPLOAD_CHUNK_SIZE" default:"64KiB" size:"true"`

	// MaxRowSize aborts a parse when one row grows past it (default: 16MiB)
	MaxRowSize int64 `env:"UPLOAD_MAX_ROW_SIZE" default:"16MiB" size:"true"`

	// TempDir receives uploaded files while they are parsed (default: OS temp dir)
	TempDir string `env:"UPLOAD_TEMP_DIR"`

	MaxConcurrent int           `env:"UPLOAD_MAX_CONCURRENT" default:"2"`
	MaxWaitTime   time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a single upload request (default: 10m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"10m"`
}

// QueryConfig holds query defaults.
type QueryConfig struct {
	DefaultPageSize int `env:"QUERY_DEFAULT_PAGE_SIZE" default:"10"`

	// MaxPageSize caps pageSize; 0 disables the cap (default: 1000)
	MaxPageSize int `env:"QUERY_MAX_PAGE_SIZE" default:"1000"`
}

// RateLimitConfig holds per-IP rate limits.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// UploadLimit is requests per minute for upload endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// AllowedOrigins lists CORS origins of the table UI
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`

	// RequireAPIKey guards the upload endpoints with X-API-Key (default: false)
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// OptionsConfig holds filter option settings.
type OptionsConfig struct {
	// VocabularyFile optionally overrides the built-in filter vocabulary (YAML)
	VocabularyFile string `env:"FILTER_VOCABULARY_FILE"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
