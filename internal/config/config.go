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
	Convert  ConvertConfig
	Server   ServerConfig
	Upload   UploadConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ConvertConfig holds NEM12 to SQL conversion settings.
type ConvertConfig struct {
	// Input is the NEM12 file to read (default: data/input_nem12.csv)
	Input string `env:"CONVERT_INPUT" envAlt:"NEM12_INPUT" default:"data/input_nem12.csv"`

	// Output is the SQL script to write (default: data/output.sql)
	Output string `env:"CONVERT_OUTPUT" default:"data/output.sql"`

	// BatchSize is the number of pending readings that triggers a flush (default: 10)
	BatchSize int `env:"CONVERT_BATCH_SIZE" default:"10"`

	// ChunkSize is the maximum number of rows in a single INSERT statement (default: 10)
	ChunkSize int `env:"CONVERT_CHUNK_SIZE" default:"10"`

	// MaxFileSizeMB is the advisory input size above which a warning is logged (default: 500)
	MaxFileSizeMB int `env:"CONVERT_MAX_FILE_SIZE_MB" default:"500"`

	// Table is the destination table name (default: meter_readings)
	Table string `env:"CONVERT_TABLE" default:"meter_readings"`

	// QuoteMode controls string literal rendering: legacy or escaped (default: legacy)
	QuoteMode string `env:"CONVERT_QUOTE_MODE" default:"legacy"`

	// InvalidDatePolicy decides what happens to readings with an invalid block date:
	// drop or emit (default: drop)
	InvalidDatePolicy string `env:"CONVERT_INVALID_DATE_POLICY" default:"drop"`

	// InputEncoding is the character set of the input file (default: utf-8)
	InputEncoding string `env:"CONVERT_INPUT_ENCODING" default:"utf-8"`

	// ProgressInterval is how many lines pass between progress log entries (default: 100000)
	ProgressInterval int `env:"CONVERT_PROGRESS_INTERVAL" default:"100000"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for streamed SQL)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds each request and each conversion run (default: 5m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"5m"`
}

// UploadConfig holds settings for files converted through the HTTP API.
type UploadConfig struct {
	// MaxFileSize is the maximum accepted request body in bytes (default: 512MiB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"536870912"`

	// MaxConcurrent is the maximum number of parallel conversions (default: 4)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a conversion slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// RunRetention is how long finished run summaries stay queryable (default: 15m)
	RunRetention time.Duration `env:"UPLOAD_RUN_RETENTION" default:"15m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey rejects API requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + strconv.Itoa(c.Port)
	}
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// MaxFileSizeBytes returns the advisory input size threshold in bytes.
func (c *ConvertConfig) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}
