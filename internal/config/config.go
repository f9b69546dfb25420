// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"

	"github.com/JonMunkholm/jsonkv/internal/core"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Display  DisplayConfig
	Lookup   LookupConfig
	Panels   PanelsConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`

	// MaxBodySize is the largest accepted request body in bytes (default: 5MB)
	MaxBodySize int64 `env:"SERVER_MAX_BODY_SIZE" default:"5242880"`
}

// DatabaseConfig holds database connection settings.
// The database is optional; without it lookups and stored documents are
// unavailable.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// DisplayConfig holds the display defaults every panel inherits.
type DisplayConfig struct {
	// ExcludeSuffixes hides keys ending in any of these (default: _error)
	ExcludeSuffixes []string `env:"DISPLAY_EXCLUDE_SUFFIXES" default:"_error"`

	// ExcludePrefixes hides keys starting with any of these
	ExcludePrefixes []string `env:"DISPLAY_EXCLUDE_PREFIXES"`

	// FlattenNested collapses nested objects into composite keys (default: true)
	FlattenNested bool `env:"DISPLAY_FLATTEN_NESTED" default:"true"`

	// NestedSeparator joins composite key segments (default: " → ")
	NestedSeparator string `env:"DISPLAY_NESTED_SEPARATOR" default:" → "`

	// FlattenSingleArrays shows a one-element list as a single object (default: false)
	FlattenSingleArrays bool `env:"DISPLAY_FLATTEN_SINGLE_ARRAYS" default:"false"`

	// MaxArraySize caps the number of items shown; 0 is unlimited (default: 0)
	MaxArraySize int `env:"DISPLAY_MAX_ARRAY_SIZE" default:"0"`

	// SkipArrayIndices omits the item number from panel labels (default: false)
	SkipArrayIndices bool `env:"DISPLAY_SKIP_ARRAY_INDICES" default:"false"`

	// ArrayIndexFormat numbers panel labels (default: " #%d")
	ArrayIndexFormat string `env:"DISPLAY_ARRAY_INDEX_FORMAT" default:" #%d"`
}

// Options converts the display defaults into transformation options.
func (c *DisplayConfig) Options() core.Options {
	opts := core.DefaultOptions()
	opts.ExcludeSuffixes = append([]string{}, c.ExcludeSuffixes...)
	opts.ExcludePrefixes = append([]string{}, c.ExcludePrefixes...)
	opts.KeepNested = !c.FlattenNested
	opts.NestedSeparator = c.NestedSeparator
	opts.FlattenSingleArrays = c.FlattenSingleArrays
	opts.MaxArraySize = c.MaxArraySize
	opts.SkipArrayIndices = c.SkipArrayIndices
	opts.ArrayIndexFormat = c.ArrayIndexFormat
	return opts
}

// LookupConfig holds lookup query settings.
type LookupConfig struct {
	// Timeout bounds each lookup query (default: 5s)
	Timeout time.Duration `env:"LOOKUP_TIMEOUT" default:"5s"`
}

// PanelsConfig locates the panel definitions.
type PanelsConfig struct {
	// File is the YAML definitions file; empty means no registered panels
	File string `env:"PANELS_FILE" default:"panels.yaml"`

	// MaxConcurrentDocuments bounds parallel stored-document renders (default: 5)
	MaxConcurrentDocuments int `env:"PANELS_MAX_CONCURRENT_DOCUMENTS" default:"5"`

	// DocumentWait is how long a document render waits for a slot (default: 10s)
	DocumentWait time.Duration `env:"PANELS_DOCUMENT_WAIT" default:"10s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// RenderLimit is requests per minute for render endpoints (default: 30)
	RenderLimit int `env:"RATE_LIMIT_RENDER" default:"30"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey rejects /api requests without a valid X-API-Key (default: false)
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
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
