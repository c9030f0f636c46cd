// Package config loads application settings from environment variables with
// defaults, and validates them on startup.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/userimport/internal/core"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportSettings
	Upload   UploadConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Mail     MailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including waiting for
	// running imports (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportSettings are the initial import settings. Once settings are saved
// through the API, the stored values take precedence.
type ImportSettings struct {
	DefaultRole          string `env:"IMPORT_DEFAULT_ROLE" default:"authenticated"`
	MaxImportSize        int    `env:"IMPORT_MAX_SIZE" default:"1000"`
	LoggingEnabled       bool   `env:"IMPORT_LOGGING_ENABLED" default:"true"`
	AllowDuplicateEmails bool   `env:"IMPORT_ALLOW_DUPLICATE_EMAILS" default:"false"`

	// Roles is a comma-separated list of roles created at startup if missing.
	Roles []string `env:"IMPORT_ROLES"`
}

// UploadConfig holds file upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 25MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"26214400"`

	// Dir is where uploaded files are stored while they are imported.
	// Empty means the system temp directory.
	Dir string `env:"UPLOAD_DIR"`

	// MaxConcurrent is the maximum number of parallel imports (default: 3)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"3"`

	// MaxWaitTime is how long to wait for an import slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration of a single upload request (default: 10m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"10m"`
}

// Directory returns the upload directory, defaulting to a folder under the
// system temp directory.
func (u UploadConfig) Directory() string {
	if u.Dir != "" {
		return u.Dir
	}
	return filepath.Join(os.TempDir(), "userimport")
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for import endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`

	// RequireAPIKey enables API key authentication for /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`

	// File, when set, also writes logs to a rotating file.
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_FILE_MAX_SIZE_MB" default:"100"`
	MaxBackups int    `env:"LOG_FILE_MAX_BACKUPS" default:"5"`
	MaxAgeDays int    `env:"LOG_FILE_MAX_AGE_DAYS" default:"30"`
}

// MailConfig holds SMTP settings for welcome notifications. With no Host,
// notifications are written to the log.
type MailConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" default:"587"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" default:"noreply@localhost"`
	SiteName string `env:"SITE_NAME" default:"User Import"`
	LoginURL string `env:"LOGIN_URL"`
}

// Enabled reports whether an SMTP server is configured.
func (m MailConfig) Enabled() bool { return m.Host != "" }

// ImportConfig converts the environment settings into pipeline settings.
func (c *Config) ImportConfig() core.ImportConfig {
	return core.ImportConfig{
		MaxImportSize:        c.Import.MaxImportSize,
		DefaultRole:          c.Import.DefaultRole,
		LoggingEnabled:       c.Import.LoggingEnabled,
		AllowDuplicateEmails: c.Import.AllowDuplicateEmails,
	}.Normalize()
}

// ImportRoles returns the roles to provision: the default role followed by
// IMPORT_ROLES, without duplicates.
func (c *Config) ImportRoles() []string {
	names := []string{c.ImportConfig().DefaultRole}
	seen := map[string]bool{names[0]: true}
	for _, r := range c.Import.Roles {
		if !seen[r] {
			seen[r] = true
			names = append(names, r)
		}
	}
	return names
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
