package blogfront

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"go-simpler.org/env"
	"gopkg.in/yaml.v3"

	"github.com/eringen/blogfront/domain"
	"github.com/eringen/blogfront/gateway"
)

// Session backends.
const (
	SessionBackendCookie = "cookie"
	SessionBackendRedis  = "redis"
)

// SiteConfig holds all configuration for a blogfront site. Values come from
// an optional YAML file, then BLOGFRONT_* environment variables, then the
// defaults below.
type SiteConfig struct {
	Name        string `yaml:"name" env:"BLOGFRONT_NAME"`               // Site name (default "Blog")
	URL         string `yaml:"url" env:"BLOGFRONT_URL"`                 // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description" env:"BLOGFRONT_DESCRIPTION"` // Used by the feed and meta tags
	Addr        string `yaml:"addr" env:"BLOGFRONT_ADDR"`               // Listen address (default ":3000")

	APIBaseURL     string        `yaml:"api_base_url" env:"BLOGFRONT_API_BASE_URL"`       // default "http://localhost:8000/api"
	RequestTimeout time.Duration `yaml:"request_timeout" env:"BLOGFRONT_REQUEST_TIMEOUT"` // default 15s
	PageSize       int           `yaml:"page_size" env:"BLOGFRONT_PAGE_SIZE"`             // default 6

	SessionSecret  string        `yaml:"session_secret" env:"BLOGFRONT_SESSION_SECRET"` // Required by serve
	CookieSecure   bool          `yaml:"cookie_secure" env:"BLOGFRONT_COOKIE_SECURE"`   // Set true for HTTPS
	SessionBackend string        `yaml:"session_backend" env:"BLOGFRONT_SESSION_BACKEND"`
	RedisURL       string        `yaml:"redis_url" env:"BLOGFRONT_REDIS_URL"`
	SessionMaxAge  time.Duration `yaml:"session_max_age" env:"BLOGFRONT_SESSION_MAX_AGE"` // default 168h

	FallbackEnabled      bool   `yaml:"fallback_enabled" env:"BLOGFRONT_FALLBACK_ENABLED"`
	FallbackDatabasePath string `yaml:"fallback_database_path" env:"BLOGFRONT_FALLBACK_DATABASE_PATH"` // default "data/fallback.db"

	MaxUploadSize int64 `yaml:"max_upload_size" env:"BLOGFRONT_MAX_UPLOAD_SIZE"` // bytes, default 10MB
	MaxImageWidth int   `yaml:"max_image_width" env:"BLOGFRONT_MAX_IMAGE_WIDTH"` // default 800

	FeedCacheTTL time.Duration `yaml:"feed_cache_ttl" env:"BLOGFRONT_FEED_CACHE_TTL"` // default 5min

	LogLevel  string `yaml:"log_level" env:"BLOGFRONT_LOG_LEVEL"`   // debug, info, warn, error
	LogFormat string `yaml:"log_format" env:"BLOGFRONT_LOG_FORMAT"` // text or json

	StubAddr         string `yaml:"stub_addr" env:"BLOGFRONT_STUB_ADDR"`                   // default ":8000"
	StubDatabasePath string `yaml:"stub_database_path" env:"BLOGFRONT_STUB_DATABASE_PATH"` // default "data/stub.db"
}

// LoadConfig reads .env (if present), the YAML file at path (if path is not
// empty), and the environment, then applies defaults.
func LoadConfig(path string) (SiteConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	var cfg SiteConfig
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return SiteConfig{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return SiteConfig{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.Load(&cfg, nil); err != nil {
		return SiteConfig{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = "http://localhost:8000/api"
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 15 * time.Second
	}
	if c.PageSize <= 0 {
		c.PageSize = domain.DefaultPageSize
	}
	if c.SessionBackend == "" {
		c.SessionBackend = SessionBackendCookie
	}
	if c.SessionMaxAge == 0 {
		c.SessionMaxAge = 7 * 24 * time.Hour
	}
	if c.FallbackDatabasePath == "" {
		c.FallbackDatabasePath = "data/fallback.db"
	}
	if c.MaxUploadSize == 0 {
		c.MaxUploadSize = 10 << 20
	}
	if c.MaxImageWidth == 0 {
		c.MaxImageWidth = 800
	}
	if c.FeedCacheTTL == 0 {
		c.FeedCacheTTL = 5 * time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.StubAddr == "" {
		c.StubAddr = ":8000"
	}
	if c.StubDatabasePath == "" {
		c.StubDatabasePath = "data/stub.db"
	}
}

// Validate checks what the web front needs before it can serve.
func (c SiteConfig) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("BLOGFRONT_SESSION_SECRET is required")
	}
	if len(c.SessionSecret) < 16 {
		return errors.New("BLOGFRONT_SESSION_SECRET must be at least 16 characters")
	}
	switch c.SessionBackend {
	case SessionBackendCookie:
	case SessionBackendRedis:
		if c.RedisURL == "" {
			return errors.New("BLOGFRONT_REDIS_URL is required for the redis session backend")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.SessionBackend)
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithClock replaces the clock used by the login limiter and feed cache.
func WithClock(clock clockwork.Clock) Option {
	return func(a *App) {
		a.clock = clock
	}
}

// WithAPI replaces the posts service client. Tests use it to point the app
// at an in-process backend.
func WithAPI(api gateway.API) Option {
	return func(a *App) {
		a.primary = api
	}
}
