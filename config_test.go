package blogfront

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigLayersYAMLEnvAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blogfront.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: Field Notes
api_base_url: http://posts.internal/api
request_timeout: 5s
page_size: 4
fallback_enabled: true
`), 0o600))
	t.Setenv("BLOGFRONT_PAGE_SIZE", "9")
	t.Setenv("BLOGFRONT_SESSION_SECRET", "from-the-environment")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Field Notes", cfg.Name)
	assert.Equal(t, "http://posts.internal/api", cfg.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 9, cfg.PageSize)
	assert.True(t, cfg.FallbackEnabled)
	assert.Equal(t, "from-the-environment", cfg.SessionSecret)

	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, SessionBackendCookie, cfg.SessionBackend)
	assert.Equal(t, 5*time.Minute, cfg.FeedCacheTTL)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := SiteConfig{SessionSecret: "0123456789abcdef"}
	base.setDefaults()

	tests := map[string]func(*SiteConfig){
		"missing secret":    func(c *SiteConfig) { c.SessionSecret = "" },
		"short secret":      func(c *SiteConfig) { c.SessionSecret = "short" },
		"redis without url": func(c *SiteConfig) { c.SessionBackend = SessionBackendRedis },
		"unknown backend":   func(c *SiteConfig) { c.SessionBackend = "memcached" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	redis := base
	redis.SessionBackend = SessionBackendRedis
	redis.RedisURL = "redis://localhost:6379/0"
	assert.NoError(t, redis.Validate())
}
