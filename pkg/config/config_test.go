package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_URL", "http://api.test")
	t.Setenv("CACHE_DEDUPE_INTERVAL", "not-a-duration")
	t.Setenv("ADMIN_EMAILS", " root@example.com, ,ops@example.com")

	cfg := Load()

	assert.Equal(t, "http://api.test", cfg.APIURL)
	assert.Equal(t, 30*time.Second, cfg.CacheDedupeInterval)
	assert.Equal(t, []string{"root@example.com", "ops@example.com"}, cfg.AdminEmails)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadDurations(t *testing.T) {
	t.Setenv("STATS_DEDUPE_INTERVAL", "5m")
	t.Setenv("APP_ENV", "development")

	cfg := Load()

	assert.Equal(t, 5*time.Minute, cfg.StatsDedupeInterval)
	assert.True(t, cfg.IsDevelopment())
}
