package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_USER", "shop")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_NAME", "shopsathi")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestReadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Read()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.False(t, cfg.StrictStock)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address())
	assert.True(t, cfg.Cache.Caches("get"))
	assert.False(t, cfg.Cache.Caches("POST"))
	assert.Equal(t, "shop:cache", cfg.Cache.Prefix)
	assert.Equal(t, 120, cfg.RateLimit.Capacity)
	assert.Equal(t, "ip_user", cfg.RateLimit.KeyStrategy)
}

func TestReadRequiresSecret(t *testing.T) {
	t.Setenv("DB_USER", "shop")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_NAME", "shopsathi")
	t.Setenv("JWT_SECRET", "")

	_, err := Read()
	assert.Error(t, err)
}

func TestReadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("STRICT_STOCK", "true")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("CACHE_METHODS", "GET,HEAD")
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg, err := Read()
	require.NoError(t, err)
	assert.True(t, cfg.StrictStock)
	assert.Equal(t, "cache:6380", cfg.Redis.Address())
	assert.True(t, cfg.Cache.Caches("HEAD"))
	assert.Equal(t, 1, cfg.RateLimit.Capacity)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.TTL)
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(LoggerConfig{Level: "loud", Env: "dev"})
	assert.Error(t, err)

	logger, err := NewLogger(LoggerConfig{Level: "debug", Env: "prod"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
