package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_RequiresAPIBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_BASE_URL")
}

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://api.local/api/v1")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("STORAGE_DSN", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "file:storefront.db", cfg.StorageDSN)
	assert.Equal(t, 5*time.Second, cfg.APITimeout)
	assert.Equal(t, 2*time.Second, cfg.SessionInitWait)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, "product", cfg.ESIndex)
	assert.Nil(t, cfg.KafkaBrokers)
	assert.False(t, cfg.CookieSecure)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://api.local")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("API_TIMEOUT", "750ms")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("LOGIN_RATE", "not-a-number")
	t.Setenv("SESSION_IDLE_TTL", "5m")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 750*time.Millisecond, cfg.APITimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 10, cfg.LoginRate)
	assert.Equal(t, 5*time.Minute, cfg.SessionIdleTTL)
}
