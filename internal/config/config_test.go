package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "GEOIP_TIMEOUT", "AUCTION_SWEEP", "REDIS_URL"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.GeoIPTimeout)
	assert.Equal(t, "@every 1m", cfg.AuctionSweep)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GEOIP_TIMEOUT", "500ms")
	t.Setenv("COOKIE_SECURE", "true")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.GeoIPTimeout)
	assert.True(t, cfg.CookieSecure)
}

func TestLoadRejectsZeroTimeout(t *testing.T) {
	t.Setenv("GEOIP_TIMEOUT", "0s")
	_, err := Load()
	assert.Error(t, err)
}
