package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE_BACKEND", "BUS_BACKEND", "KAFKA_BROKERS", "PHONE_COOKIE_DAYS", "BOARD_LANE_LIMIT", "CORS_ORIGINS", "BOARD_SYNC", "TIMEZONE"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, StorePostgres, cfg.Database.Backend)
	assert.Equal(t, BusMemory, cfg.Portal.BusBackend)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, 7, cfg.Portal.PhoneCookieDays)
	assert.Equal(t, 7*24*time.Hour, cfg.Portal.PhoneCookieMaxAge())
	assert.Equal(t, 100, cfg.Portal.BoardLaneLimit)
	assert.Empty(t, cfg.Server.CORSOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "MEMORY")
	t.Setenv("BUS_BACKEND", "redis")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("PHONE_COOKIE_DAYS", "3")
	t.Setenv("BOARD_LANE_LIMIT", "-1")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TIMEZONE", "Asia/Kolkata")

	cfg := Load()
	assert.Equal(t, StoreMemory, cfg.Database.Backend)
	assert.Equal(t, BusRedis, cfg.Portal.BusBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3, cfg.Portal.PhoneCookieDays)
	assert.Equal(t, 100, cfg.Portal.BoardLaneLimit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())
}

func TestValidate(t *testing.T) {
	t.Setenv("STORE_BACKEND", "mysql")
	assert.Error(t, Load().Validate())

	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("BOARD_SYNC", "events")
	t.Setenv("KAFKA_BROKERS", "")
	assert.Error(t, Load().Validate())

	t.Setenv("BOARD_SYNC", "direct")
	t.Setenv("TIMEZONE", "Mars/Olympus")
	assert.Error(t, Load().Validate())
}
