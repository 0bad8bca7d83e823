package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "json", cfg.Server.LogFormat)
	require.Equal(t, []string{"http://portal.local", "http://localhost:3000"}, cfg.Server.CORS.AllowedOrigins)
	require.Equal(t, 30, cfg.Server.RateLimit.Requests)
	require.Equal(t, 30*time.Second, cfg.Server.RateLimit.Window)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)

	require.Equal(t, 2*time.Minute, cfg.Cache.PlanTTL)
	require.True(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, 5*time.Second, cfg.Cache.Redis.Timeout)

	require.Equal(t, 16, cfg.Sessions.TokenLength)
	require.Equal(t, 8, cfg.Sessions.TokenMaxAttempts)
	require.False(t, cfg.Sessions.EnforceSingleDevice)
	require.Equal(t, 10*time.Minute, cfg.Sessions.ExpiryWarning)
	require.Equal(t, 48*time.Hour, cfg.Sessions.Retention)

	require.Equal(t, 1500*time.Millisecond, cfg.Payments.ProcessingDelay)
	require.Equal(t, "test-hash-key", cfg.Payments.PhoneHashKey)

	require.Equal(t, "@every 10s", cfg.Maintenance.SweepSchedule)
	require.Equal(t, 30, cfg.Maintenance.EventRetentionDays)

	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.True(t, cfg.Demo.Enabled)
	require.Equal(t, 5, cfg.Demo.Sessions)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 12, cfg.Sessions.TokenLength)
	require.True(t, cfg.Sessions.EnforceSingleDevice)
	require.Equal(t, 5*time.Minute, cfg.Sessions.ExpiryWarning)
	require.Equal(t, []string{"mtn", "moov"}, cfg.Payments.Methods)
	require.Equal(t, "@every 5s", cfg.Maintenance.SweepSchedule)
}

func TestLoadConfigEnvironmentOverride(t *testing.T) {
	t.Setenv("WIFIPASS_SERVER_PORT", "7070")
	t.Setenv("WIFIPASS_SESSIONS_TOKEN_LENGTH", "20")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, 20, cfg.Sessions.TokenLength)
}

func TestSessionManagerConfigAdapter(t *testing.T) {
	cfg := SessionsConfig{
		TokenLength:         16,
		TokenMaxAttempts:    3,
		EnforceSingleDevice: true,
		ExpiryWarning:       time.Minute,
	}

	out := cfg.SessionManagerConfig()
	require.Equal(t, 16, out.TokenLength)
	require.Equal(t, 3, out.TokenMaxAttempts)
	require.True(t, out.EnforceSingleDevice)
	require.Equal(t, time.Minute, out.ExpiryWarning)
}

func TestSessionManagerConfigAdapterFallback(t *testing.T) {
	var cfg SessionsConfig

	out := cfg.SessionManagerConfig()
	require.Equal(t, defaultTokenLength, out.TokenLength)
	require.Equal(t, defaultTokenMaxAttempts, out.TokenMaxAttempts)
	require.Equal(t, defaultExpiryWarning, out.ExpiryWarning)
}

func TestPaymentServiceConfigAdapter(t *testing.T) {
	cfg := PaymentsConfig{
		Currency:        "xof",
		Methods:         []string{"MTN", " moov ", ""},
		ProcessingDelay: time.Second,
		PhoneHashKey:    "key",
	}

	out := cfg.PaymentServiceConfig()
	require.Equal(t, "XOF", out.Currency)
	require.Equal(t, []string{"mtn", "moov"}, out.Methods)
	require.Equal(t, time.Second, out.ProcessingDelay)
	require.Equal(t, []byte("key"), out.PhoneHashKey)

	require.Equal(t, defaultCurrency, PaymentsConfig{}.PaymentServiceConfig().Currency)
}

func TestRedisClientConfigAdapter(t *testing.T) {
	cfg := CacheConfig{Redis: RedisCacheConfig{
		Address:  " redis:6379 ",
		Username: " user ",
		Password: "pass",
		DB:       2,
		TLS:      true,
		Timeout:  3 * time.Second,
	}}

	out := cfg.RedisClientConfig()
	require.Equal(t, "redis:6379", out.Address)
	require.Equal(t, "user", out.Username)
	require.Equal(t, "pass", out.Password)
	require.Equal(t, 2, out.DB)
	require.True(t, out.TLS)
	require.Equal(t, 3*time.Second, out.Timeout)
}
