package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the wifipass backend.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Sessions    SessionsConfig    `mapstructure:"sessions"`
	Payments    PaymentsConfig    `mapstructure:"payments"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	Demo        DemoConfig        `mapstructure:"demo"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port      int             `mapstructure:"port"`
	LogLevel  string          `mapstructure:"log_level"`
	LogFormat string          `mapstructure:"log_format"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// CORSConfig lists the browser origins allowed to call the API (the captive portal pages).
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig bounds requests per client IP and route.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CacheConfig describes cache backends.
type CacheConfig struct {
	PlanTTL time.Duration    `mapstructure:"plan_ttl"`
	Redis   RedisCacheConfig `mapstructure:"redis"`
}

// RedisCacheConfig holds Redis connection options.
type RedisCacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TLS      bool          `mapstructure:"tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SessionsConfig tunes access code generation and the session lifecycle.
type SessionsConfig struct {
	TokenLength         int           `mapstructure:"token_length"`
	TokenMaxAttempts    int           `mapstructure:"token_max_attempts"`
	EnforceSingleDevice bool          `mapstructure:"enforce_single_device"`
	ExpiryWarning       time.Duration `mapstructure:"expiry_warning"`
	Retention           time.Duration `mapstructure:"retention"`
}

// PaymentsConfig configures the simulated mobile money gateway.
type PaymentsConfig struct {
	Currency        string        `mapstructure:"currency"`
	Methods         []string      `mapstructure:"methods"`
	ProcessingDelay time.Duration `mapstructure:"processing_delay"`
	PhoneHashKey    string        `mapstructure:"phone_hash_key"`
}

// MaintenanceConfig controls the background scheduler.
type MaintenanceConfig struct {
	SweepSchedule      string `mapstructure:"sweep_schedule"`
	RetentionSchedule  string `mapstructure:"retention_schedule"`
	EventRetentionDays int    `mapstructure:"event_retention_days"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DemoConfig seeds fake purchases at start-up for local development.
type DemoConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Sessions int  `mapstructure:"sessions"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
// A .env file in the working directory is loaded first when present.
func LoadConfig(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("WIFIPASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.rate_limit.requests", 120)
	v.SetDefault("server.rate_limit.window", "1m")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/wifipass.sqlite")

	v.SetDefault("cache.plan_ttl", "1m")
	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.address", "127.0.0.1:6379")
	v.SetDefault("cache.redis.username", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.tls", false)
	v.SetDefault("cache.redis.timeout", "5s")

	v.SetDefault("sessions.token_length", 12)
	v.SetDefault("sessions.token_max_attempts", 5)
	v.SetDefault("sessions.enforce_single_device", true)
	v.SetDefault("sessions.expiry_warning", "5m")
	v.SetDefault("sessions.retention", "24h")

	v.SetDefault("payments.currency", "XOF")
	v.SetDefault("payments.methods", []string{"mtn", "moov"})
	v.SetDefault("payments.processing_delay", "0s")

	v.SetDefault("maintenance.sweep_schedule", "@every 5s")
	v.SetDefault("maintenance.retention_schedule", "@hourly")
	v.SetDefault("maintenance.event_retention_days", 90)

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)

	v.SetDefault("demo.enabled", false)
	v.SetDefault("demo.sessions", 3)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
