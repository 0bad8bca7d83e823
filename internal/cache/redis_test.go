package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRedisOptionsRequiresAddress(t *testing.T) {
	_, err := redisOptions(RedisConfig{Address: "  "})
	require.Error(t, err)

	_, err = NewRedisStore(RedisConfig{})
	require.Error(t, err)
}

func TestRedisOptionsDefaults(t *testing.T) {
	options, err := redisOptions(RedisConfig{Address: " cache.local:6380 ", DB: 3, Password: "pw"})
	require.NoError(t, err)

	require.Equal(t, "cache.local:6380", options.Addr)
	require.Equal(t, 3, options.DB)
	require.Equal(t, "pw", options.Password)
	require.Equal(t, defaultRedisTimeout, options.DialTimeout)
	require.Equal(t, defaultRedisTimeout, options.ReadTimeout)
	require.Nil(t, options.TLSConfig)
}

func TestRedisOptionsTLS(t *testing.T) {
	options, err := redisOptions(RedisConfig{Address: "cache.local:6380", TLS: true, Timeout: time.Second})
	require.NoError(t, err)

	require.NotNil(t, options.TLSConfig)
	require.Equal(t, "cache.local", options.TLSConfig.ServerName)
	require.Equal(t, time.Second, options.WriteTimeout)
}

func TestPrefixedKeys(t *testing.T) {
	require.Equal(t, "wifipass:plan:basic", prefixed("plan:basic"))
}
