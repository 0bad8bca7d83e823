package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig captures the connection parameters for the Redis backed store.
type RedisConfig struct {
	Address  string
	Username string
	Password string
	DB       int
	TLS      bool
	Timeout  time.Duration
}

const (
	defaultRedisTimeout = 5 * time.Second
	redisKeyPrefix      = "wifipass:"
)

// RedisStore implements Store on top of go-redis so rate limits and cached plans are shared across replicas.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a client and pings the server so misconfiguration surfaces during start-up.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	options, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), options.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", options.Addr, err)
	}

	return &RedisStore{client: client}, nil
}

func redisOptions(cfg RedisConfig) (*redis.Options, error) {
	address := strings.TrimSpace(cfg.Address)
	if address == "" {
		return nil, errors.New("redis: address is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRedisTimeout
	}

	options := &redis.Options{
		Addr:         address,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	if cfg.TLS {
		host := address
		if idx := strings.LastIndex(address, ":"); idx > 0 {
			host = address[:idx]
		}
		options.TLSConfig = &tls.Config{
			ServerName: host,
			MinVersion: tls.VersionTLS12,
		}
	}

	return options, nil
}

// Client exposes the underlying client for health probes.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// IncrementWithTTL increments the supplied key and sets the TTL when the window starts.
// It returns the current count and the remaining time-to-live.
func (s *RedisStore) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	prefixedKey := prefixed(key)

	count, err := s.client.Incr(ctx, prefixedKey).Result()
	if err != nil {
		return 0, 0, err
	}

	if count == 1 {
		if err := s.client.PExpire(ctx, prefixedKey, window).Err(); err != nil {
			return 0, 0, err
		}
	}

	ttl, err := s.client.PTTL(ctx, prefixedKey).Result()
	if err != nil || ttl < 0 {
		return count, window, nil
	}
	return count, ttl, nil
}

// Set stores a value with PX expiry semantics.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, prefixed(key), value, ttl).Err()
}

// Get retrieves the value associated with a key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, prefixed(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Delete removes one or more keys, ignoring missing keys.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixedKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		prefixedKeys = append(prefixedKeys, prefixed(key))
	}
	return s.client.Del(ctx, prefixedKeys...).Err()
}

func prefixed(key string) string {
	return redisKeyPrefix + key
}
