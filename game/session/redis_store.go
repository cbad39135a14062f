package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RedisConfig configures a RedisStore
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	Timeout   time.Duration
}

// DefaultRedisConfig returns settings for a local server
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "tileslide:",
		Timeout:   2 * time.Second,
	}
}

// RedisStore keeps values in Redis. Writes go straight to the server, so
// Save is a no-op.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewRedisStore connects and pings the server
func NewRedisStore(cfg RedisConfig, log logrus.FieldLogger) (*RedisStore, error) {
	def := DefaultRedisConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = def.KeyPrefix
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	s := &RedisStore{client: client, prefix: cfg.KeyPrefix, timeout: cfg.Timeout, log: log}

	ctx, cancel := s.ctx()
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.WithField("addr", cfg.Addr).Info("Connected to Redis")
	return s, nil
}

func (r *RedisStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

func (r *RedisStore) Lookup(key string) (int, error) {
	ctx, cancel := r.ctx()
	defer cancel()
	v, err := r.client.Get(ctx, r.prefix+key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, ErrKeyNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

func (r *RedisStore) GetInt(key string, def int) int { return getInt(r, key, def, r.log) }

func (r *RedisStore) SetInt(key string, value int) error {
	ctx, cancel := r.ctx()
	defer cancel()
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) DeleteKey(key string) error {
	ctx, cancel := r.ctx()
	defer cancel()
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Save() error  { return nil }
func (r *RedisStore) Close() error { return r.client.Close() }
