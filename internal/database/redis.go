package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ngenohkevin/circulation/internal/config"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by GetCached when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

type RedisClient struct {
	Client *redis.Client
}

func NewRedis(cfg *config.Config) (*RedisClient, error) {
	options := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	if cfg.Redis.URL != "" {
		parsed, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		options = parsed
	}

	// Connection pool settings
	options.PoolSize = 10
	options.MinIdleConns = 5
	options.MaxRetries = 3
	options.ConnMaxIdleTime = 30 * time.Minute
	options.ConnMaxLifetime = time.Hour

	options.DialTimeout = 5 * time.Second
	options.ReadTimeout = 3 * time.Second
	options.WriteTimeout = 3 * time.Second

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Successfully connected to Redis", "addr", options.Addr, "db", options.DB)

	return &RedisClient{
		Client: client,
	}, nil
}

func (r *RedisClient) Close() error {
	if r.Client != nil {
		if err := r.Client.Close(); err != nil {
			return fmt.Errorf("failed to close Redis connection: %w", err)
		}
		slog.Info("Redis connection closed")
	}
	return nil
}

func (r *RedisClient) Health(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// Cache helpers used by the settings provider.

func (r *RedisClient) SetCached(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return r.Client.Set(ctx, key, value, expiration).Err()
}

func (r *RedisClient) GetCached(ctx context.Context, key string) ([]byte, error) {
	b, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (r *RedisClient) Invalidate(ctx context.Context, key string) error {
	return r.Client.Del(ctx, key).Err()
}
