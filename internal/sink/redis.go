package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores journey documents as string keys and indexes them in a
// per-run list.
type RedisBackend struct {
	client *redis.Client
	prefix string
	list   string
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisBackend(addr, password string, db int, runID string, ttl time.Duration, logger *slog.Logger) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return newRedisBackend(client, runID, ttl, logger), nil
}

func newRedisBackend(client *redis.Client, runID string, ttl time.Duration, logger *slog.Logger) *RedisBackend {
	return &RedisBackend{
		client: client,
		prefix: "journeys:",
		list:   "journeys:" + runID,
		ttl:    ttl,
		logger: logger.With("component", "redis_sink"),
	}
}

func (r *RedisBackend) Name() string {
	return "redis"
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}

func (r *RedisBackend) key(k string) string {
	return r.prefix + k
}

func (r *RedisBackend) Store(ctx context.Context, key string, doc []byte) error {
	start := time.Now()

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(key), doc, r.ttl)
	pipe.RPush(ctx, r.list, r.key(key))
	if r.ttl > 0 {
		pipe.Expire(ctx, r.list, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("journey store failed", "key", key, "error", err)
		return err
	}

	r.logger.Debug("journey stored", "key", key, "size_bytes", len(doc), "ttl", r.ttl, "duration_ms", time.Since(start).Milliseconds())
	return nil
}
