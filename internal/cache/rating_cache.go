package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"farmersmarket/internal/models"

	"github.com/redis/go-redis/v9"
)

// RatingCache stores per-product rating summaries between reviews.
type RatingCache interface {
	Get(ctx context.Context, productID string) (models.RatingSummary, bool, error)
	Set(ctx context.Context, productID string, summary models.RatingSummary) error
	Invalidate(ctx context.Context, productID string) error
}

// RedisRatingCache is a Redis implementation of RatingCache.
type RedisRatingCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ RatingCache = (*RedisRatingCache)(nil)

// NewRedisClient creates a client for addr.
func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}

// NewRedisRatingCache creates a cache whose keys are "<prefix>:<product id>".
func NewRedisRatingCache(client *redis.Client, prefix string, ttl time.Duration) *RedisRatingCache {
	return &RedisRatingCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Key returns the Redis key of productID.
func (r *RedisRatingCache) Key(productID string) string {
	var builder strings.Builder
	builder.Grow(len(r.prefix) + 1 + len(productID))
	builder.WriteString(r.prefix)
	builder.WriteString(":")
	builder.WriteString(productID)
	return builder.String()
}

// Ping checks the connection.
func (r *RedisRatingCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRatingCache) Get(ctx context.Context, productID string) (models.RatingSummary, bool, error) {
	raw, err := r.client.Get(ctx, r.Key(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.RatingSummary{}, false, nil
	}
	if err != nil {
		return models.RatingSummary{}, false, fmt.Errorf("failed to read rating of %s: %w", productID, err)
	}
	summary, err := decodeSummary(raw)
	if err != nil {
		return models.RatingSummary{}, false, err
	}
	return summary, true, nil
}

func (r *RedisRatingCache) Set(ctx context.Context, productID string, summary models.RatingSummary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode rating of %s: %w", productID, err)
	}
	if err := r.client.Set(ctx, r.Key(productID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache rating of %s: %w", productID, err)
	}
	return nil
}

func (r *RedisRatingCache) Invalidate(ctx context.Context, productID string) error {
	if err := r.client.Del(ctx, r.Key(productID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate rating of %s: %w", productID, err)
	}
	return nil
}

// Close releases the client.
func (r *RedisRatingCache) Close() error {
	return r.client.Close()
}

func decodeSummary(raw []byte) (models.RatingSummary, error) {
	var summary models.RatingSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return models.RatingSummary{}, fmt.Errorf("corrupt rating cache entry: %w", err)
	}
	return summary, nil
}
