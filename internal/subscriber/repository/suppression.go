package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

const suppressedKeyPrefix = "alertsphere:token:suppressed:"

// SuppressionCache remembers tokens the push provider rejected so a stale
// client cannot re-register them right away.
type SuppressionCache interface {
	IsSuppressed(ctx context.Context, token string) (bool, error)
	Suppress(ctx context.Context, tokens ...string) error
}

type RedisSuppression struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSuppression(client *redis.Client, ttl time.Duration) *RedisSuppression {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSuppression{client: client, ttl: ttl}
}

func (r *RedisSuppression) IsSuppressed(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, suppressedKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *RedisSuppression) Suppress(ctx context.Context, tokens ...string) error {
	if len(tokens) == 0 {
		return nil
	}
	pipe := r.client.Pipeline()
	for _, t := range tokens {
		pipe.SetEx(ctx, suppressedKey(t), "1", r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Keys hold a digest so raw tokens never land in redis.
func suppressedKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return suppressedKeyPrefix + hex.EncodeToString(sum[:])
}

// NoSuppression is used when redis is not configured.
type NoSuppression struct{}

func (NoSuppression) IsSuppressed(context.Context, string) (bool, error) { return false, nil }
func (NoSuppression) Suppress(context.Context, ...string) error { return nil }
