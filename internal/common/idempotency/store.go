// Package idempotency records which payment events have already been reconciled.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store tracks processed subscriptions. Claim is atomic, so two concurrent
// deliveries for the same key cannot both win.
type Store interface {
	// Claim marks key as in progress and reports whether this caller owns it.
	Claim(ctx context.Context, key string) (bool, error)
	// Exists reports whether key has been claimed.
	Exists(ctx context.Context, key string) (bool, error)
	// Release drops a claim so a later delivery can retry.
	Release(ctx context.Context, key string) error
}

const (
	keyPrefix    = "biaw:reconciled:"
	claimedValue = "1"
)

// SubscriptionKey is the reconciliation key for a product subscription.
func SubscriptionKey(subscriptionID string) string {
	return "subscription:" + subscriptionID
}

// RedisStore keeps claims as SETNX keys with a TTL.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+key, claimedValue, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return ok, nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("check %s: %w", key, err)
	}
	return n > 0, nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}

// NopStore is used when Redis is disabled. Every claim succeeds and nothing
// is ever recorded, which leaves the table lookup as the only guard.
type NopStore struct{}

func (NopStore) Claim(context.Context, string) (bool, error)  { return true, nil }
func (NopStore) Exists(context.Context, string) (bool, error) { return false, nil }
func (NopStore) Release(context.Context, string) error        { return nil }
