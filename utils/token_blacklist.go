package utils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"
)

// TokenBlacklist records revoked token ids until their natural expiry.
type TokenBlacklist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryBlacklist is a process-local blacklist used when Redis is disabled.
type MemoryBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{entries: make(map[string]time.Time), now: time.Now}
}

func (b *MemoryBlacklist) Revoke(_ context.Context, tokenID string, until time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.prune()
	if until.After(b.now()) {
		b.entries[tokenID] = until
	}
	return nil
}

func (b *MemoryBlacklist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	until, ok := b.entries[tokenID]
	if !ok {
		return false, nil
	}
	if !until.After(b.now()) {
		delete(b.entries, tokenID)
		return false, nil
	}
	return true, nil
}

func (b *MemoryBlacklist) prune() {
	now := b.now()
	for id, until := range b.entries {
		if !until.After(now) {
			delete(b.entries, id)
		}
	}
}

// RedisBlacklist stores revoked ids as expiring keys. Calls go through a
// circuit breaker so a Redis outage fails fast instead of stalling requests.
type RedisBlacklist struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	prefix  string
}

func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{
		client: client,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "redis-token-blacklist",
			MaxRequests: 3,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				LogEvent("circuit_breaker_state_change", map[string]interface{}{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				})
			},
		}),
		prefix: "revoked:",
	}
}

func (b *RedisBlacklist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.client.Set(ctx, b.prefix+tokenID, "1", ttl).Err()
	})
	return err
}

func (b *RedisBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		n, err := b.client.Exists(ctx, b.prefix+tokenID).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return false, err
		}
		return n > 0, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}
