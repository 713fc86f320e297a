package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crosspay/ledger/internal/domain"
)

// RateCache implements usecase.RateCache using Redis. Entries carry
// their own TTL; a missing key is a miss, not an error, so a cold or
// unreachable cache degrades to a provider fetch.
type RateCache struct {
	client *redis.Client
	prefix string
}

// NewRateCache creates a new RateCache.
func NewRateCache(client *redis.Client) *RateCache {
	return &RateCache{
		client: client,
		prefix: "rate:",
	}
}

func (c *RateCache) key(base, target string) string {
	return fmt.Sprintf("%s%s:%s", c.prefix, base, target)
}

// Get retrieves a cached rate for the pair. Returns (nil, nil) on miss.
func (c *RateCache) Get(ctx context.Context, base, target string) (*domain.ExchangeRate, error) {
	raw, err := c.client.Get(ctx, c.key(base, target)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, err
	}

	var rate domain.ExchangeRate
	if err := json.Unmarshal(raw, &rate); err != nil {
		return nil, err
	}

	return &rate, nil
}

// Set stores a rate with the given TTL.
func (c *RateCache) Set(ctx context.Context, rate *domain.ExchangeRate, ttl time.Duration) error {
	raw, err := json.Marshal(rate)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.key(rate.Base, rate.Target), raw, ttl).Err()
}
