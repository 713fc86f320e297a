package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds one atomic posting attempt.
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultRateTimeout bounds one upstream FX provider call.
	DefaultRateTimeout = 3 * time.Second

	// DefaultRateTTL is how long a fetched exchange rate stays usable.
	DefaultRateTTL = 5 * time.Minute

	// IdempotencyKeyTTL is how long HTTP responses are cached for replay.
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultPageSize and MaxPageSize bound list queries.
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}

	if limit > MaxPageSize {
		return MaxPageSize
	}

	return limit
}
