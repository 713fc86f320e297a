package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/infrastructure/metrics"
)

// RateUseCase serves exchange rates from a short-TTL cache backed by an
// ordered list of upstream providers. When every provider fails the
// lookup fails closed: stale rates are never served for settlement.
type RateUseCase struct {
	cache     RateCache
	providers []RateProvider
	spread    decimal.Decimal
	ttl       time.Duration
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

// NewRateUseCase creates a RateUseCase. Providers are tried in order.
func NewRateUseCase(
	cache RateCache,
	providers []RateProvider,
	spread decimal.Decimal,
	ttl time.Duration,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *RateUseCase {
	if ttl <= 0 {
		ttl = DefaultRateTTL
	}

	return &RateUseCase{
		cache:     cache,
		providers: providers,
		spread:    spread,
		ttl:       ttl,
		logger:    logger,
		metrics:   m,
	}
}

// GetRate returns the current rate for the pair. Cache failures are
// treated as misses; provider failures fall through to the next
// provider.
func (uc *RateUseCase) GetRate(ctx context.Context, base, target string) (*domain.ExchangeRate, error) {
	if err := domain.ValidateCurrency(base); err != nil {
		return nil, err
	}

	if err := domain.ValidateCurrency(target); err != nil {
		return nil, err
	}

	if base == target {
		return domain.IdentityRate(base), nil
	}

	if rate := uc.fromCache(ctx, base, target); rate != nil {
		return rate, nil
	}

	rate, err := uc.fetch(ctx, base, target)
	if err != nil {
		return nil, err
	}

	if err := uc.cache.Set(ctx, rate, uc.ttl); err != nil {
		uc.logger.Warn().Err(err).
			Str("base", base).
			Str("target", target).
			Msg("failed to cache exchange rate")
	}

	return rate, nil
}

func (uc *RateUseCase) fromCache(ctx context.Context, base, target string) *domain.ExchangeRate {
	rate, err := uc.cache.Get(ctx, base, target)
	if err != nil {
		uc.logger.Warn().Err(err).
			Str("base", base).
			Str("target", target).
			Msg("rate cache read failed")

		return nil
	}

	if rate == nil || rate.Stale(uc.ttl, time.Now().UTC()) {
		return nil
	}

	uc.countLookup("cache", "hit")

	return rate
}

func (uc *RateUseCase) fetch(ctx context.Context, base, target string) (*domain.ExchangeRate, error) {
	var lastErr error

	for _, provider := range uc.providers {
		rate, err := provider.FetchRate(ctx, base, target)
		if err != nil {
			lastErr = err
			uc.countLookup(provider.Name(), "error")
			uc.logger.Warn().Err(err).
				Str("provider", provider.Name()).
				Str("base", base).
				Str("target", target).
				Msg("rate provider failed, trying next")

			continue
		}

		if !rate.Mid.IsPositive() {
			lastErr = fmt.Errorf("provider %s returned non-positive rate", provider.Name())
			uc.countLookup(provider.Name(), "error")

			continue
		}

		rate.Provider = provider.Name()
		rate.FetchedAt = time.Now().UTC()
		rate.ApplySpread(uc.spread)
		uc.countLookup(provider.Name(), "ok")

		return rate, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRateUnavailable, lastErr)
	}

	return nil, domain.ErrRateUnavailable
}

func (uc *RateUseCase) countLookup(source, outcome string) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.RateLookups.WithLabelValues(source, outcome).Inc()
}
