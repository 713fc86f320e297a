package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is a short-lived cached fact about an FX pair. It is never
// referenced by the journal; settled conversions snapshot their own rate
// onto the Transfer record.
type ExchangeRate struct {
	Base      string          `json:"base"`
	Target    string          `json:"target"`
	Mid       decimal.Decimal `json:"mid"`
	Bid       decimal.Decimal `json:"bid"`
	Ask       decimal.Decimal `json:"ask"`
	Spread    decimal.Decimal `json:"spread"`
	Provider  string          `json:"provider"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// IdentityRate is the rate for converting a currency into itself.
func IdentityRate(currency string) *ExchangeRate {
	one := decimal.NewFromInt(1)

	return &ExchangeRate{
		Base:      currency,
		Target:    currency,
		Mid:       one,
		Bid:       one,
		Ask:       one,
		Spread:    decimal.Zero,
		Provider:  "identity",
		FetchedAt: time.Now().UTC(),
	}
}

// ApplySpread derives bid/ask from the mid rate and a symmetric spread.
func (r *ExchangeRate) ApplySpread(spread decimal.Decimal) {
	half := spread.Div(decimal.NewFromInt(2))
	one := decimal.NewFromInt(1)

	r.Spread = spread
	r.Bid = r.Mid.Mul(one.Sub(half))
	r.Ask = r.Mid.Mul(one.Add(half))
}

// Stale reports whether the rate is older than the given TTL.
func (r *ExchangeRate) Stale(ttl time.Duration, now time.Time) bool {
	return now.Sub(r.FetchedAt) > ttl
}
