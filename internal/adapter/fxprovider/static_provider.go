package fxprovider

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crosspay/ledger/internal/domain"
)

// StaticProvider serves rates from a fixed in-memory table. Intended
// for development and tests, or as a pinned fallback behind live
// providers.
type StaticProvider struct {
	name  string
	rates map[string]decimal.Decimal
}

// NewStaticProvider creates a provider over a pair table keyed
// "BASE/TARGET". The inverse of each pair is derived when the direct
// quote is absent.
func NewStaticProvider(name string, rates map[string]decimal.Decimal) *StaticProvider {
	return &StaticProvider{name: name, rates: rates}
}

// Name identifies the provider in logs and rate snapshots.
func (p *StaticProvider) Name() string {
	return p.name
}

// FetchRate looks up the pair in the table.
func (p *StaticProvider) FetchRate(_ context.Context, base, target string) (*domain.ExchangeRate, error) {
	mid, ok := p.rates[base+"/"+target]
	if !ok {
		if inverse, found := p.rates[target+"/"+base]; found && inverse.IsPositive() {
			mid = decimal.NewFromInt(1).Div(inverse)
			ok = true
		}
	}

	if !ok {
		return nil, fmt.Errorf("static provider %s: no quote for %s/%s", p.name, base, target)
	}

	return &domain.ExchangeRate{
		Base:      base,
		Target:    target,
		Mid:       mid,
		Provider:  p.name,
		FetchedAt: time.Now().UTC(),
	}, nil
}
