package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FXPosition is a user's net holding in a non-base currency, maintained
// with the weighted-average-cost method. It is a derived read model:
// the journal is the source of truth and the position can be rebuilt by
// replaying FX conversions.
type FXPosition struct {
	OwnerID          string
	Currency         string
	NetMinor         int64
	BaseValueMinor   int64
	AverageRate      decimal.Decimal
	RealizedPnLMinor int64
	UpdatedAt        time.Time
}

// NewFXPosition returns an empty position for the pair.
func NewFXPosition(ownerID, currency string) *FXPosition {
	return &FXPosition{
		OwnerID:     ownerID,
		Currency:    currency,
		AverageRate: decimal.Zero,
	}
}

// ApplyConversion folds one settled conversion into the position.
// deltaMinor is the signed change of the holding in the position's
// currency (positive when the owner acquired the currency); rate is the
// settlement rate into the base currency.
//
// Growing in the same direction re-weights the average rate. Reducing
// realizes P&L on the closed amount at (rate - average); crossing zero
// re-opens the remainder at the settlement rate.
func (p *FXPosition) ApplyConversion(deltaMinor int64, rate decimal.Decimal, now time.Time) {
	if deltaMinor == 0 {
		return
	}

	defer func() {
		p.BaseValueMinor = RoundHalfUp(decimal.NewFromInt(abs64(p.NetMinor)).Mul(p.AverageRate))
		p.UpdatedAt = now
	}()

	if p.NetMinor == 0 || sameSign(p.NetMinor, deltaMinor) {
		oldAbs := decimal.NewFromInt(abs64(p.NetMinor))
		deltaAbs := decimal.NewFromInt(abs64(deltaMinor))
		newAbs := oldAbs.Add(deltaAbs)

		p.AverageRate = oldAbs.Mul(p.AverageRate).
			Add(deltaAbs.Mul(rate)).
			Div(newAbs)
		p.NetMinor += deltaMinor

		return
	}

	closed := min64(abs64(deltaMinor), abs64(p.NetMinor))
	p.RealizedPnLMinor += realizedMinor(closed, p.NetMinor, rate, p.AverageRate)
	p.NetMinor += deltaMinor

	switch {
	case p.NetMinor == 0:
		p.AverageRate = decimal.Zero
	case !sameSign(p.NetMinor, p.NetMinor-deltaMinor):
		// Position flipped sign: remainder opens at the settlement rate.
		p.AverageRate = rate
	}
}

// UnrealizedPnLMinor values the open position at a mark rate.
func (p *FXPosition) UnrealizedPnLMinor(markRate decimal.Decimal) int64 {
	if p.NetMinor == 0 {
		return 0
	}

	return realizedMinor(abs64(p.NetMinor), p.NetMinor, markRate, p.AverageRate)
}

// realizedMinor computes closed * (rate - avg) with the sign of the
// position being reduced, rounded half-up to base-currency minor units.
func realizedMinor(closedAbs, netMinor int64, rate, avg decimal.Decimal) int64 {
	pnl := decimal.NewFromInt(closedAbs).Mul(rate.Sub(avg))
	if netMinor < 0 {
		pnl = pnl.Neg()
	}

	return RoundHalfUp(pnl)
}

func sameSign(a, b int64) bool {
	return (a > 0) == (b > 0)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}

	return v
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}

	return b
}
