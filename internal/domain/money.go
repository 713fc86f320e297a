package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point amount in minor units (e.g. cents) bound to an
// ISO 4217 currency code. All balance arithmetic stays in int64 minor
// units; decimals appear only transiently for rate math.
type Money struct {
	AmountMinor int64
	Currency    string
}

// NewMoney creates a Money value, normalizing the currency code.
func NewMoney(amountMinor int64, currency string) Money {
	return Money{
		AmountMinor: amountMinor,
		Currency:    strings.ToUpper(strings.TrimSpace(currency)),
	}
}

// Valid currency codes (ISO 4217 subset).
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "KRW": true, "SGD": true,
	"NOK": true, "MXN": true, "INR": true, "BRL": true,
	"ZAR": true, "TRY": true, "HKD": true, "PLN": true,
}

// ValidateCurrency validates a currency code.
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s", ErrInvalidCurrency, currency)
	}

	return nil
}

// MaxAmountMinor is the largest single-operation amount accepted.
const MaxAmountMinor int64 = 1_000_000_000_000_00 // 1 trillion major units at 2 dp

// Validate checks the amount is positive, bounded and the currency known.
func (m Money) Validate() error {
	if m.AmountMinor <= 0 {
		return ErrInvalidAmount
	}

	if m.AmountMinor > MaxAmountMinor {
		return ErrAmountTooLarge
	}

	return ValidateCurrency(m.Currency)
}

// Add returns m + other. Currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}

	return Money{AmountMinor: m.AmountMinor + other.AmountMinor, Currency: m.Currency}, nil
}

// Sub returns m - other. Currencies must match.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}

	return Money{AmountMinor: m.AmountMinor - other.AmountMinor, Currency: m.Currency}, nil
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.AmountMinor == 0 }

// Decimal returns the amount in minor units as a decimal, for rate math.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(m.AmountMinor)
}

func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.AmountMinor, m.Currency)
}

// ConvertMinor converts an amount of minor units at the given rate and
// proportional fee. The computation runs in decimal space and rounds
// half-up back to minor units exactly once, so no rounding error
// accumulates across steps.
func ConvertMinor(amountMinor int64, rate, fee decimal.Decimal) int64 {
	gross := decimal.NewFromInt(amountMinor).Mul(rate)
	net := gross.Mul(decimal.NewFromInt(1).Sub(fee))

	return RoundHalfUp(net)
}

// RoundHalfUp rounds a decimal to an integer, halves away from zero.
// This is the single rounding rule used for every conversion.
func RoundHalfUp(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
