package domain

import "time"

// HoldStatus is the lifecycle state of a hold.
type HoldStatus string

const (
	HoldStatusActive   HoldStatus = "active"
	HoldStatusVoided   HoldStatus = "voided"
	HoldStatusCaptured HoldStatus = "captured"
)

// Hold reserves part of an account's available balance as pending funds
// until it is captured into a transfer or voided.
type Hold struct {
	ID          string
	AccountID   string
	AmountMinor int64
	Status      HoldStatus
	ExpiresAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the hold amount.
func (h *Hold) Validate() error {
	if h.AmountMinor <= 0 {
		return ErrInvalidAmount
	}

	return nil
}
