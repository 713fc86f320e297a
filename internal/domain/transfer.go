package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransferKind is the type of money movement.
type TransferKind string

const (
	TransferKindDeposit    TransferKind = "deposit"
	TransferKindWithdrawal TransferKind = "withdrawal"
	TransferKindTransfer   TransferKind = "transfer"
	TransferKindFXConvert  TransferKind = "fx_convert"
	TransferKindReversal   TransferKind = "reversal"
)

// TransferStatus is the orchestration state of a transfer.
type TransferStatus string

const (
	TransferStatusInitiated TransferStatus = "initiated"
	TransferStatusPosted    TransferStatus = "posted"
	TransferStatusFailed    TransferStatus = "failed"
	TransferStatusReversed  TransferStatus = "reversed"
)

// transferTransitions is the explicit state machine. FAILED is terminal;
// REVERSED is reached only from POSTED by an explicit compensating
// transfer, never automatically.
var transferTransitions = map[TransferStatus][]TransferStatus{
	TransferStatusInitiated: {TransferStatusPosted, TransferStatusFailed},
	TransferStatusPosted:    {TransferStatusReversed},
	TransferStatusFailed:    {},
	TransferStatusReversed:  {},
}

// CanTransitionTo reports whether the status change is allowed.
func (s TransferStatus) CanTransitionTo(next TransferStatus) bool {
	for _, allowed := range transferTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// IsTerminal reports whether the transfer reached a final outcome.
func (s TransferStatus) IsTerminal() bool {
	return s == TransferStatusPosted || s == TransferStatusFailed || s == TransferStatusReversed
}

// Transfer is the orchestration-level record of one money movement.
// It maps to exactly one posting group on success and owns the
// idempotency contract.
type Transfer struct {
	ID              string
	IdempotencyKey  string
	Kind            TransferKind
	OwnerID         string
	FromAccountID   string
	ToAccountID     string
	Requested       Money
	Settled         *Money
	Rate            *decimal.Decimal
	Fee             *decimal.Decimal
	Status          TransferStatus
	PostingGroupID  string
	ReversesID      *string
	Fingerprint     string
	FailureReason   string
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

// TransferFingerprint hashes the request parameters so a reused
// idempotency key with different parameters can be rejected.
func TransferFingerprint(kind TransferKind, from, to string, requested Money, target string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d|%s|%s",
		kind, from, to, requested.AmountMinor, requested.Currency, target)))

	return hex.EncodeToString(h[:])
}
