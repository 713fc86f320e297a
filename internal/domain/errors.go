package domain

import "errors"

// Kind classifies a domain error so callers can decide whether to retry,
// back off, or treat the failure as a defect.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation covers bad input rejected before any I/O.
	KindValidation
	// KindPolicy covers postings rejected inside the atomic commit
	// (insufficient funds, frozen account). No partial effect.
	KindPolicy
	// KindConcurrency means the whole attempt should be retried.
	KindConcurrency
	// KindIntegrity signals a conservation-law violation. Non-retryable.
	KindIntegrity
	// KindDependency covers unavailable collaborators (FX provider).
	KindDependency
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPolicy:
		return "policy"
	case KindConcurrency:
		return "concurrency"
	case KindIntegrity:
		return "integrity"
	case KindDependency:
		return "dependency"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is a sentinel domain error with a classification.
type Error struct {
	kind Kind
	msg  string
}

func newError(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Kind returns the error classification.
func (e *Error) Kind() Kind { return e.kind }

var (
	// Validation errors
	ErrInvalidAmount       = newError(KindValidation, "amount must be positive")
	ErrCurrencyMismatch    = newError(KindValidation, "currency mismatch")
	ErrInvalidCurrency     = newError(KindValidation, "invalid currency code")
	ErrSameAccount         = newError(KindValidation, "cannot transfer to same account")
	ErrMissingIdempotency  = newError(KindValidation, "idempotency key is required")
	ErrAmountTooLarge      = newError(KindValidation, "amount exceeds maximum allowed")
	ErrEmptyPostingGroup   = newError(KindValidation, "posting group has no legs")
	ErrInvalidStatusChange = newError(KindValidation, "invalid status transition")

	// Policy errors
	ErrInsufficientFunds = newError(KindPolicy, "insufficient funds")
	ErrAccountFrozen     = newError(KindPolicy, "account is frozen")
	ErrAccountClosed     = newError(KindPolicy, "account is closed")
	ErrAccountNotActive  = newError(KindPolicy, "account is not active")
	ErrTransferNotPosted = newError(KindPolicy, "transfer is not in posted state")
	ErrAlreadyReversed   = newError(KindPolicy, "transfer has already been reversed")
	ErrBalanceNotZero    = newError(KindPolicy, "account balance must be zero")
	ErrHoldNotActive     = newError(KindPolicy, "hold is not active")

	// Concurrency errors
	ErrOptimisticConflict = newError(KindConcurrency, "account version conflict")

	// Integrity errors
	ErrUnbalancedPosting = newError(KindIntegrity, "posting group does not balance to zero")

	// Dependency errors
	ErrRateUnavailable = newError(KindDependency, "exchange rate unavailable")

	// Not-found errors
	ErrAccountNotFound  = newError(KindNotFound, "account not found")
	ErrTransferNotFound = newError(KindNotFound, "transfer not found")
	ErrPositionNotFound = newError(KindNotFound, "fx position not found")
	ErrHoldNotFound     = newError(KindNotFound, "hold not found")

	// Conflict errors
	ErrIdempotencyKeyConflict = newError(KindConflict, "idempotency key reused with different parameters")
	ErrIdempotencyKeyTaken    = newError(KindConflict, "idempotency key already exists")
)

// KindOf extracts the classification from an error chain.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.kind
	}

	return KindUnknown
}
