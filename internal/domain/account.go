package domain

import (
	"fmt"
	"time"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusPendingApproval AccountStatus = "pending_approval"
	AccountStatusActive          AccountStatus = "active"
	AccountStatusFrozen          AccountStatus = "frozen"
	AccountStatusClosed          AccountStatus = "closed"
)

// accountTransitions is the explicit lifecycle transition table.
// CLOSED is terminal.
var accountTransitions = map[AccountStatus][]AccountStatus{
	AccountStatusPendingApproval: {AccountStatusActive, AccountStatusClosed},
	AccountStatusActive:          {AccountStatusFrozen, AccountStatusClosed},
	AccountStatusFrozen:          {AccountStatusActive, AccountStatusClosed},
	AccountStatusClosed:          {},
}

// CanTransitionTo reports whether the lifecycle change is allowed.
func (s AccountStatus) CanTransitionTo(next AccountStatus) bool {
	for _, allowed := range accountTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// AccountKind distinguishes user wallets from internal clearing accounts.
type AccountKind string

const (
	// AccountKindWallet is an owner-facing account subject to the funds policy.
	AccountKindWallet AccountKind = "wallet"
	// AccountKindClearing is a system counterparty account (external
	// funding, FX clearing). Clearing accounts may go arbitrarily negative.
	AccountKindClearing AccountKind = "clearing"
)

// Account represents a ledger account holding a balance in one currency.
// CurrentMinor is always AvailableMinor + PendingMinor.
type Account struct {
	ID               string
	OwnerID          string
	Currency         string
	Kind             AccountKind
	AvailableMinor   int64
	PendingMinor     int64
	CreditLimitMinor int64
	Status           AccountStatus
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CurrentMinor is the settled balance: available plus pending.
func (a *Account) CurrentMinor() int64 {
	return a.AvailableMinor + a.PendingMinor
}

// ValidateDebit checks the lifecycle and funds policy for a debit.
// FROZEN blocks debits only; a wallet may go negative up to its credit limit.
func (a *Account) ValidateDebit(amountMinor int64) error {
	switch a.Status {
	case AccountStatusActive:
	case AccountStatusFrozen:
		return fmt.Errorf("%w: %s", ErrAccountFrozen, a.ID)
	case AccountStatusClosed:
		return fmt.Errorf("%w: %s", ErrAccountClosed, a.ID)
	default:
		return fmt.Errorf("%w: %s", ErrAccountNotActive, a.ID)
	}

	if a.Kind == AccountKindClearing {
		return nil
	}

	if a.AvailableMinor-amountMinor < -a.CreditLimitMinor {
		return fmt.Errorf("%w: account %s available %d, debit %d, credit limit %d",
			ErrInsufficientFunds, a.ID, a.AvailableMinor, amountMinor, a.CreditLimitMinor)
	}

	return nil
}

// ValidateCredit checks the lifecycle for a credit. Frozen accounts may
// still receive funds.
func (a *Account) ValidateCredit(int64) error {
	switch a.Status {
	case AccountStatusActive, AccountStatusFrozen:
		return nil
	case AccountStatusClosed:
		return fmt.Errorf("%w: %s", ErrAccountClosed, a.ID)
	default:
		return fmt.Errorf("%w: %s", ErrAccountNotActive, a.ID)
	}
}

// ApplyDebit returns the available balance after a debit.
func (a *Account) ApplyDebit(amountMinor int64) int64 {
	return a.AvailableMinor - amountMinor
}

// ApplyCredit returns the available balance after a credit.
func (a *Account) ApplyCredit(amountMinor int64) int64 {
	return a.AvailableMinor + amountMinor
}

// SystemAccountID builds the well-known ID of a per-currency clearing
// account. kind is "funding" or "fx".
func SystemAccountID(kind, currency string) string {
	return "sys:" + kind + ":" + currency
}

// SystemOwnerID owns all clearing accounts.
const SystemOwnerID = "system"
