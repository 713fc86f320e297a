package domain

import (
	"fmt"
	"time"
)

// Direction of a journal entry.
type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// JournalEntry is one immutable leg of a posting group. Rows are
// append-only: corrections post reversing entries, never mutate history.
type JournalEntry struct {
	ID                string
	PostingGroupID    string
	AccountID         string
	Direction         Direction
	Amount            Money
	BalanceAfterMinor int64
	AccountVersion    int64
	IdempotencyKey    string
	CreatedAt         time.Time
}

// SignedMinor returns the balance delta the entry applies to its account:
// credits increase the balance, debits decrease it.
func (e *JournalEntry) SignedMinor() int64 {
	if e.Direction == DirectionDebit {
		return -e.Amount.AmountMinor
	}

	return e.Amount.AmountMinor
}

// PostingLeg is one requested debit or credit within a posting group.
type PostingLeg struct {
	AccountID string
	Direction Direction
	Amount    Money
}

// PostingGroup is the set of legs written atomically for one economic
// event. It must balance to zero per currency.
type PostingGroup struct {
	ID             string
	IdempotencyKey string
	Legs           []PostingLeg
}

// Validate enforces the double-entry conservation law: for every currency
// in the group, the sum of debits equals the sum of credits. A
// multi-currency group (an FX pair) must balance independently per
// currency.
func (g *PostingGroup) Validate() error {
	if len(g.Legs) == 0 {
		return ErrEmptyPostingGroup
	}

	net := make(map[string]int64)

	for _, leg := range g.Legs {
		if err := leg.Amount.Validate(); err != nil {
			return err
		}

		switch leg.Direction {
		case DirectionDebit:
			net[leg.Amount.Currency] -= leg.Amount.AmountMinor
		case DirectionCredit:
			net[leg.Amount.Currency] += leg.Amount.AmountMinor
		default:
			return fmt.Errorf("%w: unknown direction %q", ErrUnbalancedPosting, leg.Direction)
		}
	}

	for currency, sum := range net {
		if sum != 0 {
			return fmt.Errorf("%w: %s nets to %d", ErrUnbalancedPosting, currency, sum)
		}
	}

	return nil
}

// AccountIDs returns the distinct account IDs the group touches.
func (g *PostingGroup) AccountIDs() []string {
	seen := make(map[string]bool, len(g.Legs))

	var ids []string
	for _, leg := range g.Legs {
		if !seen[leg.AccountID] {
			seen[leg.AccountID] = true
			ids = append(ids, leg.AccountID)
		}
	}

	return ids
}
