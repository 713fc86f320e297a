package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/crosspay/ledger/internal/domain"
)

// JournalEngine applies balanced posting groups to the ledger store as a
// single atomic unit. It owns the conservation law and the per-account
// balance invariants; it never commits the surrounding transaction.
type JournalEngine struct {
	accountRepo AccountRepository
	journalRepo JournalRepository
	idGen       IDGenerator
	logger      zerolog.Logger
}

// NewJournalEngine creates a JournalEngine.
func NewJournalEngine(
	accountRepo AccountRepository,
	journalRepo JournalRepository,
	idGen IDGenerator,
	logger zerolog.Logger,
) *JournalEngine {
	return &JournalEngine{
		accountRepo: accountRepo,
		journalRepo: journalRepo,
		idGen:       idGen,
		logger:      logger,
	}
}

// Post validates and applies a posting group inside the caller's
// transaction. All balance deltas and journal entries are written, or
// nothing is. Accounts are locked in sorted ID order so concurrent
// groups touching overlapping account sets cannot deadlock.
func (e *JournalEngine) Post(ctx context.Context, tx Transaction, group domain.PostingGroup) ([]*domain.JournalEntry, error) {
	if err := group.Validate(); err != nil {
		if domain.KindOf(err) == domain.KindIntegrity {
			// A caller built an unbalanced group: conservation-law
			// violation, a programming defect rather than bad input.
			e.logger.Error().
				Str("posting_group_id", group.ID).
				Err(err).
				Msg("unbalanced posting group rejected")
		}

		return nil, err
	}

	accountIDs := group.AccountIDs()
	sort.Strings(accountIDs)

	accounts, err := e.accountRepo.GetByIDsForUpdate(ctx, tx, accountIDs)
	if err != nil {
		return nil, err
	}

	if len(accounts) != len(accountIDs) {
		return nil, domain.ErrAccountNotFound
	}

	accountMap := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		accountMap[a.ID] = a
	}

	// Validate every leg against lifecycle and funds policy before any
	// write. Deltas are applied to scratch copies so a group with two
	// debits against one account is checked cumulatively.
	scratch := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		cp := *a
		scratch[a.ID] = &cp
	}

	for _, leg := range group.Legs {
		account := scratch[leg.AccountID]

		if account.Currency != leg.Amount.Currency {
			return nil, fmt.Errorf("%w: account %s holds %s, leg is %s",
				domain.ErrCurrencyMismatch, account.ID, account.Currency, leg.Amount.Currency)
		}

		switch leg.Direction {
		case domain.DirectionDebit:
			if err := account.ValidateDebit(leg.Amount.AmountMinor); err != nil {
				return nil, err
			}

			account.AvailableMinor = account.ApplyDebit(leg.Amount.AmountMinor)
		case domain.DirectionCredit:
			if err := account.ValidateCredit(leg.Amount.AmountMinor); err != nil {
				return nil, err
			}

			account.AvailableMinor = account.ApplyCredit(leg.Amount.AmountMinor)
		}
	}

	now := time.Now().UTC()

	// The account version advances once per posting group, regardless of
	// how many legs touch the account. Entries record the version the
	// account will hold after this group commits.
	loadedVersion := make(map[string]int64, len(accounts))
	for _, a := range accounts {
		loadedVersion[a.ID] = a.Version
	}

	entries := make([]*domain.JournalEntry, 0, len(group.Legs))
	touched := make(map[string]bool, len(accountIDs))

	for _, leg := range group.Legs {
		account := accountMap[leg.AccountID]

		entry := &domain.JournalEntry{
			ID:             e.idGen.Generate(),
			PostingGroupID: group.ID,
			AccountID:      account.ID,
			Direction:      leg.Direction,
			Amount:         leg.Amount,
			AccountVersion: loadedVersion[account.ID] + 1,
			IdempotencyKey: group.IdempotencyKey,
			CreatedAt:      now,
		}

		account.AvailableMinor += entry.SignedMinor()
		entry.BalanceAfterMinor = account.CurrentMinor()

		if err := e.journalRepo.Create(ctx, tx, entry); err != nil {
			return nil, err
		}

		entries = append(entries, entry)
		touched[account.ID] = true
	}

	for _, id := range accountIDs {
		if !touched[id] {
			continue
		}

		account := accountMap[id]
		if err := e.accountRepo.UpdateBalances(ctx, tx, account.ID,
			account.AvailableMinor, account.PendingMinor, loadedVersion[id], now); err != nil {
			return nil, err
		}
	}

	return entries, nil
}
