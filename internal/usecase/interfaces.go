package usecase

import (
	"context"
	"time"

	"github.com/crosspay/ledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByOwnerAndCurrency(ctx context.Context, ownerID, currency string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	// EnsureClearingAccount creates the per-currency system account if it
	// does not exist yet. Safe to call concurrently inside a transaction.
	EnsureClearingAccount(ctx context.Context, tx Transaction, id, currency string) error
	// UpdateBalances writes available/pending with a version check and
	// returns domain.ErrOptimisticConflict when the version moved.
	UpdateBalances(ctx context.Context, tx Transaction, id string, availableMinor, pendingMinor, expectedVersion int64, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, expectedVersion int64, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error)
}

// JournalRepository defines data access for immutable journal entries.
// There is intentionally no update or delete.
type JournalRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.JournalEntry) error
	GetByPostingGroup(ctx context.Context, groupID string) ([]*domain.JournalEntry, error)
	// GetByAccount returns entries newest-first, created at or after since.
	GetByAccount(ctx context.Context, accountID string, since time.Time, limit, offset int) ([]*domain.JournalEntry, error)
	// ReplayBalance recomputes an account's balance from its full entry
	// history. Used by reconciliation.
	ReplayBalance(ctx context.Context, accountID string) (int64, error)
	BalanceAt(ctx context.Context, accountID string, at time.Time) (int64, error)
}

// TransferRepository defines data access for transfer records.
type TransferRepository interface {
	// Create inserts an orchestration record. A duplicate idempotency key
	// surfaces as domain.ErrIdempotencyKeyTaken.
	Create(ctx context.Context, tx Transaction, transfer *domain.Transfer) error
	// CreateStandalone inserts outside any caller transaction (terminal
	// FAILED records written after a rollback).
	CreateStandalone(ctx context.Context, transfer *domain.Transfer) error
	GetByID(ctx context.Context, id string) (*domain.Transfer, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transfer, error)
	// Finalize records the terminal outcome of a posting attempt.
	Finalize(ctx context.Context, tx Transaction, transfer *domain.Transfer) error
	UpdateStatus(ctx context.Context, tx Transaction, id string, from, to domain.TransferStatus, completedAt time.Time) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error)
	// ListFXConvertsByOwner returns posted FX conversions oldest-first,
	// for position rebuilds.
	ListFXConvertsByOwner(ctx context.Context, ownerID string) ([]*domain.Transfer, error)
}

// PositionRepository defines data access for FX positions.
type PositionRepository interface {
	Get(ctx context.Context, ownerID, currency string) (*domain.FXPosition, error)
	GetForUpdate(ctx context.Context, tx Transaction, ownerID, currency string) (*domain.FXPosition, error)
	Upsert(ctx context.Context, tx Transaction, position *domain.FXPosition) error
	// MarkTransferApplied records that the transfer's position delta has
	// been folded in. Returns false when the transfer was recorded before,
	// so outbox redelivery cannot double-apply. The marker commits or rolls
	// back with the position upsert in the same transaction.
	MarkTransferApplied(ctx context.Context, tx Transaction, transferID string) (bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.FXPosition, error)
	DeleteByOwner(ctx context.Context, tx Transaction, ownerID string) error
}

// HoldRepository defines data access for holds.
type HoldRepository interface {
	Create(ctx context.Context, tx Transaction, hold *domain.Hold) error
	GetByID(ctx context.Context, id string) (*domain.Hold, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Hold, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.HoldStatus, updatedAt time.Time) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Hold, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// LedgerRepository defines ledger-wide aggregate queries.
type LedgerRepository interface {
	// ConservationByCurrency returns, per currency, the total debit and
	// credit minor amounts over the full journal history.
	ConservationByCurrency(ctx context.Context) (map[string]DebitCredit, error)
}

// DebitCredit is a per-currency conservation aggregate.
type DebitCredit struct {
	DebitMinor  int64
	CreditMinor int64
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier retries an operation on transient storage conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// RateProvider fetches a rate from one upstream source.
type RateProvider interface {
	Name() string
	FetchRate(ctx context.Context, base, target string) (*domain.ExchangeRate, error)
}

// RateCache is the short-TTL exchange rate cache.
type RateCache interface {
	Get(ctx context.Context, base, target string) (*domain.ExchangeRate, error)
	Set(ctx context.Context, rate *domain.ExchangeRate, ttl time.Duration) error
}

// IdempotencyStore caches HTTP responses for idempotent replay at the
// transport edge. The durable idempotency guarantee lives in the
// transfers table, not here.
type IdempotencyStore interface {
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

// AuditPublisher delivers audit events to the compliance collaborators.
// Delivery is best effort; failures are logged, never propagated into
// money movement.
type AuditPublisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}
