package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/usecase"
)

// JournalRepository implements usecase.JournalRepository. The table is
// append-only; there are no UPDATE or DELETE statements here on purpose.
type JournalRepository struct {
	pool *pgxpool.Pool
}

// NewJournalRepository creates a new JournalRepository.
func NewJournalRepository(pool *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{pool: pool}
}

const journalColumns = `id, posting_group_id, account_id, direction, amount_minor, currency,
	balance_after_minor, account_version, idempotency_key, created_at`

// Create appends one journal entry inside the caller's transaction.
func (r *JournalRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	_, err := inTx(tx).Exec(ctx, `
		INSERT INTO journal_entries (`+journalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, entry.PostingGroupID, entry.AccountID, string(entry.Direction),
		entry.Amount.AmountMinor, entry.Amount.Currency, entry.BalanceAfterMinor,
		entry.AccountVersion, entry.IdempotencyKey, timeToPgTimestamptz(entry.CreatedAt),
	)

	return err
}

// GetByPostingGroup returns the legs of one posting group.
func (r *JournalRepository) GetByPostingGroup(ctx context.Context, groupID string) ([]*domain.JournalEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+journalColumns+` FROM journal_entries
		WHERE posting_group_id = $1
		ORDER BY id`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// GetByAccount returns entries newest-first, created at or after since.
func (r *JournalRepository) GetByAccount(ctx context.Context, accountID string, since time.Time, limit, offset int) ([]*domain.JournalEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+journalColumns+` FROM journal_entries
		WHERE account_id = $1 AND created_at >= $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`,
		accountID, timeToPgTimestamptz(since), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ReplayBalance recomputes the settled balance from the full history.
func (r *JournalRepository) ReplayBalance(ctx context.Context, accountID string) (int64, error) {
	var balance int64

	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE WHEN direction = 'credit' THEN amount_minor ELSE -amount_minor END), 0)
		FROM journal_entries
		WHERE account_id = $1`, accountID).Scan(&balance)

	return balance, err
}

// BalanceAt recomputes the settled balance as of a past instant.
func (r *JournalRepository) BalanceAt(ctx context.Context, accountID string, at time.Time) (int64, error) {
	var balance int64

	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE WHEN direction = 'credit' THEN amount_minor ELSE -amount_minor END), 0)
		FROM journal_entries
		WHERE account_id = $1 AND created_at <= $2`,
		accountID, timeToPgTimestamptz(at)).Scan(&balance)

	return balance, err
}

func scanEntries(rows pgx.Rows) ([]*domain.JournalEntry, error) {
	var entries []*domain.JournalEntry

	for rows.Next() {
		var (
			e         domain.JournalEntry
			direction string
			createdAt time.Time
		)

		err := rows.Scan(&e.ID, &e.PostingGroupID, &e.AccountID, &direction,
			&e.Amount.AmountMinor, &e.Amount.Currency, &e.BalanceAfterMinor,
			&e.AccountVersion, &e.IdempotencyKey, &createdAt)
		if err != nil {
			return nil, err
		}

		e.Direction = domain.Direction(direction)
		e.CreatedAt = createdAt

		entries = append(entries, &e)
	}

	return entries, rows.Err()
}
