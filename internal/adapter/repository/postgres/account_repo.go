package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, owner_id, currency, kind, available_minor, pending_minor,
	credit_limit_minor, status, version, created_at, updated_at`

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		account.ID, account.OwnerID, account.Currency, string(account.Kind),
		account.AvailableMinor, account.PendingMinor, account.CreditLimitMinor,
		string(account.Status), account.Version,
		timeToPgTimestamptz(account.CreatedAt), timeToPgTimestamptz(account.UpdatedAt),
	)

	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)

	return scanAccount(row)
}

// GetByOwnerAndCurrency retrieves an owner's wallet in one currency.
func (r *AccountRepository) GetByOwnerAndCurrency(ctx context.Context, ownerID, currency string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE owner_id = $1 AND currency = $2 AND kind = $3`,
		ownerID, currency, string(domain.AccountKindWallet))

	return scanAccount(row)
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	row := inTx(tx).QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)

	return scanAccount(row)
}

// GetByIDsForUpdate locks multiple accounts. The ORDER BY id matches the
// sorted lock order callers rely on to avoid deadlocks.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	rows, err := inTx(tx).Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAccounts(rows)
}

// EnsureClearingAccount creates the per-currency system account if it
// does not exist yet.
func (r *AccountRepository) EnsureClearingAccount(ctx context.Context, tx usecase.Transaction, id, currency string) error {
	now := time.Now().UTC()

	_, err := inTx(tx).Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, 0, 0, 0, $5, 0, $6, $6)
		ON CONFLICT (id) DO NOTHING`,
		id, domain.SystemOwnerID, currency, string(domain.AccountKindClearing),
		string(domain.AccountStatusActive), timeToPgTimestamptz(now),
	)

	return err
}

// UpdateBalances writes the balances with a version check. A version
// that moved since the read surfaces as ErrOptimisticConflict.
func (r *AccountRepository) UpdateBalances(ctx context.Context, tx usecase.Transaction, id string, availableMinor, pendingMinor, expectedVersion int64, updatedAt time.Time) error {
	tag, err := inTx(tx).Exec(ctx, `
		UPDATE accounts
		SET available_minor = $2, pending_minor = $3, version = version + 1, updated_at = $4
		WHERE id = $1 AND version = $5`,
		id, availableMinor, pendingMinor, timeToPgTimestamptz(updatedAt), expectedVersion,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrOptimisticConflict
	}

	return nil
}

// UpdateStatus changes the lifecycle status with a version check.
func (r *AccountRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, expectedVersion int64, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET status = $2, version = version + 1, updated_at = $3
		WHERE id = $1 AND version = $4`,
		id, string(status), timeToPgTimestamptz(updatedAt), expectedVersion,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrOptimisticConflict
	}

	return nil
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAccounts(rows)
}

// ListByOwner lists every account belonging to one owner.
func (r *AccountRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE owner_id = $1
		ORDER BY currency, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAccounts(rows)
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a                    domain.Account
		kind, status         string
		createdAt, updatedAt time.Time
	)

	err := row.Scan(&a.ID, &a.OwnerID, &a.Currency, &kind, &a.AvailableMinor,
		&a.PendingMinor, &a.CreditLimitMinor, &status, &a.Version, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	a.Kind = domain.AccountKind(kind)
	a.Status = domain.AccountStatus(status)
	a.CreatedAt = createdAt
	a.UpdatedAt = updatedAt

	return &a, nil
}

func scanAccounts(rows pgx.Rows) ([]*domain.Account, error) {
	var accounts []*domain.Account

	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}
