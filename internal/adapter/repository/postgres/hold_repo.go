package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/usecase"
)

// HoldRepository implements usecase.HoldRepository.
type HoldRepository struct {
	pool *pgxpool.Pool
}

// NewHoldRepository creates a new HoldRepository.
func NewHoldRepository(pool *pgxpool.Pool) *HoldRepository {
	return &HoldRepository{pool: pool}
}

const holdColumns = `id, account_id, amount_minor, status, expires_at, created_at, updated_at`

// Create creates a new hold inside the caller's transaction.
func (r *HoldRepository) Create(ctx context.Context, tx usecase.Transaction, hold *domain.Hold) error {
	_, err := inTx(tx).Exec(ctx, `
		INSERT INTO holds (`+holdColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		hold.ID, hold.AccountID, hold.AmountMinor, string(hold.Status),
		ptrToPgTimestamptz(hold.ExpiresAt),
		timeToPgTimestamptz(hold.CreatedAt), timeToPgTimestamptz(hold.UpdatedAt),
	)

	return err
}

// GetByID retrieves a hold by ID.
func (r *HoldRepository) GetByID(ctx context.Context, id string) (*domain.Hold, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+holdColumns+` FROM holds WHERE id = $1`, id)

	return scanHold(row)
}

// GetByIDForUpdate retrieves a hold with a FOR UPDATE lock.
func (r *HoldRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Hold, error) {
	row := inTx(tx).QueryRow(ctx, `
		SELECT `+holdColumns+` FROM holds WHERE id = $1 FOR UPDATE`, id)

	return scanHold(row)
}

// UpdateStatus changes the hold's lifecycle status.
func (r *HoldRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.HoldStatus, updatedAt time.Time) error {
	tag, err := inTx(tx).Exec(ctx, `
		UPDATE holds SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrHoldNotFound
	}

	return nil
}

// ListByAccount lists holds for an account, newest-first.
func (r *HoldRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Hold, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+holdColumns+` FROM holds
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holds []*domain.Hold

	for rows.Next() {
		hold, err := scanHold(rows)
		if err != nil {
			return nil, err
		}

		holds = append(holds, hold)
	}

	return holds, rows.Err()
}

func scanHold(row pgx.Row) (*domain.Hold, error) {
	var (
		h                    domain.Hold
		status               string
		expiresAt            pgtype.Timestamptz
		createdAt, updatedAt time.Time
	)

	err := row.Scan(&h.ID, &h.AccountID, &h.AmountMinor, &status,
		&expiresAt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrHoldNotFound
		}

		return nil, err
	}

	h.Status = domain.HoldStatus(status)
	h.ExpiresAt = pgTimestamptzToPtr(expiresAt)
	h.CreatedAt = createdAt
	h.UpdatedAt = updatedAt

	return &h, nil
}
