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

// PositionRepository implements usecase.PositionRepository.
type PositionRepository struct {
	pool *pgxpool.Pool
}

// NewPositionRepository creates a new PositionRepository.
func NewPositionRepository(pool *pgxpool.Pool) *PositionRepository {
	return &PositionRepository{pool: pool}
}

const positionColumns = `owner_id, currency, net_minor, base_value_minor, average_rate,
	realized_pnl_minor, updated_at`

// Get retrieves one position.
func (r *PositionRepository) Get(ctx context.Context, ownerID, currency string) (*domain.FXPosition, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+positionColumns+` FROM fx_positions
		WHERE owner_id = $1 AND currency = $2`, ownerID, currency)

	return scanPosition(row)
}

// GetForUpdate retrieves one position with a FOR UPDATE lock.
func (r *PositionRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, ownerID, currency string) (*domain.FXPosition, error) {
	row := inTx(tx).QueryRow(ctx, `
		SELECT `+positionColumns+` FROM fx_positions
		WHERE owner_id = $1 AND currency = $2
		FOR UPDATE`, ownerID, currency)

	return scanPosition(row)
}

// Upsert writes the position, inserting on first use.
func (r *PositionRepository) Upsert(ctx context.Context, tx usecase.Transaction, position *domain.FXPosition) error {
	_, err := inTx(tx).Exec(ctx, `
		INSERT INTO fx_positions (`+positionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner_id, currency) DO UPDATE
		SET net_minor = EXCLUDED.net_minor,
		    base_value_minor = EXCLUDED.base_value_minor,
		    average_rate = EXCLUDED.average_rate,
		    realized_pnl_minor = EXCLUDED.realized_pnl_minor,
		    updated_at = EXCLUDED.updated_at`,
		position.OwnerID, position.Currency, position.NetMinor, position.BaseValueMinor,
		decimalToNumeric(position.AverageRate), position.RealizedPnLMinor,
		timeToPgTimestamptz(position.UpdatedAt),
	)

	return err
}

// MarkTransferApplied inserts the transfer into the applied ledger.
// A conflict means a previous delivery already committed the delta.
func (r *PositionRepository) MarkTransferApplied(ctx context.Context, tx usecase.Transaction, transferID string) (bool, error) {
	tag, err := inTx(tx).Exec(ctx, `
		INSERT INTO fx_position_applied (transfer_id)
		VALUES ($1)
		ON CONFLICT (transfer_id) DO NOTHING`, transferID)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// ListByOwner lists all of an owner's positions.
func (r *PositionRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.FXPosition, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+positionColumns+` FROM fx_positions
		WHERE owner_id = $1
		ORDER BY currency`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*domain.FXPosition

	for rows.Next() {
		position, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}

		positions = append(positions, position)
	}

	return positions, rows.Err()
}

// DeleteByOwner removes the owner's positions ahead of a rebuild.
func (r *PositionRepository) DeleteByOwner(ctx context.Context, tx usecase.Transaction, ownerID string) error {
	_, err := inTx(tx).Exec(ctx, `DELETE FROM fx_positions WHERE owner_id = $1`, ownerID)

	return err
}

func scanPosition(row pgx.Row) (*domain.FXPosition, error) {
	var (
		p         domain.FXPosition
		rate      pgtype.Numeric
		updatedAt time.Time
	)

	err := row.Scan(&p.OwnerID, &p.Currency, &p.NetMinor, &p.BaseValueMinor,
		&rate, &p.RealizedPnLMinor, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPositionNotFound
		}

		return nil, err
	}

	p.AverageRate = numericToDecimal(rate)
	p.UpdatedAt = updatedAt

	return &p, nil
}
