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

// TransferRepository implements usecase.TransferRepository. The UNIQUE
// constraint on idempotency_key is the durable idempotency guarantee.
type TransferRepository struct {
	pool *pgxpool.Pool
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{pool: pool}
}

const transferColumns = `id, idempotency_key, kind, owner_id, from_account_id, to_account_id,
	requested_minor, requested_currency, settled_minor, settled_currency, rate, fee,
	status, posting_group_id, reverses_id, fingerprint, failure_reason, created_at, completed_at`

// Create inserts an orchestration record inside the caller's
// transaction.
func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	return r.insert(ctx, inTx(tx), transfer)
}

// CreateStandalone inserts outside any caller transaction, for terminal
// FAILED records written after a rollback.
func (r *TransferRepository) CreateStandalone(ctx context.Context, transfer *domain.Transfer) error {
	return r.insert(ctx, r.pool, transfer)
}

func (r *TransferRepository) insert(ctx context.Context, q querier, transfer *domain.Transfer) error {
	var (
		settledMinor    *int64
		settledCurrency *string
		rate, fee       pgtype.Numeric
	)

	if transfer.Settled != nil {
		settledMinor = &transfer.Settled.AmountMinor
		settledCurrency = &transfer.Settled.Currency
	}

	if transfer.Rate != nil {
		rate = decimalToNumeric(*transfer.Rate)
	}

	if transfer.Fee != nil {
		fee = decimalToNumeric(*transfer.Fee)
	}

	_, err := q.Exec(ctx, `
		INSERT INTO transfers (`+transferColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		transfer.ID, transfer.IdempotencyKey, string(transfer.Kind), transfer.OwnerID,
		transfer.FromAccountID, transfer.ToAccountID,
		transfer.Requested.AmountMinor, transfer.Requested.Currency,
		settledMinor, settledCurrency, rate, fee,
		string(transfer.Status), transfer.PostingGroupID, transfer.ReversesID,
		transfer.Fingerprint, transfer.FailureReason,
		timeToPgTimestamptz(transfer.CreatedAt), ptrToPgTimestamptz(transfer.CompletedAt),
	)
	if isUniqueViolation(err, "transfers_idempotency_key_key") {
		return domain.ErrIdempotencyKeyTaken
	}

	return err
}

// GetByID retrieves a transfer by ID.
func (r *TransferRepository) GetByID(ctx context.Context, id string) (*domain.Transfer, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+transferColumns+` FROM transfers WHERE id = $1`, id)

	return scanTransfer(row)
}

// GetByIdempotencyKey retrieves a transfer by its idempotency key.
func (r *TransferRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transfer, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+transferColumns+` FROM transfers WHERE idempotency_key = $1`, key)

	return scanTransfer(row)
}

// Finalize records the terminal outcome of a posting attempt.
func (r *TransferRepository) Finalize(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	var (
		settledMinor    *int64
		settledCurrency *string
	)

	if transfer.Settled != nil {
		settledMinor = &transfer.Settled.AmountMinor
		settledCurrency = &transfer.Settled.Currency
	}

	_, err := inTx(tx).Exec(ctx, `
		UPDATE transfers
		SET status = $2, posting_group_id = $3, settled_minor = $4, settled_currency = $5,
		    failure_reason = $6, completed_at = $7
		WHERE id = $1`,
		transfer.ID, string(transfer.Status), transfer.PostingGroupID,
		settledMinor, settledCurrency, transfer.FailureReason,
		ptrToPgTimestamptz(transfer.CompletedAt),
	)

	return err
}

// UpdateStatus applies a guarded state transition.
func (r *TransferRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, from, to domain.TransferStatus, completedAt time.Time) error {
	tag, err := inTx(tx).Exec(ctx, `
		UPDATE transfers
		SET status = $2, completed_at = $3
		WHERE id = $1 AND status = $4`,
		id, string(to), timeToPgTimestamptz(completedAt), string(from),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidStatusChange
	}

	return nil
}

// ListByAccount lists transfers touching an account, newest-first.
func (r *TransferRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transferColumns+` FROM transfers
		WHERE from_account_id = $1 OR to_account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransfers(rows)
}

// ListFXConvertsByOwner returns the owner's posted conversions
// oldest-first, for position rebuilds.
func (r *TransferRepository) ListFXConvertsByOwner(ctx context.Context, ownerID string) ([]*domain.Transfer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transferColumns+` FROM transfers
		WHERE owner_id = $1
		  AND settled_minor IS NOT NULL
		  AND status IN ('posted', 'reversed')
		ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransfers(rows)
}

func scanTransfer(row pgx.Row) (*domain.Transfer, error) {
	var (
		t               domain.Transfer
		kind, status    string
		settledMinor    *int64
		settledCurrency *string
		rate, fee       pgtype.Numeric
		createdAt       time.Time
		completedAt     pgtype.Timestamptz
	)

	err := row.Scan(&t.ID, &t.IdempotencyKey, &kind, &t.OwnerID,
		&t.FromAccountID, &t.ToAccountID,
		&t.Requested.AmountMinor, &t.Requested.Currency,
		&settledMinor, &settledCurrency, &rate, &fee,
		&status, &t.PostingGroupID, &t.ReversesID,
		&t.Fingerprint, &t.FailureReason, &createdAt, &completedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransferNotFound
		}

		return nil, err
	}

	t.Kind = domain.TransferKind(kind)
	t.Status = domain.TransferStatus(status)
	t.CreatedAt = createdAt
	t.CompletedAt = pgTimestamptzToPtr(completedAt)

	if settledMinor != nil && settledCurrency != nil {
		settled := domain.NewMoney(*settledMinor, *settledCurrency)
		t.Settled = &settled
	}

	if rate.Valid {
		d := numericToDecimal(rate)
		t.Rate = &d
	}

	if fee.Valid {
		d := numericToDecimal(fee)
		t.Fee = &d
	}

	return &t, nil
}

func scanTransfers(rows pgx.Rows) ([]*domain.Transfer, error) {
	var transfers []*domain.Transfer

	for rows.Next() {
		transfer, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}

		transfers = append(transfers, transfer)
	}

	return transfers, rows.Err()
}
