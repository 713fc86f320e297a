package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crosspay/ledger/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// ConservationByCurrency sums debits and credits per currency over the
// full journal history.
func (r *LedgerRepository) ConservationByCurrency(ctx context.Context) (map[string]usecase.DebitCredit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT currency,
		       COALESCE(SUM(amount_minor) FILTER (WHERE direction = 'debit'), 0),
		       COALESCE(SUM(amount_minor) FILTER (WHERE direction = 'credit'), 0)
		FROM journal_entries
		GROUP BY currency`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[string]usecase.DebitCredit)

	for rows.Next() {
		var (
			currency string
			dc       usecase.DebitCredit
		)

		if err := rows.Scan(&currency, &dc.DebitMinor, &dc.CreditMinor); err != nil {
			return nil, err
		}

		totals[currency] = dc
	}

	return totals, rows.Err()
}
