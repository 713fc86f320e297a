package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// LedgerUseCase runs ledger-wide integrity checks.
type LedgerUseCase struct {
	accountRepo AccountRepository
	journalRepo JournalRepository
	ledgerRepo  LedgerRepository
	logger      zerolog.Logger
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	accountRepo AccountRepository,
	journalRepo JournalRepository,
	ledgerRepo LedgerRepository,
	logger zerolog.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		accountRepo: accountRepo,
		journalRepo: journalRepo,
		ledgerRepo:  ledgerRepo,
		logger:      logger,
	}
}

// CurrencyConsistency is the conservation check result for one currency.
type CurrencyConsistency struct {
	Currency    string
	DebitMinor  int64
	CreditMinor int64
	Consistent  bool
}

// CheckConsistency verifies that total debits equal total credits per
// currency over the full journal history. Any imbalance is a defect, not
// an operational condition.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) ([]CurrencyConsistency, error) {
	totals, err := uc.ledgerRepo.ConservationByCurrency(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]CurrencyConsistency, 0, len(totals))

	for currency, dc := range totals {
		consistent := dc.DebitMinor == dc.CreditMinor
		if !consistent {
			uc.logger.Error().
				Str("currency", currency).
				Int64("debit_minor", dc.DebitMinor).
				Int64("credit_minor", dc.CreditMinor).
				Msg("conservation violation detected")
		}

		results = append(results, CurrencyConsistency{
			Currency:    currency,
			DebitMinor:  dc.DebitMinor,
			CreditMinor: dc.CreditMinor,
			Consistent:  consistent,
		})
	}

	return results, nil
}

// ReconciliationResult compares an account's stored balance against a
// replay of its journal entries.
type ReconciliationResult struct {
	AccountID       string
	RecordedMinor   int64
	CalculatedMinor int64
	DifferenceMinor int64
	Reconciled      bool
	CheckedAt       time.Time
}

// ReconcileAccount replays the account's full entry history and compares
// the result with the stored settled balance.
func (uc *LedgerUseCase) ReconcileAccount(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	calculated, err := uc.journalRepo.ReplayBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}

	recorded := account.CurrentMinor()

	return &ReconciliationResult{
		AccountID:       accountID,
		RecordedMinor:   recorded,
		CalculatedMinor: calculated,
		DifferenceMinor: recorded - calculated,
		Reconciled:      recorded == calculated,
		CheckedAt:       time.Now().UTC(),
	}, nil
}

// ConsistencyReport is a full-ledger integrity report.
type ConsistencyReport struct {
	Currencies         []CurrencyConsistency
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	Consistent         bool
	CheckedAt          time.Time
}

// GenerateReport runs the conservation check and reconciles every
// account.
func (uc *LedgerUseCase) GenerateReport(ctx context.Context) (*ConsistencyReport, error) {
	currencies, err := uc.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	report := &ConsistencyReport{
		Currencies: currencies,
		Consistent: true,
		CheckedAt:  time.Now().UTC(),
	}

	for _, c := range currencies {
		if !c.Consistent {
			report.Consistent = false
		}
	}

	accounts, err := uc.accountRepo.List(ctx, MaxPageSize*100, 0)
	if err != nil {
		return nil, err
	}

	report.TotalAccounts = len(accounts)

	for _, account := range accounts {
		result, err := uc.ReconcileAccount(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reconcile account %s: %w", account.ID, err)
		}

		if result.Reconciled {
			report.ReconciledAccounts++
		} else {
			report.Consistent = false
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	return report, nil
}
