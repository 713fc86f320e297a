package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/infrastructure/metrics"
)

// TransferUseCase is the public money-movement API: deposit, withdraw,
// transfer, FX conversion and explicit reversal, all idempotent and
// retry-safe on top of the JournalEngine.
type TransferUseCase struct {
	txManager    TransactionManager
	retrier      Retrier
	accountRepo  AccountRepository
	transferRepo TransferRepository
	outboxRepo   OutboxRepository
	journal      *JournalEngine
	rates        *RateUseCase
	idGen        IDGenerator
	fxFee        decimal.Decimal
	logger       zerolog.Logger
	metrics      *metrics.Metrics
}

// NewTransferUseCase creates a TransferUseCase. metrics may be nil.
func NewTransferUseCase(
	txManager TransactionManager,
	retrier Retrier,
	accountRepo AccountRepository,
	transferRepo TransferRepository,
	outboxRepo OutboxRepository,
	journal *JournalEngine,
	rates *RateUseCase,
	idGen IDGenerator,
	fxFee decimal.Decimal,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *TransferUseCase {
	return &TransferUseCase{
		txManager:    txManager,
		retrier:      retrier,
		accountRepo:  accountRepo,
		transferRepo: transferRepo,
		outboxRepo:   outboxRepo,
		journal:      journal,
		rates:        rates,
		idGen:        idGen,
		fxFee:        fxFee,
		logger:       logger,
		metrics:      m,
	}
}

// DepositInput funds an account from the external world.
type DepositInput struct {
	AccountID      string
	Amount         domain.Money
	IdempotencyKey string
}

// Deposit credits the account and debits the per-currency external
// funding clearing account in one posting group.
func (uc *TransferUseCase) Deposit(ctx context.Context, input DepositInput) (*domain.Transfer, error) {
	if err := validateRequest(input.Amount, input.IdempotencyKey); err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByID(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}

	if account.Currency != input.Amount.Currency {
		return nil, fmt.Errorf("%w: account %s holds %s", domain.ErrCurrencyMismatch, account.ID, account.Currency)
	}

	clearingID := domain.SystemAccountID("funding", account.Currency)

	transfer := &domain.Transfer{
		ID:             uc.idGen.Generate(),
		IdempotencyKey: input.IdempotencyKey,
		Kind:           domain.TransferKindDeposit,
		OwnerID:        account.OwnerID,
		FromAccountID:  clearingID,
		ToAccountID:    account.ID,
		Requested:      input.Amount,
		Status:         domain.TransferStatusInitiated,
		Fingerprint:    domain.TransferFingerprint(domain.TransferKindDeposit, "", account.ID, input.Amount, ""),
		CreatedAt:      time.Now().UTC(),
	}

	return uc.execute(ctx, transfer, func(ctx context.Context, tx Transaction) (domain.PostingGroup, error) {
		if err := uc.accountRepo.EnsureClearingAccount(ctx, tx, clearingID, account.Currency); err != nil {
			return domain.PostingGroup{}, err
		}

		return domain.PostingGroup{
			ID:             uc.idGen.Generate(),
			IdempotencyKey: input.IdempotencyKey,
			Legs: []domain.PostingLeg{
				{AccountID: clearingID, Direction: domain.DirectionDebit, Amount: input.Amount},
				{AccountID: account.ID, Direction: domain.DirectionCredit, Amount: input.Amount},
			},
		}, nil
	})
}

// WithdrawInput moves funds from an account to the external world.
type WithdrawInput struct {
	AccountID      string
	Amount         domain.Money
	IdempotencyKey string
}

// Withdraw is the mirror of Deposit. Insufficient funds leaves a
// terminal FAILED transfer and writes no journal entries.
func (uc *TransferUseCase) Withdraw(ctx context.Context, input WithdrawInput) (*domain.Transfer, error) {
	if err := validateRequest(input.Amount, input.IdempotencyKey); err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByID(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}

	if account.Currency != input.Amount.Currency {
		return nil, fmt.Errorf("%w: account %s holds %s", domain.ErrCurrencyMismatch, account.ID, account.Currency)
	}

	clearingID := domain.SystemAccountID("funding", account.Currency)

	transfer := &domain.Transfer{
		ID:             uc.idGen.Generate(),
		IdempotencyKey: input.IdempotencyKey,
		Kind:           domain.TransferKindWithdrawal,
		OwnerID:        account.OwnerID,
		FromAccountID:  account.ID,
		ToAccountID:    clearingID,
		Requested:      input.Amount,
		Status:         domain.TransferStatusInitiated,
		Fingerprint:    domain.TransferFingerprint(domain.TransferKindWithdrawal, account.ID, "", input.Amount, ""),
		CreatedAt:      time.Now().UTC(),
	}

	return uc.execute(ctx, transfer, func(ctx context.Context, tx Transaction) (domain.PostingGroup, error) {
		if err := uc.accountRepo.EnsureClearingAccount(ctx, tx, clearingID, account.Currency); err != nil {
			return domain.PostingGroup{}, err
		}

		return domain.PostingGroup{
			ID:             uc.idGen.Generate(),
			IdempotencyKey: input.IdempotencyKey,
			Legs: []domain.PostingLeg{
				{AccountID: account.ID, Direction: domain.DirectionDebit, Amount: input.Amount},
				{AccountID: clearingID, Direction: domain.DirectionCredit, Amount: input.Amount},
			},
		}, nil
	})
}

// TransferInput moves funds between two accounts.
type TransferInput struct {
	FromAccountID  string
	ToAccountID    string
	Amount         domain.Money
	IdempotencyKey string
}

// Transfer posts a debit-from/credit-to pair. When the accounts hold
// different currencies the movement routes through the FX clearing
// accounts at the current rate, still as one atomic posting group.
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*domain.Transfer, error) {
	if err := validateRequest(input.Amount, input.IdempotencyKey); err != nil {
		return nil, err
	}

	if input.FromAccountID == input.ToAccountID {
		return nil, domain.ErrSameAccount
	}

	from, err := uc.accountRepo.GetByID(ctx, input.FromAccountID)
	if err != nil {
		return nil, err
	}

	to, err := uc.accountRepo.GetByID(ctx, input.ToAccountID)
	if err != nil {
		return nil, err
	}

	if from.Currency != input.Amount.Currency {
		return nil, fmt.Errorf("%w: source account %s holds %s", domain.ErrCurrencyMismatch, from.ID, from.Currency)
	}

	transfer := &domain.Transfer{
		ID:             uc.idGen.Generate(),
		IdempotencyKey: input.IdempotencyKey,
		Kind:           domain.TransferKindTransfer,
		OwnerID:        from.OwnerID,
		FromAccountID:  from.ID,
		ToAccountID:    to.ID,
		Requested:      input.Amount,
		Status:         domain.TransferStatusInitiated,
		Fingerprint:    domain.TransferFingerprint(domain.TransferKindTransfer, from.ID, to.ID, input.Amount, ""),
		CreatedAt:      time.Now().UTC(),
	}

	if from.Currency == to.Currency {
		return uc.execute(ctx, transfer, func(ctx context.Context, tx Transaction) (domain.PostingGroup, error) {
			return domain.PostingGroup{
				ID:             uc.idGen.Generate(),
				IdempotencyKey: input.IdempotencyKey,
				Legs: []domain.PostingLeg{
					{AccountID: from.ID, Direction: domain.DirectionDebit, Amount: input.Amount},
					{AccountID: to.ID, Direction: domain.DirectionCredit, Amount: input.Amount},
				},
			}, nil
		})
	}

	// Currencies differ: route through FX clearing at the current rate.
	settled, rate, err := uc.quote(ctx, input.Amount, to.Currency)
	if err != nil {
		return nil, err
	}

	transfer.Settled = &settled
	transfer.Rate = &rate.Mid
	fee := uc.fxFee
	transfer.Fee = &fee

	return uc.execute(ctx, transfer, uc.fxGroupBuilder(from, to, input.Amount, settled, input.IdempotencyKey))
}

// FXConvertInput converts funds between an owner's accounts in two
// currencies.
type FXConvertInput struct {
	AccountID      string
	Amount         domain.Money
	ToCurrency     string
	IdempotencyKey string
}

// FXConvert debits the source-currency account and credits the owner's
// account in the target currency at the current mid rate net of the
// conversion fee. Rate and fee are snapshotted onto the transfer at
// posting time.
func (uc *TransferUseCase) FXConvert(ctx context.Context, input FXConvertInput) (*domain.Transfer, error) {
	if err := validateRequest(input.Amount, input.IdempotencyKey); err != nil {
		return nil, err
	}

	if err := domain.ValidateCurrency(input.ToCurrency); err != nil {
		return nil, err
	}

	source, err := uc.accountRepo.GetByID(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}

	if source.Currency != input.Amount.Currency {
		return nil, fmt.Errorf("%w: account %s holds %s", domain.ErrCurrencyMismatch, source.ID, source.Currency)
	}

	if source.Currency == input.ToCurrency {
		return nil, fmt.Errorf("%w: conversion into the same currency", domain.ErrCurrencyMismatch)
	}

	dest, err := uc.accountRepo.GetByOwnerAndCurrency(ctx, source.OwnerID, input.ToCurrency)
	if err != nil {
		return nil, err
	}

	settled, rate, err := uc.quote(ctx, input.Amount, input.ToCurrency)
	if err != nil {
		return nil, err
	}

	fee := uc.fxFee
	transfer := &domain.Transfer{
		ID:             uc.idGen.Generate(),
		IdempotencyKey: input.IdempotencyKey,
		Kind:           domain.TransferKindFXConvert,
		OwnerID:        source.OwnerID,
		FromAccountID:  source.ID,
		ToAccountID:    dest.ID,
		Requested:      input.Amount,
		Settled:        &settled,
		Rate:           &rate.Mid,
		Fee:            &fee,
		Status:         domain.TransferStatusInitiated,
		Fingerprint:    domain.TransferFingerprint(domain.TransferKindFXConvert, source.ID, "", input.Amount, input.ToCurrency),
		CreatedAt:      time.Now().UTC(),
	}

	return uc.execute(ctx, transfer, uc.fxGroupBuilder(source, dest, input.Amount, settled, input.IdempotencyKey))
}

// quote fetches the current rate and computes the settled amount. The
// rate call is bounded and fails closed: no rate, no conversion.
func (uc *TransferUseCase) quote(ctx context.Context, amount domain.Money, toCurrency string) (domain.Money, *domain.ExchangeRate, error) {
	rateCtx, cancel := context.WithTimeout(ctx, DefaultRateTimeout)
	defer cancel()

	rate, err := uc.rates.GetRate(rateCtx, amount.Currency, toCurrency)
	if err != nil {
		return domain.Money{}, nil, err
	}

	settledMinor := domain.ConvertMinor(amount.AmountMinor, rate.Mid, uc.fxFee)
	if settledMinor <= 0 {
		return domain.Money{}, nil, fmt.Errorf("%w: conversion settles to zero", domain.ErrInvalidAmount)
	}

	return domain.NewMoney(settledMinor, toCurrency), rate, nil
}

// fxGroupBuilder returns the builder for a two-currency posting group:
// the source leg balances against the source FX clearing account and the
// target leg against the target FX clearing account, each currency
// netting to zero independently.
func (uc *TransferUseCase) fxGroupBuilder(from, to *domain.Account, requested, settled domain.Money, key string) func(context.Context, Transaction) (domain.PostingGroup, error) {
	return func(ctx context.Context, tx Transaction) (domain.PostingGroup, error) {
		srcClearing := domain.SystemAccountID("fx", requested.Currency)
		dstClearing := domain.SystemAccountID("fx", settled.Currency)

		if err := uc.accountRepo.EnsureClearingAccount(ctx, tx, srcClearing, requested.Currency); err != nil {
			return domain.PostingGroup{}, err
		}

		if err := uc.accountRepo.EnsureClearingAccount(ctx, tx, dstClearing, settled.Currency); err != nil {
			return domain.PostingGroup{}, err
		}

		return domain.PostingGroup{
			ID:             uc.idGen.Generate(),
			IdempotencyKey: key,
			Legs: []domain.PostingLeg{
				{AccountID: from.ID, Direction: domain.DirectionDebit, Amount: requested},
				{AccountID: srcClearing, Direction: domain.DirectionCredit, Amount: requested},
				{AccountID: dstClearing, Direction: domain.DirectionDebit, Amount: settled},
				{AccountID: to.ID, Direction: domain.DirectionCredit, Amount: settled},
			},
		}, nil
	}
}

// ReverseInput requests a compensating transfer.
type ReverseInput struct {
	TransferID     string
	IdempotencyKey string
}

// Reverse posts the mirror image of a POSTED transfer's entries as a new
// compensating transfer linked to the original. History is never
// mutated; the original merely moves to REVERSED.
func (uc *TransferUseCase) Reverse(ctx context.Context, input ReverseInput) (*domain.Transfer, error) {
	if input.IdempotencyKey == "" {
		return nil, domain.ErrMissingIdempotency
	}

	original, err := uc.transferRepo.GetByID(ctx, input.TransferID)
	if err != nil {
		return nil, err
	}

	switch original.Status {
	case domain.TransferStatusPosted:
	case domain.TransferStatusReversed:
		return nil, domain.ErrAlreadyReversed
	default:
		return nil, domain.ErrTransferNotPosted
	}

	reversal := &domain.Transfer{
		ID:             uc.idGen.Generate(),
		IdempotencyKey: input.IdempotencyKey,
		Kind:           domain.TransferKindReversal,
		OwnerID:        original.OwnerID,
		FromAccountID:  original.ToAccountID,
		ToAccountID:    original.FromAccountID,
		Requested:      original.Requested,
		Settled:        original.Settled,
		Rate:           original.Rate,
		Fee:            original.Fee,
		Status:         domain.TransferStatusInitiated,
		ReversesID:     &original.ID,
		Fingerprint:    domain.TransferFingerprint(domain.TransferKindReversal, original.ID, "", original.Requested, ""),
		CreatedAt:      time.Now().UTC(),
	}

	return uc.execute(ctx, reversal, func(ctx context.Context, tx Transaction) (domain.PostingGroup, error) {
		entries, err := uc.journal.journalRepo.GetByPostingGroup(ctx, original.PostingGroupID)
		if err != nil {
			return domain.PostingGroup{}, err
		}

		if len(entries) == 0 {
			return domain.PostingGroup{}, domain.ErrTransferNotFound
		}

		group := domain.PostingGroup{
			ID:             uc.idGen.Generate(),
			IdempotencyKey: input.IdempotencyKey,
		}

		for _, entry := range entries {
			direction := domain.DirectionDebit
			if entry.Direction == domain.DirectionDebit {
				direction = domain.DirectionCredit
			}

			group.Legs = append(group.Legs, domain.PostingLeg{
				AccountID: entry.AccountID,
				Direction: direction,
				Amount:    entry.Amount,
			})
		}

		// Flip the original inside the same atomic unit. The state
		// machine guarantees this happens at most once.
		if err := uc.transferRepo.UpdateStatus(ctx, tx, original.ID,
			domain.TransferStatusPosted, domain.TransferStatusReversed, time.Now().UTC()); err != nil {
			return domain.PostingGroup{}, err
		}

		return group, nil
	})
}

// Cancel aborts a transfer that is still INITIATED (e.g. left behind by
// a crash before its posting attempt). Once a posting group begins its
// atomic commit there is nothing to cancel: it fully succeeds or fully
// fails.
func (uc *TransferUseCase) Cancel(ctx context.Context, transferID string) (*domain.Transfer, error) {
	transfer, err := uc.transferRepo.GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}

	if transfer.Status != domain.TransferStatusInitiated {
		return nil, fmt.Errorf("%w: transfer is %s", domain.ErrInvalidStatusChange, transfer.Status)
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := uc.transferRepo.UpdateStatus(ctx, tx, transfer.ID,
		domain.TransferStatusInitiated, domain.TransferStatusFailed, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return uc.transferRepo.GetByID(ctx, transferID)
}

// GetTransfer retrieves a transfer by ID.
func (uc *TransferUseCase) GetTransfer(ctx context.Context, id string) (*domain.Transfer, error) {
	return uc.transferRepo.GetByID(ctx, id)
}

// ListTransfersByAccount lists transfers touching an account.
func (uc *TransferUseCase) ListTransfersByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error) {
	return uc.transferRepo.ListByAccount(ctx, accountID, clampLimit(limit), offset)
}

// execute runs the idempotent posting protocol shared by every
// operation: short-circuit on a known key, then attempt the atomic unit
// (transfer row, posting group, outbox event) with retries on storage
// conflicts, and finally record policy failures as terminal FAILED
// transfers.
func (uc *TransferUseCase) execute(
	ctx context.Context,
	transfer *domain.Transfer,
	buildGroup func(context.Context, Transaction) (domain.PostingGroup, error),
) (*domain.Transfer, error) {
	if existing, err := uc.findExisting(ctx, transfer.IdempotencyKey, transfer.Fingerprint); existing != nil || err != nil {
		return existing, err
	}

	attempt := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := uc.transferRepo.Create(txCtx, tx, transfer); err != nil {
			return err
		}

		group, err := buildGroup(txCtx, tx)
		if err != nil {
			return err
		}

		if _, err := uc.journal.Post(txCtx, tx, group); err != nil {
			return err
		}

		now := time.Now().UTC()
		transfer.Status = domain.TransferStatusPosted
		transfer.PostingGroupID = group.ID
		transfer.CompletedAt = &now

		if err := uc.transferRepo.Finalize(txCtx, tx, transfer); err != nil {
			return err
		}

		if err := uc.outboxRepo.Create(txCtx, tx, uc.postedEvent(transfer, now)); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	}

	start := time.Now()
	err := uc.retrier.Retry(ctx, attempt)

	switch {
	case err == nil:
		uc.countPosted(transfer, time.Since(start))
		uc.logger.Info().
			Str("transfer_id", transfer.ID).
			Str("kind", string(transfer.Kind)).
			Str("posting_group_id", transfer.PostingGroupID).
			Msg("transfer posted")

		return transfer, nil

	case errors.Is(err, domain.ErrIdempotencyKeyTaken):
		// A concurrent request with the same key won the race.
		return uc.findExistingStrict(ctx, transfer.IdempotencyKey, transfer.Fingerprint)

	case isTerminalFailure(err):
		failed := uc.recordFailure(ctx, transfer, err)
		uc.countFailed(transfer, err)

		return failed, err

	default:
		uc.countFailed(transfer, err)

		return nil, err
	}
}

// findExisting resolves an idempotency key that has been seen before.
// Returns (nil, nil) for an unknown key.
func (uc *TransferUseCase) findExisting(ctx context.Context, key, fingerprint string) (*domain.Transfer, error) {
	existing, err := uc.transferRepo.GetByIdempotencyKey(ctx, key)
	if errors.Is(err, domain.ErrTransferNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if existing.Fingerprint != fingerprint {
		return nil, domain.ErrIdempotencyKeyConflict
	}

	return existing, nil
}

func (uc *TransferUseCase) findExistingStrict(ctx context.Context, key, fingerprint string) (*domain.Transfer, error) {
	existing, err := uc.findExisting(ctx, key, fingerprint)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		// The winner rolled back after taking the key; the caller may retry.
		return nil, domain.ErrIdempotencyKeyTaken
	}

	return existing, nil
}

// recordFailure persists the terminal FAILED outcome after the posting
// transaction rolled back, so a retry with the same key observes the
// same result instead of re-attempting.
func (uc *TransferUseCase) recordFailure(ctx context.Context, transfer *domain.Transfer, cause error) *domain.Transfer {
	now := time.Now().UTC()
	transfer.Status = domain.TransferStatusFailed
	transfer.FailureReason = cause.Error()
	transfer.CompletedAt = &now

	if err := uc.transferRepo.CreateStandalone(ctx, transfer); err != nil {
		if errors.Is(err, domain.ErrIdempotencyKeyTaken) {
			if existing, lookupErr := uc.transferRepo.GetByIdempotencyKey(ctx, transfer.IdempotencyKey); lookupErr == nil {
				return existing
			}
		}

		uc.logger.Error().Err(err).
			Str("transfer_id", transfer.ID).
			Msg("failed to record terminal transfer failure")
	}

	return transfer
}

func (uc *TransferUseCase) postedEvent(transfer *domain.Transfer, now time.Time) *domain.OutboxEvent {
	eventType := domain.EventTypeTransferPosted
	if transfer.Kind == domain.TransferKindReversal {
		eventType = domain.EventTypeTransferReversed
	}

	payload := map[string]any{
		"transfer_id":      transfer.ID,
		"kind":             string(transfer.Kind),
		"owner_id":         transfer.OwnerID,
		"from_account_id":  transfer.FromAccountID,
		"to_account_id":    transfer.ToAccountID,
		"amount_minor":     transfer.Requested.AmountMinor,
		"currency":         transfer.Requested.Currency,
		"idempotency_key":  transfer.IdempotencyKey,
		"posting_group_id": transfer.PostingGroupID,
		"posted_at":        now.Format(time.RFC3339Nano),
	}

	if transfer.Settled != nil {
		payload["settled_minor"] = transfer.Settled.AmountMinor
		payload["settled_currency"] = transfer.Settled.Currency
	}

	if transfer.Rate != nil {
		payload["rate"] = transfer.Rate.String()
	}

	if transfer.Fee != nil {
		payload["fee"] = transfer.Fee.String()
	}

	return &domain.OutboxEvent{
		ID:            uuid.NewString(),
		AggregateID:   transfer.ID,
		AggregateType: domain.AggregateTypeTransfer,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
	}
}

func (uc *TransferUseCase) countPosted(transfer *domain.Transfer, elapsed time.Duration) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.TransfersPosted.WithLabelValues(string(transfer.Kind)).Inc()
	uc.metrics.TransferDuration.Observe(elapsed.Seconds())
}

func (uc *TransferUseCase) countFailed(transfer *domain.Transfer, err error) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.TransferErrors.WithLabelValues(string(transfer.Kind), domain.KindOf(err).String()).Inc()
}

func validateRequest(amount domain.Money, key string) error {
	if key == "" {
		return domain.ErrMissingIdempotency
	}

	return amount.Validate()
}

// isTerminalFailure reports whether the error should consume the
// idempotency key as a FAILED outcome. Policy violations and in-flight
// validation failures are terminal; not-found, dependency and
// concurrency errors leave the key unconsumed so the caller may retry.
func isTerminalFailure(err error) bool {
	switch domain.KindOf(err) {
	case domain.KindPolicy, domain.KindValidation:
		return true
	default:
		return false
	}
}
