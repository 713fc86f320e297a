package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/infrastructure/metrics"
)

// HoldUseCase reserves available funds as pending without moving money.
// A hold shifts available into pending; the settled balance is untouched
// until the hold is captured into a transfer or released by a void.
type HoldUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	holdRepo     HoldRepository
	transferRepo TransferRepository
	outboxRepo   OutboxRepository
	journal      *JournalEngine
	idGen        IDGenerator
	logger       zerolog.Logger
	metrics      *metrics.Metrics
}

// NewHoldUseCase creates a HoldUseCase.
func NewHoldUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	holdRepo HoldRepository,
	transferRepo TransferRepository,
	outboxRepo OutboxRepository,
	journal *JournalEngine,
	idGen IDGenerator,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *HoldUseCase {
	return &HoldUseCase{
		txManager:    txManager,
		accountRepo:  accountRepo,
		holdRepo:     holdRepo,
		transferRepo: transferRepo,
		outboxRepo:   outboxRepo,
		journal:      journal,
		idGen:        idGen,
		logger:       logger,
		metrics:      m,
	}
}

// HoldFundsInput reserves part of an account's available balance.
type HoldFundsInput struct {
	AccountID   string
	AmountMinor int64
	ExpiresAt   *time.Time
}

// HoldFunds moves amount from available into pending under the account
// row lock. No journal entry is written: the settled balance does not
// change.
func (uc *HoldUseCase) HoldFunds(ctx context.Context, input HoldFundsInput) (*domain.Hold, error) {
	if input.AmountMinor <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	if err := account.ValidateDebit(input.AmountMinor); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	hold := &domain.Hold{
		ID:          uc.idGen.Generate(),
		AccountID:   input.AccountID,
		AmountMinor: input.AmountMinor,
		Status:      domain.HoldStatusActive,
		ExpiresAt:   input.ExpiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.holdRepo.Create(txCtx, tx, hold); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalances(txCtx, tx, account.ID,
		account.AvailableMinor-input.AmountMinor,
		account.PendingMinor+input.AmountMinor,
		account.Version, now); err != nil {
		return nil, err
	}

	if err := uc.outboxRepo.Create(txCtx, tx, holdEvent(domain.EventTypeHoldCreated, hold, account.Currency, now)); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.HoldsCreated.Inc()
	}

	return hold, nil
}

// VoidHold releases an active hold, returning the reserved amount to
// available.
func (uc *HoldUseCase) VoidHold(ctx context.Context, holdID string) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	hold, err := uc.holdRepo.GetByIDForUpdate(txCtx, tx, holdID)
	if err != nil {
		return err
	}

	if hold.Status != domain.HoldStatusActive {
		return domain.ErrHoldNotActive
	}

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, hold.AccountID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	if err := uc.holdRepo.UpdateStatus(txCtx, tx, holdID, domain.HoldStatusVoided, now); err != nil {
		return err
	}

	if err := uc.accountRepo.UpdateBalances(txCtx, tx, account.ID,
		account.AvailableMinor+hold.AmountMinor,
		account.PendingMinor-hold.AmountMinor,
		account.Version, now); err != nil {
		return err
	}

	if err := uc.outboxRepo.Create(txCtx, tx, holdEvent(domain.EventTypeHoldVoided, hold, account.Currency, now)); err != nil {
		return err
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.HoldsVoided.Inc()
	}

	return nil
}

// CaptureHoldInput settles an active hold into a transfer.
type CaptureHoldInput struct {
	HoldID         string
	ToAccountID    string
	IdempotencyKey string
}

// CaptureHold releases the reservation and posts the held amount to the
// destination as a regular same-currency transfer, all in one atomic
// unit.
func (uc *HoldUseCase) CaptureHold(ctx context.Context, input CaptureHoldInput) (*domain.Transfer, error) {
	if input.IdempotencyKey == "" {
		return nil, domain.ErrMissingIdempotency
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	hold, err := uc.holdRepo.GetByIDForUpdate(txCtx, tx, input.HoldID)
	if err != nil {
		return nil, err
	}

	if hold.Status != domain.HoldStatusActive {
		return uc.findCapture(txCtx, input, hold)
	}

	source, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, hold.AccountID)
	if err != nil {
		return nil, err
	}

	dest, err := uc.accountRepo.GetByID(txCtx, input.ToAccountID)
	if err != nil {
		return nil, err
	}

	if source.Currency != dest.Currency {
		return nil, fmt.Errorf("%w: hold is %s, destination holds %s",
			domain.ErrCurrencyMismatch, source.Currency, dest.Currency)
	}

	now := time.Now().UTC()

	if err := uc.holdRepo.UpdateStatus(txCtx, tx, hold.ID, domain.HoldStatusCaptured, now); err != nil {
		return nil, err
	}

	// Release the reservation first so the journal engine sees the funds
	// as available when it validates the debit.
	if err := uc.accountRepo.UpdateBalances(txCtx, tx, source.ID,
		source.AvailableMinor+hold.AmountMinor,
		source.PendingMinor-hold.AmountMinor,
		source.Version, now); err != nil {
		return nil, err
	}

	amount := domain.NewMoney(hold.AmountMinor, source.Currency)

	transfer := &domain.Transfer{
		ID:             uc.idGen.Generate(),
		IdempotencyKey: input.IdempotencyKey,
		Kind:           domain.TransferKindTransfer,
		OwnerID:        source.OwnerID,
		FromAccountID:  source.ID,
		ToAccountID:    dest.ID,
		Requested:      amount,
		Status:         domain.TransferStatusInitiated,
		Fingerprint:    domain.TransferFingerprint(domain.TransferKindTransfer, source.ID, dest.ID, amount, hold.ID),
		CreatedAt:      now,
	}

	if err := uc.transferRepo.Create(txCtx, tx, transfer); err != nil {
		return nil, err
	}

	group := domain.PostingGroup{
		ID:             uc.idGen.Generate(),
		IdempotencyKey: input.IdempotencyKey,
		Legs: []domain.PostingLeg{
			{AccountID: source.ID, Direction: domain.DirectionDebit, Amount: amount},
			{AccountID: dest.ID, Direction: domain.DirectionCredit, Amount: amount},
		},
	}

	if _, err := uc.journal.Post(txCtx, tx, group); err != nil {
		return nil, err
	}

	transfer.Status = domain.TransferStatusPosted
	transfer.PostingGroupID = group.ID
	transfer.CompletedAt = &now

	if err := uc.transferRepo.Finalize(txCtx, tx, transfer); err != nil {
		return nil, err
	}

	event := holdEvent(domain.EventTypeHoldCaptured, hold, source.Currency, now)
	event.Payload["transfer_id"] = transfer.ID
	event.Payload["to_account_id"] = dest.ID

	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.HoldsCaptured.Inc()
	}

	return transfer, nil
}

// findCapture resolves a capture whose hold is already terminal. A
// retry of a committed capture carries the key of the stored transfer
// and replays it; the same key with different capture parameters is a
// conflict, and any other terminal hold stays ErrHoldNotActive.
func (uc *HoldUseCase) findCapture(ctx context.Context, input CaptureHoldInput, hold *domain.Hold) (*domain.Transfer, error) {
	existing, err := uc.transferRepo.GetByIdempotencyKey(ctx, input.IdempotencyKey)
	if errors.Is(err, domain.ErrTransferNotFound) {
		return nil, domain.ErrHoldNotActive
	}

	if err != nil {
		return nil, err
	}

	source, err := uc.accountRepo.GetByID(ctx, hold.AccountID)
	if err != nil {
		return nil, err
	}

	amount := domain.NewMoney(hold.AmountMinor, source.Currency)
	fingerprint := domain.TransferFingerprint(domain.TransferKindTransfer, hold.AccountID, input.ToAccountID, amount, hold.ID)

	if existing.Fingerprint != fingerprint {
		return nil, domain.ErrIdempotencyKeyConflict
	}

	return existing, nil
}

// GetHold retrieves a hold by ID.
func (uc *HoldUseCase) GetHold(ctx context.Context, id string) (*domain.Hold, error) {
	return uc.holdRepo.GetByID(ctx, id)
}

// ListHoldsByAccount retrieves holds for a given account.
func (uc *HoldUseCase) ListHoldsByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Hold, error) {
	return uc.holdRepo.ListByAccount(ctx, accountID, clampLimit(limit), offset)
}

func holdEvent(eventType string, hold *domain.Hold, currency string, now time.Time) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            uuid.NewString(),
		AggregateID:   hold.ID,
		AggregateType: domain.AggregateTypeHold,
		EventType:     eventType,
		Payload: map[string]any{
			"hold_id":      hold.ID,
			"account_id":   hold.AccountID,
			"amount_minor": hold.AmountMinor,
			"currency":     currency,
		},
		CreatedAt: now,
	}
}
