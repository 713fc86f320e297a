package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/crosspay/ledger/internal/domain"
)

// AccountUseCase handles account lifecycle and balance queries.
type AccountUseCase struct {
	accountRepo AccountRepository
	journalRepo JournalRepository
	idGen       IDGenerator
	logger      zerolog.Logger
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	accountRepo AccountRepository,
	journalRepo JournalRepository,
	idGen IDGenerator,
	logger zerolog.Logger,
) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		journalRepo: journalRepo,
		idGen:       idGen,
		logger:      logger,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	OwnerID          string
	Currency         string
	CreditLimitMinor int64
}

// CreateAccount creates a wallet account in PENDING_APPROVAL. It cannot
// move money until approved.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if input.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", domain.ErrInvalidAmount)
	}

	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}

	if input.CreditLimitMinor < 0 {
		return nil, fmt.Errorf("%w: credit limit must not be negative", domain.ErrInvalidAmount)
	}

	now := time.Now().UTC()

	account := &domain.Account{
		ID:               uc.idGen.Generate(),
		OwnerID:          input.OwnerID,
		Currency:         input.Currency,
		Kind:             domain.AccountKindWallet,
		CreditLimitMinor: input.CreditLimitMinor,
		Status:           domain.AccountStatusPendingApproval,
		Version:          0,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("account_id", account.ID).
		Str("owner_id", account.OwnerID).
		Str("currency", account.Currency).
		Msg("account created")

	return account, nil
}

// Approve moves a PENDING_APPROVAL account to ACTIVE.
func (uc *AccountUseCase) Approve(ctx context.Context, id string) (*domain.Account, error) {
	return uc.transition(ctx, id, domain.AccountStatusActive)
}

// Freeze blocks debits on an account. Credits still land.
func (uc *AccountUseCase) Freeze(ctx context.Context, id string) (*domain.Account, error) {
	return uc.transition(ctx, id, domain.AccountStatusFrozen)
}

// Unfreeze returns a frozen account to ACTIVE.
func (uc *AccountUseCase) Unfreeze(ctx context.Context, id string) (*domain.Account, error) {
	return uc.transition(ctx, id, domain.AccountStatusActive)
}

// Close terminates an account. The balance must be exactly zero.
func (uc *AccountUseCase) Close(ctx context.Context, id string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if account.CurrentMinor() != 0 {
		return nil, fmt.Errorf("%w: account %s holds %d minor units",
			domain.ErrBalanceNotZero, account.ID, account.CurrentMinor())
	}

	return uc.transition(ctx, id, domain.AccountStatusClosed)
}

func (uc *AccountUseCase) transition(ctx context.Context, id string, next domain.AccountStatus) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !account.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusChange, account.Status, next)
	}

	now := time.Now().UTC()

	if err := uc.accountRepo.UpdateStatus(ctx, id, next, account.Version, now); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("account_id", id).
		Str("from", string(account.Status)).
		Str("to", string(next)).
		Msg("account status changed")

	account.Status = next
	account.Version++
	account.UpdatedAt = now

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// Balance is a point-in-time view of an account's funds.
type Balance struct {
	AccountID      string
	Currency       string
	AvailableMinor int64
	PendingMinor   int64
	CurrentMinor   int64
	AsOf           time.Time
}

// GetBalance returns the account's current balance.
func (uc *AccountUseCase) GetBalance(ctx context.Context, id string) (*Balance, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &Balance{
		AccountID:      account.ID,
		Currency:       account.Currency,
		AvailableMinor: account.AvailableMinor,
		PendingMinor:   account.PendingMinor,
		CurrentMinor:   account.CurrentMinor(),
		AsOf:           account.UpdatedAt,
	}, nil
}

// GetBalanceAt reconstructs the account's settled balance at a past
// instant by replaying the journal up to that point.
func (uc *AccountUseCase) GetBalanceAt(ctx context.Context, id string, at time.Time) (*Balance, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	balanceMinor, err := uc.journalRepo.BalanceAt(ctx, id, at)
	if err != nil {
		return nil, err
	}

	return &Balance{
		AccountID:    account.ID,
		Currency:     account.Currency,
		CurrentMinor: balanceMinor,
		AsOf:         at,
	}, nil
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	return uc.accountRepo.List(ctx, clampLimit(input.Limit), input.Offset)
}

// ListAccountsByOwner lists every account belonging to one owner.
func (uc *AccountUseCase) ListAccountsByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error) {
	return uc.accountRepo.ListByOwner(ctx, ownerID)
}
