package dto

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/usecase"
)

var validate = validator.New()

// Validate runs struct-tag validation on a request DTO.
func Validate(req any) error {
	return validate.Struct(req)
}

// CreateAccountRequest is the payload for POST /accounts.
type CreateAccountRequest struct {
	OwnerID          string `json:"owner_id" validate:"required"`
	Currency         string `json:"currency" validate:"required,len=3,uppercase"`
	CreditLimitMinor int64  `json:"credit_limit_minor" validate:"gte=0"`
}

func (r CreateAccountRequest) ToInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		OwnerID:          r.OwnerID,
		Currency:         r.Currency,
		CreditLimitMinor: r.CreditLimitMinor,
	}
}

// DepositRequest is the payload for POST /transfers/deposit.
type DepositRequest struct {
	AccountID      string `json:"account_id" validate:"required"`
	AmountMinor    int64  `json:"amount_minor" validate:"required,gt=0"`
	Currency       string `json:"currency" validate:"required,len=3,uppercase"`
	IdempotencyKey string `json:"idempotency_key" validate:"required"`
}

func (r DepositRequest) ToInput() usecase.DepositInput {
	return usecase.DepositInput{
		AccountID:      r.AccountID,
		Amount:         domain.Money{AmountMinor: r.AmountMinor, Currency: r.Currency},
		IdempotencyKey: r.IdempotencyKey,
	}
}

// WithdrawRequest is the payload for POST /transfers/withdraw.
type WithdrawRequest struct {
	AccountID      string `json:"account_id" validate:"required"`
	AmountMinor    int64  `json:"amount_minor" validate:"required,gt=0"`
	Currency       string `json:"currency" validate:"required,len=3,uppercase"`
	IdempotencyKey string `json:"idempotency_key" validate:"required"`
}

func (r WithdrawRequest) ToInput() usecase.WithdrawInput {
	return usecase.WithdrawInput{
		AccountID:      r.AccountID,
		Amount:         domain.Money{AmountMinor: r.AmountMinor, Currency: r.Currency},
		IdempotencyKey: r.IdempotencyKey,
	}
}

// CreateTransferRequest is the payload for POST /transfers.
type CreateTransferRequest struct {
	FromAccountID  string `json:"from_account_id" validate:"required"`
	ToAccountID    string `json:"to_account_id" validate:"required"`
	AmountMinor    int64  `json:"amount_minor" validate:"required,gt=0"`
	Currency       string `json:"currency" validate:"required,len=3,uppercase"`
	IdempotencyKey string `json:"idempotency_key" validate:"required"`
}

func (r CreateTransferRequest) ToInput() usecase.TransferInput {
	return usecase.TransferInput{
		FromAccountID:  r.FromAccountID,
		ToAccountID:    r.ToAccountID,
		Amount:         domain.Money{AmountMinor: r.AmountMinor, Currency: r.Currency},
		IdempotencyKey: r.IdempotencyKey,
	}
}

// FXConvertRequest is the payload for POST /transfers/convert.
type FXConvertRequest struct {
	AccountID      string `json:"account_id" validate:"required"`
	AmountMinor    int64  `json:"amount_minor" validate:"required,gt=0"`
	Currency       string `json:"currency" validate:"required,len=3,uppercase"`
	ToCurrency     string `json:"to_currency" validate:"required,len=3,uppercase"`
	IdempotencyKey string `json:"idempotency_key" validate:"required"`
}

func (r FXConvertRequest) ToInput() usecase.FXConvertInput {
	return usecase.FXConvertInput{
		AccountID:      r.AccountID,
		Amount:         domain.Money{AmountMinor: r.AmountMinor, Currency: r.Currency},
		ToCurrency:     r.ToCurrency,
		IdempotencyKey: r.IdempotencyKey,
	}
}

// ReverseTransferRequest is the payload for POST /transfers/{id}/reverse.
type ReverseTransferRequest struct {
	IdempotencyKey string `json:"idempotency_key" validate:"required"`
}

func (r ReverseTransferRequest) ToInput(transferID string) usecase.ReverseInput {
	return usecase.ReverseInput{
		TransferID:     transferID,
		IdempotencyKey: r.IdempotencyKey,
	}
}

// CreateHoldRequest is the payload for POST /holds.
type CreateHoldRequest struct {
	AccountID   string     `json:"account_id" validate:"required"`
	AmountMinor int64      `json:"amount_minor" validate:"required,gt=0"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func (r CreateHoldRequest) ToInput() usecase.HoldFundsInput {
	return usecase.HoldFundsInput{
		AccountID:   r.AccountID,
		AmountMinor: r.AmountMinor,
		ExpiresAt:   r.ExpiresAt,
	}
}

// CaptureHoldRequest is the payload for POST /holds/{id}/capture.
type CaptureHoldRequest struct {
	ToAccountID    string `json:"to_account_id" validate:"required"`
	IdempotencyKey string `json:"idempotency_key" validate:"required"`
}

func (r CaptureHoldRequest) ToInput(holdID string) usecase.CaptureHoldInput {
	return usecase.CaptureHoldInput{
		HoldID:         holdID,
		ToAccountID:    r.ToAccountID,
		IdempotencyKey: r.IdempotencyKey,
	}
}
