package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crosspay/ledger/internal/adapter/http/dto"
	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/usecase"
)

// TransferService defines the behavior needed by TransferHandler.
type TransferService interface {
	Deposit(ctx context.Context, input usecase.DepositInput) (*domain.Transfer, error)
	Withdraw(ctx context.Context, input usecase.WithdrawInput) (*domain.Transfer, error)
	Transfer(ctx context.Context, input usecase.TransferInput) (*domain.Transfer, error)
	FXConvert(ctx context.Context, input usecase.FXConvertInput) (*domain.Transfer, error)
	GetTransfer(ctx context.Context, id string) (*domain.Transfer, error)
	Reverse(ctx context.Context, input usecase.ReverseInput) (*domain.Transfer, error)
	Cancel(ctx context.Context, transferID string) (*domain.Transfer, error)
	ListTransfersByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error)
}

// TransferHandler handles money-movement requests.
type TransferHandler struct {
	transferUC TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferUC TransferService) *TransferHandler {
	return &TransferHandler{transferUC: transferUC}
}

// Deposit credits an account from external funding.
func (h *TransferHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	transfer, err := h.transferUC.Deposit(r.Context(), req.ToInput())
	if err != nil {
		writeDomainError(w, "failed to deposit", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromDomain(transfer))
}

// Withdraw debits an account toward external funding.
func (h *TransferHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req dto.WithdrawRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	transfer, err := h.transferUC.Withdraw(r.Context(), req.ToInput())
	if err != nil {
		writeDomainError(w, "failed to withdraw", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromDomain(transfer))
}

// Create posts an account-to-account transfer.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransferRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	transfer, err := h.transferUC.Transfer(r.Context(), req.ToInput())
	if err != nil {
		writeDomainError(w, "failed to create transfer", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromDomain(transfer))
}

// Convert exchanges between an owner's wallets in different currencies.
func (h *TransferHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req dto.FXConvertRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	transfer, err := h.transferUC.FXConvert(r.Context(), req.ToInput())
	if err != nil {
		writeDomainError(w, "failed to convert", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromDomain(transfer))
}

// Get retrieves a transfer by ID.
func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	transfer, err := h.transferUC.GetTransfer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get transfer", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(transfer))
}

// Reverse posts a compensating transfer for a POSTED original.
func (h *TransferHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	var req dto.ReverseTransferRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	transfer, err := h.transferUC.Reverse(r.Context(), req.ToInput(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "failed to reverse transfer", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromDomain(transfer))
}

// Cancel fails a transfer that never reached posting.
func (h *TransferHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	transfer, err := h.transferUC.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to cancel transfer", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(transfer))
}

// ListByAccount lists transfers touching an account.
func (h *TransferHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	transfers, err := h.transferUC.ListTransfersByAccount(
		r.Context(),
		chi.URLParam(r, "id"),
		parseIntQuery(r, "limit", 20),
		parseIntQuery(r, "offset", 0),
	)
	if err != nil {
		writeDomainError(w, "failed to list transfers", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransfersFromDomain(transfers))
}
