package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crosspay/ledger/internal/adapter/http/dto"
	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
	ListAccountsByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error)
	Approve(ctx context.Context, id string) (*domain.Account, error)
	Freeze(ctx context.Context, id string) (*domain.Account, error)
	Unfreeze(ctx context.Context, id string) (*domain.Account, error)
	Close(ctx context.Context, id string) (*domain.Account, error)
	GetBalance(ctx context.Context, id string) (*usecase.Balance, error)
	GetBalanceAt(ctx context.Context, id string, at time.Time) (*usecase.Balance, error)
}

// AccountHandler handles account lifecycle and balance requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create creates a wallet account in PENDING_APPROVAL.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), req.ToInput())
	if err != nil {
		writeDomainError(w, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountUC.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists accounts with pagination. An owner_id filter narrows the
// result to one owner.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	if ownerID := r.URL.Query().Get("owner_id"); ownerID != "" {
		accounts, err := h.accountUC.ListAccountsByOwner(r.Context(), ownerID)
		if err != nil {
			writeDomainError(w, "failed to list accounts", err)
			return
		}

		writeJSON(w, http.StatusOK, dto.AccountsFromDomain(accounts))
		return
	}

	accounts, err := h.accountUC.ListAccounts(r.Context(), usecase.ListAccountsInput{
		Limit:  parseIntQuery(r, "limit", 20),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountsFromDomain(accounts))
}

// Approve activates a PENDING_APPROVAL account.
func (h *AccountHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.accountUC.Approve)
}

// Freeze blocks debits on an ACTIVE account.
func (h *AccountHandler) Freeze(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.accountUC.Freeze)
}

// Unfreeze reactivates a FROZEN account.
func (h *AccountHandler) Unfreeze(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.accountUC.Unfreeze)
}

// Close closes an account with a zero settled balance.
func (h *AccountHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.accountUC.Close)
}

func (h *AccountHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id string) (*domain.Account, error),
) {
	account, err := op(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to change account status", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// GetBalance returns the account's current balance, or the balance at a
// historical instant when the at query parameter is given.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	at, ok := parseTimeQuery(r, "at")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid at parameter", "expected RFC3339 timestamp")
		return
	}

	if !at.IsZero() {
		balance, err := h.accountUC.GetBalanceAt(r.Context(), id, at)
		if err != nil {
			writeDomainError(w, "failed to get historical balance", err)
			return
		}

		writeJSON(w, http.StatusOK, dto.BalanceFromUseCase(balance))
		return
	}

	balance, err := h.accountUC.GetBalance(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromUseCase(balance))
}
