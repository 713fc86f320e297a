package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crosspay/ledger/internal/adapter/http/dto"
	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/usecase"
)

// HoldService defines the behavior needed by HoldHandler.
type HoldService interface {
	HoldFunds(ctx context.Context, input usecase.HoldFundsInput) (*domain.Hold, error)
	GetHold(ctx context.Context, id string) (*domain.Hold, error)
	VoidHold(ctx context.Context, holdID string) error
	CaptureHold(ctx context.Context, input usecase.CaptureHoldInput) (*domain.Transfer, error)
	ListHoldsByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Hold, error)
}

// HoldHandler handles balance reservation requests.
type HoldHandler struct {
	holdUC HoldService
}

// NewHoldHandler creates a new HoldHandler.
func NewHoldHandler(holdUC HoldService) *HoldHandler {
	return &HoldHandler{holdUC: holdUC}
}

// Create places a hold on available funds.
func (h *HoldHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateHoldRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	hold, err := h.holdUC.HoldFunds(r.Context(), req.ToInput())
	if err != nil {
		writeDomainError(w, "failed to create hold", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.HoldFromDomain(hold))
}

// Get retrieves a hold by ID.
func (h *HoldHandler) Get(w http.ResponseWriter, r *http.Request) {
	hold, err := h.holdUC.GetHold(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get hold", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HoldFromDomain(hold))
}

// Void releases an active hold back to available funds.
func (h *HoldHandler) Void(w http.ResponseWriter, r *http.Request) {
	if err := h.holdUC.VoidHold(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "failed to void hold", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Capture settles a hold into a transfer.
func (h *HoldHandler) Capture(w http.ResponseWriter, r *http.Request) {
	var req dto.CaptureHoldRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	transfer, err := h.holdUC.CaptureHold(r.Context(), req.ToInput(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "failed to capture hold", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromDomain(transfer))
}

// ListByAccount lists holds on an account.
func (h *HoldHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	holds, err := h.holdUC.ListHoldsByAccount(
		r.Context(),
		chi.URLParam(r, "id"),
		parseIntQuery(r, "limit", 20),
		parseIntQuery(r, "offset", 0),
	)
	if err != nil {
		writeDomainError(w, "failed to list holds", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HoldsFromDomain(holds))
}
