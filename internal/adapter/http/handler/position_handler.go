package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crosspay/ledger/internal/adapter/http/dto"
	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/usecase"
)

// PositionService defines the behavior needed by PositionHandler.
type PositionService interface {
	ListPositions(ctx context.Context, ownerID string) ([]*domain.FXPosition, error)
	GetPosition(ctx context.Context, ownerID, currency string) (*domain.FXPosition, error)
	Valuation(ctx context.Context, ownerID string) ([]usecase.PositionValuation, error)
	Rebuild(ctx context.Context, ownerID string) ([]*domain.FXPosition, error)
}

// PositionHandler serves FX position views.
type PositionHandler struct {
	positionUC PositionService
}

// NewPositionHandler creates a new PositionHandler.
func NewPositionHandler(positionUC PositionService) *PositionHandler {
	return &PositionHandler{positionUC: positionUC}
}

// List lists an owner's open positions.
func (h *PositionHandler) List(w http.ResponseWriter, r *http.Request) {
	positions, err := h.positionUC.ListPositions(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		writeDomainError(w, "failed to list positions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PositionsFromDomain(positions))
}

// Get retrieves one position.
func (h *PositionHandler) Get(w http.ResponseWriter, r *http.Request) {
	position, err := h.positionUC.GetPosition(r.Context(),
		chi.URLParam(r, "ownerID"), chi.URLParam(r, "currency"))
	if err != nil {
		writeDomainError(w, "failed to get position", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PositionFromDomain(position))
}

// Valuation marks the owner's positions to current rates.
func (h *PositionHandler) Valuation(w http.ResponseWriter, r *http.Request) {
	valuations, err := h.positionUC.Valuation(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		writeDomainError(w, "failed to value positions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ValuationsFromUseCase(valuations))
}

// Rebuild replays the owner's conversion history into fresh positions.
func (h *PositionHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	positions, err := h.positionUC.Rebuild(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		writeDomainError(w, "failed to rebuild positions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PositionsFromDomain(positions))
}
