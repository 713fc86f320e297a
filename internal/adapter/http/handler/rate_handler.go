package handler

import (
	"context"
	"net/http"

	"github.com/crosspay/ledger/internal/adapter/http/dto"
	"github.com/crosspay/ledger/internal/domain"
)

// RateService defines the behavior needed by RateHandler.
type RateService interface {
	GetRate(ctx context.Context, base, target string) (*domain.ExchangeRate, error)
}

// RateHandler serves exchange rate quotes.
type RateHandler struct {
	rateUC RateService
}

// NewRateHandler creates a new RateHandler.
func NewRateHandler(rateUC RateService) *RateHandler {
	return &RateHandler{rateUC: rateUC}
}

// Get returns the current rate for ?base=USD&target=EUR.
func (h *RateHandler) Get(w http.ResponseWriter, r *http.Request) {
	base := r.URL.Query().Get("base")
	target := r.URL.Query().Get("target")

	if base == "" || target == "" {
		writeError(w, http.StatusBadRequest, "missing currency pair", "base and target query parameters are required")
		return
	}

	rate, err := h.rateUC.GetRate(r.Context(), base, target)
	if err != nil {
		writeDomainError(w, "failed to get rate", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RateFromDomain(rate))
}
