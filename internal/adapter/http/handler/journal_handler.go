package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crosspay/ledger/internal/adapter/http/dto"
	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/usecase"
)

// JournalService defines the behavior needed by JournalHandler.
type JournalService interface {
	GetEntriesByAccount(ctx context.Context, input usecase.GetEntriesByAccountInput) ([]*domain.JournalEntry, error)
	GetEntriesByPostingGroup(ctx context.Context, groupID string) ([]*domain.JournalEntry, error)
}

// JournalHandler serves read-only journal views.
type JournalHandler struct {
	journalUC JournalService
}

// NewJournalHandler creates a new JournalHandler.
func NewJournalHandler(journalUC JournalService) *JournalHandler {
	return &JournalHandler{journalUC: journalUC}
}

// ListByAccount lists an account's entries newest-first. A since query
// parameter (RFC3339) bounds the window.
func (h *JournalHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	since, ok := parseTimeQuery(r, "since")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid since parameter", "expected RFC3339 timestamp")
		return
	}

	entries, err := h.journalUC.GetEntriesByAccount(r.Context(), usecase.GetEntriesByAccountInput{
		AccountID: chi.URLParam(r, "id"),
		Since:     since,
		Limit:     parseIntQuery(r, "limit", 50),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// ListByPostingGroup lists the legs of one posting group.
func (h *JournalHandler) ListByPostingGroup(w http.ResponseWriter, r *http.Request) {
	entries, err := h.journalUC.GetEntriesByPostingGroup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}
