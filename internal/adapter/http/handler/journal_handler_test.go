package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crosspay/ledger/internal/adapter/http/dto"
	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/usecase"
)

type journalServiceStub struct {
	byAccountFn func(ctx context.Context, input usecase.GetEntriesByAccountInput) ([]*domain.JournalEntry, error)
	byGroupFn   func(ctx context.Context, groupID string) ([]*domain.JournalEntry, error)
}

func (s *journalServiceStub) GetEntriesByAccount(ctx context.Context, input usecase.GetEntriesByAccountInput) ([]*domain.JournalEntry, error) {
	return s.byAccountFn(ctx, input)
}

func (s *journalServiceStub) GetEntriesByPostingGroup(ctx context.Context, groupID string) ([]*domain.JournalEntry, error) {
	return s.byGroupFn(ctx, groupID)
}

func TestJournalHandler_ListByAccount(t *testing.T) {
	since := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	var captured usecase.GetEntriesByAccountInput
	h := NewJournalHandler(&journalServiceStub{
		byAccountFn: func(ctx context.Context, input usecase.GetEntriesByAccountInput) ([]*domain.JournalEntry, error) {
			captured = input
			return []*domain.JournalEntry{
				{
					ID:             "je-1",
					PostingGroupID: "pg-1",
					AccountID:      input.AccountID,
					Direction:      domain.DirectionCredit,
					Amount:         domain.Money{AmountMinor: 1000, Currency: "USD"},
				},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/accounts/acc-1/entries?since=2026-02-01T00:00:00Z&limit=10", nil)
	req = setChiURLParam(req, "id", "acc-1")
	rec := httptest.NewRecorder()

	h.ListByAccount(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.AccountID != "acc-1" || !captured.Since.Equal(since) || captured.Limit != 10 {
		t.Fatalf("expected input to match query, got %+v", captured)
	}

	var resp []dto.EntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].Direction != "credit" {
		t.Fatalf("expected one credit entry, got %+v", resp)
	}
}

func TestJournalHandler_ListByAccount_BadSince(t *testing.T) {
	h := NewJournalHandler(&journalServiceStub{
		byAccountFn: func(ctx context.Context, input usecase.GetEntriesByAccountInput) ([]*domain.JournalEntry, error) {
			t.Fatal("GetEntriesByAccount should not be called with a bad since parameter")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/accounts/acc-1/entries?since=lastweek", nil)
	req = setChiURLParam(req, "id", "acc-1")
	rec := httptest.NewRecorder()

	h.ListByAccount(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestJournalHandler_ListByPostingGroup(t *testing.T) {
	h := NewJournalHandler(&journalServiceStub{
		byGroupFn: func(ctx context.Context, groupID string) ([]*domain.JournalEntry, error) {
			if groupID != "pg-1" {
				t.Fatalf("expected pg-1, got %s", groupID)
			}
			return []*domain.JournalEntry{
				{ID: "je-1", PostingGroupID: "pg-1", Direction: domain.DirectionDebit},
				{ID: "je-2", PostingGroupID: "pg-1", Direction: domain.DirectionCredit},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/posting-groups/pg-1/entries", nil)
	req = setChiURLParam(req, "id", "pg-1")
	rec := httptest.NewRecorder()

	h.ListByPostingGroup(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []dto.EntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected both legs, got %d", len(resp))
	}
}
