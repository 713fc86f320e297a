package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/usecase"
	"github.com/crosspay/ledger/internal/usecase/mocks"
)

func TestGetEntriesByAccountClampsLimit(t *testing.T) {
	journalRepo := mocks.NewMockJournalRepository()

	var gotSince time.Time
	var gotLimit, gotOffset int
	journalRepo.GetByAccountFunc = func(ctx context.Context, accountID string, since time.Time, limit, offset int) ([]*domain.JournalEntry, error) {
		gotSince, gotLimit, gotOffset = since, limit, offset
		return []*domain.JournalEntry{
			{ID: "je-2", AccountID: accountID, Direction: domain.DirectionCredit, Amount: domain.NewMoney(500, "USD")},
			{ID: "je-1", AccountID: accountID, Direction: domain.DirectionDebit, Amount: domain.NewMoney(200, "USD")},
		}, nil
	}

	uc := usecase.NewJournalUseCase(journalRepo)

	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	entries, err := uc.GetEntriesByAccount(context.Background(), usecase.GetEntriesByAccountInput{
		AccountID: "acc-1",
		Since:     since,
		Limit:     10_000,
		Offset:    40,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
	if !gotSince.Equal(since) {
		t.Errorf("expected since %v, got %v", since, gotSince)
	}
	if gotLimit != usecase.MaxPageSize {
		t.Errorf("expected limit clamped to %d, got %d", usecase.MaxPageSize, gotLimit)
	}
	if gotOffset != 40 {
		t.Errorf("expected offset 40, got %d", gotOffset)
	}
}

func TestGetEntriesByAccountDefaultsLimit(t *testing.T) {
	journalRepo := mocks.NewMockJournalRepository()

	var gotLimit int
	journalRepo.GetByAccountFunc = func(ctx context.Context, accountID string, since time.Time, limit, offset int) ([]*domain.JournalEntry, error) {
		gotLimit = limit
		return nil, nil
	}

	uc := usecase.NewJournalUseCase(journalRepo)

	if _, err := uc.GetEntriesByAccount(context.Background(), usecase.GetEntriesByAccountInput{AccountID: "acc-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotLimit != usecase.DefaultPageSize {
		t.Errorf("expected default limit %d, got %d", usecase.DefaultPageSize, gotLimit)
	}
}

func TestGetEntriesByPostingGroup(t *testing.T) {
	journalRepo := mocks.NewMockJournalRepository()
	journalRepo.GetByPostingGroupFunc = func(ctx context.Context, groupID string) ([]*domain.JournalEntry, error) {
		return []*domain.JournalEntry{
			{ID: "je-1", PostingGroupID: groupID, Direction: domain.DirectionDebit, Amount: domain.NewMoney(1_000, "USD")},
			{ID: "je-2", PostingGroupID: groupID, Direction: domain.DirectionCredit, Amount: domain.NewMoney(1_000, "USD")},
		}, nil
	}

	uc := usecase.NewJournalUseCase(journalRepo)

	entries, err := uc.GetEntriesByPostingGroup(context.Background(), "pg-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(entries))
	}
	if entries[0].Direction == entries[1].Direction {
		t.Error("expected one debit and one credit leg")
	}
}
