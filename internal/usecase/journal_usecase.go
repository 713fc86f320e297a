package usecase

import (
	"context"
	"time"

	"github.com/crosspay/ledger/internal/domain"
)

// JournalUseCase serves read access to the immutable journal.
type JournalUseCase struct {
	journalRepo JournalRepository
}

// NewJournalUseCase creates a new JournalUseCase.
func NewJournalUseCase(journalRepo JournalRepository) *JournalUseCase {
	return &JournalUseCase{
		journalRepo: journalRepo,
	}
}

// GetEntriesByAccountInput represents input for listing entries.
type GetEntriesByAccountInput struct {
	AccountID string
	Since     time.Time
	Limit     int
	Offset    int
}

// GetEntriesByAccount lists an account's entries newest-first.
func (uc *JournalUseCase) GetEntriesByAccount(ctx context.Context, input GetEntriesByAccountInput) ([]*domain.JournalEntry, error) {
	return uc.journalRepo.GetByAccount(ctx, input.AccountID, input.Since, clampLimit(input.Limit), input.Offset)
}

// GetEntriesByPostingGroup lists the legs of one posting group.
func (uc *JournalUseCase) GetEntriesByPostingGroup(ctx context.Context, groupID string) ([]*domain.JournalEntry, error) {
	return uc.journalRepo.GetByPostingGroup(ctx, groupID)
}
