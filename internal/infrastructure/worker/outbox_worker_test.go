package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/usecase"
	"github.com/crosspay/ledger/internal/usecase/mocks"
)

type applierFunc func(ctx context.Context, transfer *domain.Transfer) error

func (f applierFunc) ApplyTransfer(ctx context.Context, transfer *domain.Transfer) error {
	return f(ctx, transfer)
}

type workerFixture struct {
	outboxRepo   *mocks.MockOutboxRepository
	transferRepo *mocks.MockTransferRepository
	audit        *mocks.MockAuditPublisher
	applied      []*domain.Transfer
	applyErr     error
}

func (f *workerFixture) worker() *OutboxWorker {
	return New(Config{
		OutboxRepo:   f.outboxRepo,
		TransferRepo: f.transferRepo,
		Positions: applierFunc(func(_ context.Context, transfer *domain.Transfer) error {
			if f.applyErr != nil {
				return f.applyErr
			}
			f.applied = append(f.applied, transfer)
			return nil
		}),
		Audit:  f.audit,
		Logger: zerolog.Nop(),
	})
}

func newWorkerFixture() *workerFixture {
	return &workerFixture{
		outboxRepo:   mocks.NewMockOutboxRepository(),
		transferRepo: mocks.NewMockTransferRepository(),
		audit:        mocks.NewMockAuditPublisher(),
	}
}

func seedTransferEvent(t *testing.T, f *workerFixture, transferID string) *domain.OutboxEvent {
	t.Helper()

	transfer := &domain.Transfer{
		ID:             transferID,
		IdempotencyKey: "key-" + transferID,
		Kind:           domain.TransferKindFXConvert,
		Status:         domain.TransferStatusPosted,
		CreatedAt:      time.Now().UTC(),
	}
	if err := f.transferRepo.CreateStandalone(context.Background(), transfer); err != nil {
		t.Fatalf("seed transfer: %v", err)
	}

	event := &domain.OutboxEvent{
		ID:            "evt-" + transferID,
		AggregateID:   transferID,
		AggregateType: domain.AggregateTypeTransfer,
		EventType:     domain.EventTypeTransferPosted,
		CreatedAt:     time.Now().UTC(),
	}
	if err := f.outboxRepo.Create(context.Background(), nil, event); err != nil {
		t.Fatalf("seed event: %v", err)
	}

	return event
}

func TestProcessBatchAppliesPositionsAndPublishes(t *testing.T) {
	f := newWorkerFixture()
	seedTransferEvent(t, f, "tr-1")

	if err := f.worker().ProcessBatch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.applied) != 1 || f.applied[0].ID != "tr-1" {
		t.Fatalf("expected transfer tr-1 applied, got %v", f.applied)
	}

	published := f.audit.Published()
	if len(published) != 1 || published[0].ID != "evt-tr-1" {
		t.Fatalf("expected audit event evt-tr-1, got %v", published)
	}

	events := f.outboxRepo.Events()
	if !events[0].Published || events[0].PublishedAt == nil {
		t.Fatalf("expected event marked published, got %+v", events[0])
	}
}

func TestProcessBatchRetriesOnPositionFailure(t *testing.T) {
	f := newWorkerFixture()
	seedTransferEvent(t, f, "tr-1")
	f.applyErr = errors.New("position store down")

	if err := f.worker().ProcessBatch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.audit.Published()) != 0 {
		t.Fatalf("expected no audit publish when position apply fails")
	}

	if f.outboxRepo.Events()[0].Published {
		t.Fatalf("expected event to stay unpublished for retry")
	}

	// Recover and poll again: the event drains.
	f.applyErr = nil

	if err := f.worker().ProcessBatch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !f.outboxRepo.Events()[0].Published {
		t.Fatalf("expected event published after recovery")
	}
}

func TestProcessBatchAuditFailureDoesNotBlock(t *testing.T) {
	f := newWorkerFixture()
	seedTransferEvent(t, f, "tr-1")
	f.audit.PublishFunc = func(context.Context, *domain.OutboxEvent) error {
		return errors.New("nats unreachable")
	}

	if err := f.worker().ProcessBatch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.applied) != 1 {
		t.Fatalf("expected position applied once, got %d", len(f.applied))
	}

	if !f.outboxRepo.Events()[0].Published {
		t.Fatalf("expected event marked published despite audit failure")
	}
}

func TestProcessBatchRedeliveryAppliesPositionsOnce(t *testing.T) {
	outboxRepo := mocks.NewMockOutboxRepository()
	transferRepo := mocks.NewMockTransferRepository()
	positionRepo := mocks.NewMockPositionRepository()

	positions := usecase.NewPositionUseCase(
		mocks.NewMockTransactionManager(),
		mocks.NewMockRetrier(),
		positionRepo,
		transferRepo,
		nil,
		"USD",
		zerolog.Nop(),
		nil,
	)

	now := time.Now().UTC()
	rate := decimal.NewFromFloat(0.90)
	settled := domain.NewMoney(9_000, "EUR")
	transfer := &domain.Transfer{
		ID:             "fx-1",
		IdempotencyKey: "key-fx-1",
		Kind:           domain.TransferKindFXConvert,
		OwnerID:        "alice",
		Requested:      domain.NewMoney(10_000, "USD"),
		Settled:        &settled,
		Rate:           &rate,
		Status:         domain.TransferStatusPosted,
		CreatedAt:      now,
	}
	if err := transferRepo.CreateStandalone(context.Background(), transfer); err != nil {
		t.Fatalf("seed transfer: %v", err)
	}

	event := &domain.OutboxEvent{
		ID:            "evt-fx-1",
		AggregateID:   "fx-1",
		AggregateType: domain.AggregateTypeTransfer,
		EventType:     domain.EventTypeTransferPosted,
		CreatedAt:     now,
	}
	if err := outboxRepo.Create(context.Background(), nil, event); err != nil {
		t.Fatalf("seed event: %v", err)
	}

	w := New(Config{
		OutboxRepo:   outboxRepo,
		TransferRepo: transferRepo,
		Positions:    positions,
		Audit:        mocks.NewMockAuditPublisher(),
		Logger:       zerolog.Nop(),
	})

	// The position delta lands but the publish mark fails, so the event
	// comes back on the next poll.
	outboxRepo.MarkPublishedFunc = func(context.Context, string, time.Time) error {
		return errors.New("outbox store unavailable")
	}

	if err := w.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outboxRepo.Events()[0].Published {
		t.Fatalf("expected event to stay unpublished after mark failure")
	}

	outboxRepo.MarkPublishedFunc = nil

	if err := w.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	position, err := positionRepo.Get(context.Background(), "alice", "EUR")
	if err != nil {
		t.Fatalf("position not created: %v", err)
	}
	if position.NetMinor != 9_000 {
		t.Fatalf("redelivered transfer changed the position: net %d, want 9000", position.NetMinor)
	}

	if !outboxRepo.Events()[0].Published {
		t.Fatalf("expected event published after redelivery")
	}
}

func TestProcessBatchSkipsPositionsForNonTransferEvents(t *testing.T) {
	f := newWorkerFixture()

	event := &domain.OutboxEvent{
		ID:            "evt-h1",
		AggregateID:   "hold-1",
		AggregateType: domain.AggregateTypeHold,
		EventType:     domain.EventTypeHoldCreated,
		CreatedAt:     time.Now().UTC(),
	}
	if err := f.outboxRepo.Create(context.Background(), nil, event); err != nil {
		t.Fatalf("seed event: %v", err)
	}

	if err := f.worker().ProcessBatch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.applied) != 0 {
		t.Fatalf("expected no position application for hold events")
	}
	if len(f.audit.Published()) != 1 {
		t.Fatalf("expected hold event published to audit")
	}
	if !f.outboxRepo.Events()[0].Published {
		t.Fatalf("expected hold event marked published")
	}
}

func TestStartStopsOnContextCancel(t *testing.T) {
	f := newWorkerFixture()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.worker().Start(ctx) }()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("worker did not stop on cancel")
	}
}
