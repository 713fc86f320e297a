package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/infrastructure/metrics"
	"github.com/crosspay/ledger/internal/usecase"
)

// TransferApplier folds a posted transfer into the FX position model.
type TransferApplier interface {
	ApplyTransfer(ctx context.Context, transfer *domain.Transfer) error
}

// OutboxWorker polls the outbox and fans each event out to the FX
// position tracker and the audit publisher. Delivery is at-least-once:
// an event whose publish mark fails comes back on the next poll, and
// the position tracker dedupes per transfer so the replay is a no-op.
// Audit delivery is fire and forget: a publish failure is logged and
// the event still advances.
type OutboxWorker struct {
	outboxRepo   usecase.OutboxRepository
	transferRepo usecase.TransferRepository
	positions    TransferApplier
	audit        usecase.AuditPublisher
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	batchSize    int
	interval     time.Duration
}

// Config for OutboxWorker.
type Config struct {
	OutboxRepo   usecase.OutboxRepository
	TransferRepo usecase.TransferRepository
	Positions    TransferApplier
	Audit        usecase.AuditPublisher
	Logger       zerolog.Logger
	Metrics      *metrics.Metrics
	BatchSize    int
	Interval     time.Duration
}

// New creates a new OutboxWorker.
func New(cfg Config) *OutboxWorker {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = time.Second
	}

	return &OutboxWorker{
		outboxRepo:   cfg.OutboxRepo,
		transferRepo: cfg.TransferRepo,
		positions:    cfg.Positions,
		audit:        cfg.Audit,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		batchSize:    cfg.BatchSize,
		interval:     cfg.Interval,
	}
}

// Start runs the polling loop until the context is cancelled.
func (w *OutboxWorker) Start(ctx context.Context) error {
	w.logger.Info().
		Int("batch_size", w.batchSize).
		Dur("interval", w.interval).
		Msg("outbox worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if err := w.ProcessBatch(ctx); err != nil {
		w.logger.Error().Err(err).Msg("outbox poll failed")
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("outbox worker shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessBatch(ctx); err != nil {
				w.logger.Error().Err(err).Msg("outbox poll failed")
			}
		}
	}
}

// ProcessBatch drains one batch of unpublished events.
func (w *OutboxWorker) ProcessBatch(ctx context.Context) error {
	events, err := w.outboxRepo.GetUnpublished(ctx, w.batchSize)
	if err != nil {
		return err
	}

	if w.metrics != nil {
		w.metrics.OutboxBacklog.Set(float64(len(events)))
	}

	for _, event := range events {
		if err := w.handle(ctx, event); err != nil {
			w.logger.Error().Err(err).
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("event handling failed, will retry")

			if w.metrics != nil {
				w.metrics.OutboxErrors.Inc()
			}

			continue
		}

		if err := w.outboxRepo.MarkPublished(ctx, event.ID, time.Now().UTC()); err != nil {
			w.logger.Error().Err(err).
				Str("event_id", event.ID).
				Msg("failed to mark event published")

			continue
		}

		if w.metrics != nil {
			w.metrics.OutboxPublished.WithLabelValues(event.EventType).Inc()
		}
	}

	return nil
}

// handle applies the event's side effects. A returned error leaves the
// event unpublished for the next poll.
func (w *OutboxWorker) handle(ctx context.Context, event *domain.OutboxEvent) error {
	if event.AggregateType == domain.AggregateTypeTransfer {
		transfer, err := w.transferRepo.GetByID(ctx, event.AggregateID)
		if err != nil {
			return err
		}

		if err := w.positions.ApplyTransfer(ctx, transfer); err != nil {
			return err
		}
	}

	if err := w.audit.Publish(ctx, event); err != nil {
		// Best effort only. An audit sink outage must not hold up the
		// rest of the batch.
		w.logger.Warn().Err(err).
			Str("event_id", event.ID).
			Str("event_type", event.EventType).
			Msg("audit publish failed")
	}

	return nil
}
