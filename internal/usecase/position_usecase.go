package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/infrastructure/metrics"
)

// PositionUseCase maintains per-owner FX positions as a derived read
// model over posted conversions. Updates are serialized per position by
// a row lock, so the outbox worker and on-demand rebuilds cannot
// interleave destructively.
type PositionUseCase struct {
	txManager    TransactionManager
	retrier      Retrier
	positionRepo PositionRepository
	transferRepo TransferRepository
	rates        *RateUseCase
	baseCurrency string
	logger       zerolog.Logger
	metrics      *metrics.Metrics
}

// NewPositionUseCase creates a PositionUseCase.
func NewPositionUseCase(
	txManager TransactionManager,
	retrier Retrier,
	positionRepo PositionRepository,
	transferRepo TransferRepository,
	rates *RateUseCase,
	baseCurrency string,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *PositionUseCase {
	return &PositionUseCase{
		txManager:    txManager,
		retrier:      retrier,
		positionRepo: positionRepo,
		transferRepo: transferRepo,
		rates:        rates,
		baseCurrency: baseCurrency,
		logger:       logger,
		metrics:      m,
	}
}

// ApplyConversion folds one signed holding change into the owner's
// position for the currency, creating the position on first use.
func (uc *PositionUseCase) ApplyConversion(ctx context.Context, ownerID, currency string, deltaMinor int64, rate decimal.Decimal) error {
	return uc.apply(ctx, "", ownerID, currency, deltaMinor, rate)
}

// ApplyTransfer decomposes a posted transfer into position deltas and
// applies them, at most once per transfer: the outbox delivers
// at-least-once, so a redelivered transfer that was already folded in is
// a no-op. Same-currency movements and transfers that do not touch the
// base currency on either side never update positions.
func (uc *PositionUseCase) ApplyTransfer(ctx context.Context, transfer *domain.Transfer) error {
	currency, deltaMinor, rate, ok := uc.decompose(transfer)
	if !ok {
		return nil
	}

	return uc.apply(ctx, transfer.ID, transfer.OwnerID, currency, deltaMinor, rate)
}

// apply updates one position under its row lock. A non-empty transferID
// writes an applied marker in the same transaction as the upsert; if the
// marker already exists the delta was committed before and the call
// returns without touching the position.
func (uc *PositionUseCase) apply(ctx context.Context, transferID, ownerID, currency string, deltaMinor int64, rate decimal.Decimal) error {
	if deltaMinor == 0 {
		return nil
	}

	return uc.retrier.Retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if transferID != "" {
			fresh, err := uc.positionRepo.MarkTransferApplied(ctx, tx, transferID)
			if err != nil {
				return err
			}

			if !fresh {
				uc.logger.Debug().
					Str("transfer_id", transferID).
					Msg("position delta already applied, skipping")

				return nil
			}
		}

		position, err := uc.positionRepo.GetForUpdate(ctx, tx, ownerID, currency)
		if errors.Is(err, domain.ErrPositionNotFound) {
			position = domain.NewFXPosition(ownerID, currency)
		} else if err != nil {
			return err
		}

		position.ApplyConversion(deltaMinor, rate, time.Now().UTC())

		if err := uc.positionRepo.Upsert(ctx, tx, position); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		if uc.metrics != nil {
			uc.metrics.PositionUpdates.WithLabelValues(currency).Inc()
		}

		return nil
	})
}

// decompose maps a transfer onto a single non-base-currency position
// delta priced in the base currency. The effective rate includes the
// conversion fee: cost basis reflects what was actually paid.
func (uc *PositionUseCase) decompose(transfer *domain.Transfer) (string, int64, decimal.Decimal, bool) {
	if transfer.Settled == nil || transfer.Rate == nil {
		return "", 0, decimal.Zero, false
	}

	requested := transfer.Requested
	settled := *transfer.Settled

	if requested.Currency == settled.Currency {
		return "", 0, decimal.Zero, false
	}

	sign := int64(1)
	if transfer.Kind == domain.TransferKindReversal {
		sign = -1
	}

	switch {
	case requested.Currency == uc.baseCurrency:
		// Owner spent base to acquire the target currency.
		rate := decimal.NewFromInt(requested.AmountMinor).
			Div(decimal.NewFromInt(settled.AmountMinor))

		return settled.Currency, sign * settled.AmountMinor, rate, true

	case settled.Currency == uc.baseCurrency:
		// Owner sold the source currency for base.
		rate := decimal.NewFromInt(settled.AmountMinor).
			Div(decimal.NewFromInt(requested.AmountMinor))

		return requested.Currency, sign * -requested.AmountMinor, rate, true

	default:
		// Cross pair: neither side is the base currency, so there is no
		// base-denominated cost basis to update.
		uc.logger.Warn().
			Str("transfer_id", transfer.ID).
			Str("from", requested.Currency).
			Str("to", settled.Currency).
			Msg("cross-currency pair skipped for position tracking")

		return "", 0, decimal.Zero, false
	}
}

// Rebuild discards the owner's positions and replays every posted FX
// conversion oldest-first. The journal and transfer history are the
// source of truth; the result is what incremental tracking would have
// produced.
func (uc *PositionUseCase) Rebuild(ctx context.Context, ownerID string) ([]*domain.FXPosition, error) {
	transfers, err := uc.transferRepo.ListFXConvertsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	rebuilt := make(map[string]*domain.FXPosition)

	for _, transfer := range transfers {
		currency, deltaMinor, rate, ok := uc.decompose(transfer)
		if !ok {
			continue
		}

		position, exists := rebuilt[currency]
		if !exists {
			position = domain.NewFXPosition(ownerID, currency)
			rebuilt[currency] = position
		}

		position.ApplyConversion(deltaMinor, rate, transfer.CreatedAt)
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := uc.positionRepo.DeleteByOwner(ctx, tx, ownerID); err != nil {
		return nil, err
	}

	positions := make([]*domain.FXPosition, 0, len(rebuilt))

	for _, position := range rebuilt {
		if err := uc.positionRepo.Upsert(ctx, tx, position); err != nil {
			return nil, err
		}

		positions = append(positions, position)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("owner_id", ownerID).
		Int("positions", len(positions)).
		Int("conversions_replayed", len(transfers)).
		Msg("fx positions rebuilt")

	return positions, nil
}

// GetPosition retrieves one position.
func (uc *PositionUseCase) GetPosition(ctx context.Context, ownerID, currency string) (*domain.FXPosition, error) {
	return uc.positionRepo.Get(ctx, ownerID, currency)
}

// ListPositions lists all of an owner's positions.
func (uc *PositionUseCase) ListPositions(ctx context.Context, ownerID string) ([]*domain.FXPosition, error) {
	return uc.positionRepo.ListByOwner(ctx, ownerID)
}

// PositionValuation is a position marked to the current rate.
type PositionValuation struct {
	Position           *domain.FXPosition
	MarkRate           decimal.Decimal
	UnrealizedPnLMinor int64
}

// Valuation marks every open position of the owner to the current rate.
// Positions whose mark rate is unavailable are returned with a zero mark
// and zero unrealized P&L rather than failing the whole report.
func (uc *PositionUseCase) Valuation(ctx context.Context, ownerID string) ([]PositionValuation, error) {
	positions, err := uc.positionRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	valuations := make([]PositionValuation, 0, len(positions))

	for _, position := range positions {
		valuation := PositionValuation{Position: position}

		rate, err := uc.rates.GetRate(ctx, position.Currency, uc.baseCurrency)
		if err != nil {
			uc.logger.Warn().Err(err).
				Str("owner_id", ownerID).
				Str("currency", position.Currency).
				Msg("mark rate unavailable for valuation")
		} else {
			valuation.MarkRate = rate.Mid
			valuation.UnrealizedPnLMinor = position.UnrealizedPnLMinor(rate.Mid)
		}

		valuations = append(valuations, valuation)
	}

	return valuations, nil
}
