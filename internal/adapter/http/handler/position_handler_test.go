package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/crosspay/ledger/internal/adapter/http/dto"
	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/usecase"
)

type positionServiceStub struct {
	listFn      func(ctx context.Context, ownerID string) ([]*domain.FXPosition, error)
	getFn       func(ctx context.Context, ownerID, currency string) (*domain.FXPosition, error)
	valuationFn func(ctx context.Context, ownerID string) ([]usecase.PositionValuation, error)
	rebuildFn   func(ctx context.Context, ownerID string) ([]*domain.FXPosition, error)
}

func (s *positionServiceStub) ListPositions(ctx context.Context, ownerID string) ([]*domain.FXPosition, error) {
	return s.listFn(ctx, ownerID)
}

func (s *positionServiceStub) GetPosition(ctx context.Context, ownerID, currency string) (*domain.FXPosition, error) {
	return s.getFn(ctx, ownerID, currency)
}

func (s *positionServiceStub) Valuation(ctx context.Context, ownerID string) ([]usecase.PositionValuation, error) {
	return s.valuationFn(ctx, ownerID)
}

func (s *positionServiceStub) Rebuild(ctx context.Context, ownerID string) ([]*domain.FXPosition, error) {
	return s.rebuildFn(ctx, ownerID)
}

func eurPosition() *domain.FXPosition {
	return &domain.FXPosition{
		OwnerID:        "owner-1",
		Currency:       "EUR",
		NetMinor:       5000,
		BaseValueMinor: 5480,
		AverageRate:    decimal.RequireFromString("1.096"),
	}
}

func TestPositionHandler_List(t *testing.T) {
	h := NewPositionHandler(&positionServiceStub{
		listFn: func(ctx context.Context, ownerID string) ([]*domain.FXPosition, error) {
			if ownerID != "owner-1" {
				t.Fatalf("expected owner-1, got %s", ownerID)
			}
			return []*domain.FXPosition{eurPosition()}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/owners/owner-1/positions", nil)
	req = setChiURLParam(req, "ownerID", "owner-1")
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp []dto.PositionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].Currency != "EUR" || resp[0].AverageRate != "1.096" {
		t.Fatalf("expected one EUR position, got %+v", resp)
	}
}

func TestPositionHandler_Get_NotFound(t *testing.T) {
	h := NewPositionHandler(&positionServiceStub{
		getFn: func(ctx context.Context, ownerID, currency string) (*domain.FXPosition, error) {
			return nil, domain.ErrPositionNotFound
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/owners/owner-1/positions/JPY", nil)
	req = req.WithContext(context.Background())
	req = setChiURLParams(req, map[string]string{"ownerID": "owner-1", "currency": "JPY"})
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPositionHandler_Valuation(t *testing.T) {
	h := NewPositionHandler(&positionServiceStub{
		valuationFn: func(ctx context.Context, ownerID string) ([]usecase.PositionValuation, error) {
			return []usecase.PositionValuation{
				{
					Position:           eurPosition(),
					MarkRate:           decimal.RequireFromString("1.10"),
					UnrealizedPnLMinor: 20,
				},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/owners/owner-1/positions/valuation", nil)
	req = setChiURLParam(req, "ownerID", "owner-1")
	rec := httptest.NewRecorder()

	h.Valuation(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []dto.ValuationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].UnrealizedPnLMinor != 20 {
		t.Fatalf("expected unrealized pnl 20, got %+v", resp)
	}
}

func TestPositionHandler_Rebuild(t *testing.T) {
	called := false
	h := NewPositionHandler(&positionServiceStub{
		rebuildFn: func(ctx context.Context, ownerID string) ([]*domain.FXPosition, error) {
			called = true
			return []*domain.FXPosition{eurPosition()}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/owners/owner-1/positions/rebuild", nil)
	req = setChiURLParam(req, "ownerID", "owner-1")
	rec := httptest.NewRecorder()

	h.Rebuild(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !called {
		t.Fatal("expected rebuild to be invoked")
	}
}

func setChiURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := &chi.Context{}
	for k, v := range params {
		rctx.URLParams.Keys = append(rctx.URLParams.Keys, k)
		rctx.URLParams.Values = append(rctx.URLParams.Values, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
