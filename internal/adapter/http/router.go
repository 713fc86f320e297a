package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/crosspay/ledger/internal/adapter/http/handler"
	"github.com/crosspay/ledger/internal/adapter/http/middleware"
	"github.com/crosspay/ledger/internal/infrastructure/metrics"
	"github.com/crosspay/ledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler   *handler.AccountHandler
	TransferHandler  *handler.TransferHandler
	JournalHandler   *handler.JournalHandler
	RateHandler      *handler.RateHandler
	PositionHandler  *handler.PositionHandler
	HoldHandler      *handler.HoldHandler
	LedgerHandler    *handler.LedgerHandler
	HealthHandler    *handler.HealthHandler
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	Logger           zerolog.Logger
	Metrics          *metrics.Metrics
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}
	r.Use(middleware.Recovery)

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Post("/{id}/approve", cfg.AccountHandler.Approve)
			r.Post("/{id}/freeze", cfg.AccountHandler.Freeze)
			r.Post("/{id}/unfreeze", cfg.AccountHandler.Unfreeze)
			r.Post("/{id}/close", cfg.AccountHandler.Close)
			r.Get("/{id}/balance", cfg.AccountHandler.GetBalance)
			r.Get("/{id}/entries", cfg.JournalHandler.ListByAccount)
			r.Get("/{id}/transfers", cfg.TransferHandler.ListByAccount)
			r.Get("/{id}/holds", cfg.HoldHandler.ListByAccount)
			r.Get("/{id}/reconcile", cfg.LedgerHandler.Reconcile)
		})

		r.Route("/transfers", func(r chi.Router) {
			r.Post("/", cfg.TransferHandler.Create)
			r.Post("/deposit", cfg.TransferHandler.Deposit)
			r.Post("/withdraw", cfg.TransferHandler.Withdraw)
			r.Post("/convert", cfg.TransferHandler.Convert)
			r.Get("/{id}", cfg.TransferHandler.Get)
			r.Post("/{id}/reverse", cfg.TransferHandler.Reverse)
			r.Post("/{id}/cancel", cfg.TransferHandler.Cancel)
		})

		r.Route("/holds", func(r chi.Router) {
			r.Post("/", cfg.HoldHandler.Create)
			r.Get("/{id}", cfg.HoldHandler.Get)
			r.Post("/{id}/void", cfg.HoldHandler.Void)
			r.Post("/{id}/capture", cfg.HoldHandler.Capture)
		})

		r.Get("/rates", cfg.RateHandler.Get)

		r.Route("/owners/{ownerID}/positions", func(r chi.Router) {
			r.Get("/", cfg.PositionHandler.List)
			r.Get("/valuation", cfg.PositionHandler.Valuation)
			r.Post("/rebuild", cfg.PositionHandler.Rebuild)
			r.Get("/{currency}", cfg.PositionHandler.Get)
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Get("/consistency", cfg.LedgerHandler.Consistency)
			r.Get("/report", cfg.LedgerHandler.Report)
		})

		r.Get("/posting-groups/{id}/entries", cfg.JournalHandler.ListByPostingGroup)
	})

	return r
}
