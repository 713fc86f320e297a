package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/crosspay/ledger/internal/adapter/fxprovider"
	httpAdapter "github.com/crosspay/ledger/internal/adapter/http"
	"github.com/crosspay/ledger/internal/adapter/http/handler"
	postgresRepo "github.com/crosspay/ledger/internal/adapter/repository/postgres"
	redisRepo "github.com/crosspay/ledger/internal/adapter/repository/redis"
	"github.com/crosspay/ledger/internal/infrastructure/audit"
	"github.com/crosspay/ledger/internal/infrastructure/config"
	"github.com/crosspay/ledger/internal/infrastructure/logger"
	"github.com/crosspay/ledger/internal/infrastructure/metrics"
	"github.com/crosspay/ledger/internal/infrastructure/postgres"
	"github.com/crosspay/ledger/internal/infrastructure/redis"
	"github.com/crosspay/ledger/internal/infrastructure/worker"
	"github.com/crosspay/ledger/internal/usecase"
)

const defaultRateProviderURL = "https://api.exchangerate.host"

// resolveProviderURLs falls back to the public provider when none are
// configured.
func resolveProviderURLs(urls []string) []string {
	if len(urls) == 0 {
		return []string{defaultRateProviderURL}
	}
	return urls
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	fxFee, err := cfg.FXFeeDecimal()
	if err != nil {
		appLogger.Fatal().Err(err).Msg("invalid fx fee")
	}
	fxSpread, err := cfg.FXSpreadDecimal()
	if err != nil {
		appLogger.Fatal().Err(err).Msg("invalid fx spread")
	}

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to run migrations")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	appLogger.Info().Msg("connected to redis")

	var auditPublisher usecase.AuditPublisher
	if cfg.NATSURL != "" {
		natsPublisher, err := audit.NewNATSPublisher(cfg.NATSURL, cfg.AuditSubjectBase)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsPublisher.Close()
		auditPublisher = natsPublisher
		appLogger.Info().Str("url", cfg.NATSURL).Msg("audit events go to nats")
	} else {
		auditPublisher = audit.NewLogPublisher(appLogger)
		appLogger.Info().Msg("audit events go to the local log")
	}

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	retrier := postgresRepo.NewRetrier(appLogger)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transferRepo := postgresRepo.NewTransferRepository(pool)
	journalRepo := postgresRepo.NewJournalRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	positionRepo := postgresRepo.NewPositionRepository(pool)
	holdRepo := postgresRepo.NewHoldRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	rateCache := redisRepo.NewRateCache(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	// Rate providers in failover order
	providers := make([]usecase.RateProvider, 0)
	for i, url := range resolveProviderURLs(cfg.RateProviderURLs) {
		providers = append(providers, fxprovider.NewHTTPProvider(fmt.Sprintf("provider-%d", i+1), url, cfg.RateTimeout))
	}

	// Use cases
	journalEngine := usecase.NewJournalEngine(accountRepo, journalRepo, idGen, appLogger)
	rateUC := usecase.NewRateUseCase(rateCache, providers, fxSpread, cfg.RateCacheTTL, appLogger, m)
	accountUC := usecase.NewAccountUseCase(accountRepo, journalRepo, idGen, appLogger)
	transferUC := usecase.NewTransferUseCase(
		txManager, retrier, accountRepo, transferRepo, outboxRepo,
		journalEngine, rateUC, idGen, fxFee, appLogger, m,
	)
	journalUC := usecase.NewJournalUseCase(journalRepo)
	positionUC := usecase.NewPositionUseCase(
		txManager, retrier, positionRepo, transferRepo, rateUC,
		cfg.BaseCurrency, appLogger, m,
	)
	holdUC := usecase.NewHoldUseCase(
		txManager, accountRepo, holdRepo, transferRepo, outboxRepo,
		journalEngine, idGen, appLogger, m,
	)
	ledgerUC := usecase.NewLedgerUseCase(accountRepo, journalRepo, ledgerRepo, appLogger)

	// Outbox worker drains posted events into positions and audit
	outboxWorker := worker.New(worker.Config{
		OutboxRepo:   outboxRepo,
		TransferRepo: transferRepo,
		Positions:    positionUC,
		Audit:        auditPublisher,
		Logger:       appLogger,
		Metrics:      m,
		BatchSize:    cfg.OutboxBatchSize,
		Interval:     cfg.OutboxPollInterval,
	})
	go func() {
		if err := outboxWorker.Start(ctx); err != nil && ctx.Err() == nil {
			appLogger.Error().Err(err).Msg("outbox worker stopped")
		}
	}()

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:   handler.NewAccountHandler(accountUC),
		TransferHandler:  handler.NewTransferHandler(transferUC),
		JournalHandler:   handler.NewJournalHandler(journalUC),
		RateHandler:      handler.NewRateHandler(rateUC),
		PositionHandler:  handler.NewPositionHandler(positionUC),
		HoldHandler:      handler.NewHoldHandler(holdUC),
		LedgerHandler:    handler.NewLedgerHandler(ledgerUC),
		HealthHandler:    handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		Logger:           appLogger,
		Metrics:          m,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	appLogger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	appLogger.Info().Msg("server stopped")
}
