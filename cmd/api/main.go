package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"banking-ledger/config"
	kafkaEvents "banking-ledger/internal/adapter/events/kafka"
	httpHandler "banking-ledger/internal/adapter/http/handler"
	memStorage "banking-ledger/internal/adapter/storage/memory"
	pgStorage "banking-ledger/internal/adapter/storage/postgres"
	redisStorage "banking-ledger/internal/adapter/storage/redis"
	"banking-ledger/internal/core/ports"
	"banking-ledger/internal/service"
	"banking-ledger/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// repositories is one storage backend's set of adapters.
type repositories struct {
	users        ports.UserRepository
	accounts     ports.AccountRepository
	transactions ports.TransactionRepository
	loans        ports.LoanRepository
	treasury     ports.TreasuryRepository
	idempotency  ports.IdempotencyRepository
	audit        ports.AuditRepository
	transactor   ports.DBTransactor
	health       ports.HealthChecker
	close        func()
}

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Str("driver", cfg.Database.Driver).
		Int("port", cfg.Server.Port).
		Msg("Starting Banking Ledger")

	rules, err := cfg.Ledger.Rules()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid ledger rules")
	}

	ctx := context.Background()

	repos, err := openStorage(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer repos.close()

	healthCheckers := []ports.HealthChecker{repos.health}

	// Redis is optional: without it idempotency falls back to the database
	// and rate limiting is off.
	var idempotencyCache ports.IdempotencyCache
	var rateLimitStore *redisStorage.RateLimitStore
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		log.Info().Msg("Redis connected")

		idempotencyCache = redisStorage.NewIdempotencyCache(rdb)
		rateLimitStore = redisStorage.NewRateLimitStore(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
	}

	var publisher ports.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kp := kafkaEvents.NewPublisher(cfg.Kafka, log)
		defer kp.Close()
		publisher = kp
		healthCheckers = append(healthCheckers, kafkaEvents.NewHealthCheck(cfg.Kafka.Brokers))
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Kafka publisher enabled")
	}

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	converter := service.NewCurrencyConverter(rules.Rates)
	txLog := service.NewTransactionLog(repos.transactions, rules.FeeRate)

	treasury, err := service.NewBankTreasury(ctx, repos.treasury, rules.TreasuryStartingBalance, rules.MaxLoanAmount, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize bank treasury")
	}

	// Initialize business services
	authSvc := service.NewAuthService(repos.users, hashSvc, tokenSvc)
	ledgerSvc := service.NewLedgerService(service.LedgerDeps{
		Accounts:       repos.accounts,
		Transactions:   repos.transactions,
		Loans:          repos.loans,
		Idempotency:    repos.idempotency,
		Cache:          idempotencyCache,
		Transactor:     repos.transactor,
		Log:            txLog,
		Converter:      converter,
		Publisher:      publisher,
		OverdraftFloor: rules.OverdraftFloor,
		Logger:         log,
	})
	transferSvc := service.NewTransferService(
		repos.accounts,
		repos.idempotency,
		idempotencyCache,
		repos.transactor,
		txLog,
		converter,
		publisher,
		log,
	)
	loanSvc := service.NewLoanService(repos.accounts, repos.loans, treasury, repos.transactor, publisher, log)
	reportingSvc := service.NewReportingService(repos.transactions)
	auditSvc := service.NewAuditService(repos.audit, log)

	// Setup Gin router with all routes
	gin.SetMode(ginMode(cfg.Server.Mode))
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		LedgerSvc:      ledgerSvc,
		TransferSvc:    transferSvc,
		LoanSvc:        loanSvc,
		ReportingSvc:   reportingSvc,
		TokenSvc:       tokenSvc,
		AuditSvc:       auditSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: healthCheckers,
		Retry:          httpHandler.NewRetryPolicy(cfg.Retry, log),
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// openStorage builds the repositories for the configured driver.
func openStorage(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*repositories, error) {
	switch cfg.Driver {
	case "memory":
		store := memStorage.NewStore(cfg.LockTimeout)
		log.Warn().Msg("Using in-memory storage; data is lost on exit")
		return &repositories{
			users:        memStorage.NewUserRepo(store),
			accounts:     memStorage.NewAccountRepo(store),
			transactions: memStorage.NewTransactionRepo(store),
			loans:        memStorage.NewLoanRepo(store),
			treasury:     memStorage.NewTreasuryRepo(store),
			idempotency:  memStorage.NewIdempotencyRepo(store),
			audit:        memStorage.NewAuditRepo(store),
			transactor:   store,
			health:       memStorage.NewHealthCheck(),
			close:        func() {},
		}, nil

	case "postgres", "":
		pool, err := pgStorage.NewPool(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		log.Info().Msg("PostgreSQL connected")

		if cfg.AutoMigrate {
			if err := pgStorage.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
			log.Info().Msg("Schema migrated")
		}

		return &repositories{
			users:        pgStorage.NewUserRepo(pool),
			accounts:     pgStorage.NewAccountRepo(pool),
			transactions: pgStorage.NewTransactionRepo(pool),
			loans:        pgStorage.NewLoanRepo(pool),
			treasury:     pgStorage.NewTreasuryRepo(pool),
			idempotency:  pgStorage.NewIdempotencyRepo(pool),
			audit:        pgStorage.NewAuditRepository(pool),
			transactor:   pgStorage.NewTransactor(pool, cfg.LockTimeout),
			health:       pgStorage.NewHealthCheck(pool),
			close:        pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

func ginMode(mode string) string {
	switch mode {
	case gin.DebugMode, gin.TestMode:
		return mode
	}
	return gin.ReleaseMode
}
