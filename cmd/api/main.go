package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintech-ledger/config"
	httpHandler "fintech-ledger/internal/adapter/http/handler"
	"fintech-ledger/internal/adapter/metrics"
	"fintech-ledger/internal/adapter/notify"
	pgStorage "fintech-ledger/internal/adapter/storage/postgres"
	redisStorage "fintech-ledger/internal/adapter/storage/redis"
	"fintech-ledger/internal/core/ports"
	"fintech-ledger/internal/scheduler"
	"fintech-ledger/internal/service"
	"fintech-ledger/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("FTL_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("jwt.secret must be set (FTL_JWT_SECRET)")
	}

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting FinTech Ledger")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	memberRepo := pgStorage.NewMemberRepo(pool)
	accountRepo := pgStorage.NewAccountRepo(pool)
	cardRepo := pgStorage.NewCardRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)
	hostname, _ := os.Hostname()
	settlementLock := redisStorage.NewSettlementLock(rdb, hostname)

	// Outbound notices
	var notifier ports.Notifier = notify.NopNotifier{}
	if cfg.SMTP.Host != "" {
		notifier = notify.NewEmailNotifier(cfg.SMTP, logger.Component(log, "notify"))
		log.Info().Str("smtp", cfg.SMTP.Addr()).Msg("Email notices enabled")
	}

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	auditSvc := service.NewAuditService(auditRepo, logger.Component(log, "audit"))

	// Initialize business services
	memberSvc := service.NewMemberService(memberRepo, hashSvc, tokenSvc)
	accountSvc := service.NewAccountService(accountRepo, memberRepo, cardRepo, txRepo, hashSvc, transactor, log)
	transferSvc := service.NewTransferService(accountRepo, memberRepo, txRepo, hashSvc, transactor, log)
	cardSvc := service.NewCardService(cardRepo, accountRepo, memberRepo, txRepo, hashSvc, transactor, notifier, logger.Component(log, "billing"))
	historySvc := service.NewHistoryService(accountRepo, txRepo, hashSvc)

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.New(cfg.Metrics.Namespace)
	}

	// Settlement scheduler
	var sched *scheduler.Scheduler
	if cfg.Settlement.Enabled {
		opts := []scheduler.Option{
			scheduler.WithLock(settlementLock),
			scheduler.WithAudit(auditSvc),
		}
		if collector != nil {
			opts = append(opts, scheduler.WithMetrics(collector))
		}
		sched, err = scheduler.New(cfg.Settlement, cardSvc, logger.Component(log, "scheduler"), opts...)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to configure settlement scheduler")
		}
		sched.Start()
	}

	// Load OpenAPI document for Swagger UI
	if specBytes, err := os.ReadFile("docs/api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI document loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI document not found, Swagger UI will be unavailable")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		MemberSvc:      memberSvc,
		AccountSvc:     accountSvc,
		TransferSvc:    transferSvc,
		CardSvc:        cardSvc,
		HistorySvc:     historySvc,
		TokenSvc:       tokenSvc,
		RateLimiter:    rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgStorage.NewHealthCheck(pool), redisStorage.NewHealthCheck(rdb)},
		AuditSvc:       auditSvc,
		Metrics:        collector,
		Mode:           cfg.Server.Mode,
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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	auditSvc.Wait()

	log.Info().Msg("Server exited")
}
