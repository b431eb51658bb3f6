package handler

import (
	"fintech-ledger/internal/adapter/http/middleware"
	"fintech-ledger/internal/adapter/metrics"
	"fintech-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	MemberSvc      ports.MemberService
	AccountSvc     ports.AccountService
	TransferSvc    ports.TransferService
	CardSvc        ports.CardService
	HistorySvc     ports.HistoryService
	TokenSvc       ports.TokenService
	RateLimiter    middleware.Limiter // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	Metrics        *metrics.Collector // nil = /metrics disabled
	Mode           string             // gin mode; empty keeps the current one
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Mode != "" {
		gin.SetMode(deps.Mode)
	}
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
	}
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit
	r.Use(middleware.NoStore())

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	// Health check (deep: verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	if deps.Metrics != nil {
		r.GET("/metrics", deps.Metrics.Handler())
	}

	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if a limiter is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimiter, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	memberHandler := NewMemberHandler(deps.MemberSvc)
	members := v1.Group("/members")
	{
		members.POST("/register", rl(middleware.GroupAuthRegister), memberHandler.Register)
		members.POST("/login", rl(middleware.GroupAuthLogin), memberHandler.Login)
		members.GET("/me", jwtAuth, rl(middleware.GroupQueries), memberHandler.Me)
	}

	accountHandler := NewAccountHandler(deps.AccountSvc, deps.HistorySvc)
	accounts := v1.Group("/accounts", jwtAuth)
	{
		accounts.POST("", rl(middleware.GroupLedger), accountHandler.Create)
		accounts.GET("", rl(middleware.GroupQueries), accountHandler.List)
		accounts.POST("/:number/deposit", rl(middleware.GroupLedger), accountHandler.Deposit)
		accounts.POST("/:number/withdraw", rl(middleware.GroupLedger), accountHandler.Withdraw)
		accounts.POST("/:number/transactions", rl(middleware.GroupQueries), accountHandler.History)
		accounts.DELETE("/:number", rl(middleware.GroupLedger), accountHandler.Close)
	}

	transferHandler := NewTransferHandler(deps.TransferSvc)
	v1.POST("/transfers", jwtAuth, rl(middleware.GroupTransfers), transferHandler.Transfer)

	cardHandler := NewCardHandler(deps.CardSvc)
	cards := v1.Group("/cards", jwtAuth)
	{
		cards.POST("", rl(middleware.GroupLedger), cardHandler.Create)
		cards.GET("", rl(middleware.GroupQueries), cardHandler.ListByMember)
		cards.POST("/by-account", rl(middleware.GroupQueries), cardHandler.ListByAccount)
		cards.POST("/:number/charge", rl(middleware.GroupCardCharge), cardHandler.Charge)
		cards.POST("/:number/payments", rl(middleware.GroupLedger), cardHandler.Pay)
		cards.POST("/:number/history", rl(middleware.GroupQueries), cardHandler.History)
		cards.DELETE("/:number", rl(middleware.GroupLedger), cardHandler.Delete)
	}

	return r
}
