package handler

import (
	"banking-ledger/internal/adapter/http/middleware"
	redisStore "banking-ledger/internal/adapter/storage/redis"
	"banking-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	LedgerSvc      ports.LedgerService
	TransferSvc    ports.TransferService
	LoanSvc        ports.LoanService
	ReportingSvc   ports.ReportingService
	TokenSvc       ports.TokenService
	AuditSvc       ports.AuditService        // nil = audit logging disabled
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Retry          *RetryPolicy
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBodyBytes))

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	retry := deps.Retry
	if retry == nil {
		retry = &RetryPolicy{maxAttempts: 1, log: deps.Logger, sleep: sleepCtx}
	}

	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	resolve := middleware.ResolveAccount(deps.LedgerSvc)
	active := middleware.RequireActiveAccount()

	accountHandler := NewAccountHandler(deps.LedgerSvc, deps.TransferSvc, retry)
	transactionHandler := NewTransactionHandler(deps.ReportingSvc)
	loanHandler := NewLoanHandler(deps.LoanSvc, retry)

	accounts := v1.Group("/accounts", jwtAuth)
	{
		accounts.POST("", rl("accounts"), accountHandler.Create)

		me := accounts.Group("/me", resolve)
		me.GET("", rl("read"), accountHandler.Get)
		me.DELETE("", rl("accounts"), accountHandler.Delete)
		me.POST("/status", rl("accounts"), accountHandler.SetStatus)
		me.GET("/balance", rl("read"), active, accountHandler.Balance)
		me.POST("/deposit", rl("money"), active, accountHandler.Deposit)
		me.POST("/withdraw", rl("money"), active, accountHandler.Withdraw)
		me.POST("/transfer", rl("transfer"), active, accountHandler.Transfer)
	}

	transactions := v1.Group("/transactions", jwtAuth, resolve)
	{
		transactions.GET("", rl("read"), transactionHandler.List)
		transactions.GET("/stats", rl("read"), transactionHandler.Stats)
	}

	loans := v1.Group("/loans", jwtAuth, resolve)
	{
		loans.POST("", rl("loans"), loanHandler.Originate)
		loans.GET("", rl("read"), loanHandler.List)
	}

	return r
}
