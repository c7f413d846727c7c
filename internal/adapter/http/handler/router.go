package handler

import (
	"vertax/internal/adapter/http/middleware"
	"vertax/internal/core/domain"
	"vertax/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	ReportSvc      ports.TaxReportService
	DefaultRates   domain.TaxRates
	Renderers      map[string]ports.ReportRenderer
	RateLimitStore middleware.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Mode           string // gin mode; empty = release
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	mode := deps.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
	r := gin.New()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(middleware.DefaultMaxBodyBytes))

	// Deep health check: PostgreSQL, Redis, Solana RPC.
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		rule, ok := rules[group]
		if deps.RateLimitStore == nil || !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")

	taxHandler := NewTaxHandler(deps.ReportSvc, deps.DefaultRates)
	tax := v1.Group("/tax")
	{
		tax.POST("/calculate", rl("calculate"), taxHandler.Calculate)
		tax.POST("/estimate", rl("estimate"), taxHandler.Estimate)
	}

	reportHandler := NewReportHandler(deps.ReportSvc, deps.DefaultRates, deps.Renderers)
	wallets := v1.Group("/wallets/:address")
	{
		wallets.POST("/report", rl("report"), reportHandler.Generate)
		wallets.GET("/reports", rl("history"), reportHandler.List)
	}

	return r
}
