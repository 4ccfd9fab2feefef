package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumilend/backend/internal/auth"
	"github.com/lumilend/backend/internal/config"
	"github.com/lumilend/backend/internal/http/handlers"
	"github.com/lumilend/backend/internal/http/middleware"
	"github.com/lumilend/backend/internal/version"
	"github.com/lumilend/backend/internal/ws"
)

const maxRequestBodyBytes = 1 << 20

type Dependencies struct {
	Pinger      handlers.Pinger
	Pool        handlers.PoolService
	Initializer handlers.PoolInitializer
	JWTManager  *auth.JWTManager
	WSHandler   *ws.Handler
	Assets      *handlers.AssetHandler
	Prices      handlers.PriceSetter
	Activity    handlers.ActivityReader
	Gatherer    prometheus.Gatherer
}

func NewRouter(cfg config.Config, logger *slog.Logger, deps Dependencies) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(logger))
	r.Use(middleware.RequestBodyLimit(maxRequestBodyBytes), middleware.RequireJSON())
	if cfg.RateLimitPerMinute > 0 {
		r.Use(middleware.NewRateLimiter(int(cfg.RateLimitPerMinute), int(cfg.RateLimitBurst)).Middleware())
	}

	poolState, _ := deps.Initializer.(handlers.PoolState)
	health := handlers.NewHealthHandler(deps.Pinger, poolState)
	meta := handlers.NewMetaHandler(handlers.Meta{
		Version:       version.Version,
		Env:           cfg.Env,
		StoreBackend:  cfg.StoreBackend,
		Collaborators: cfg.CollaboratorMode,
		Channels:      []string{ws.ChannelPoolActivity, "loan:<id>", "account:<address>"},
	})

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/v1/meta", meta.GetMeta)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}
	if deps.WSHandler != nil {
		r.GET("/ws", deps.WSHandler.HandleWebSocket)
	}

	if deps.Assets != nil {
		r.GET("/v1/assets/:asset/balances/:account", deps.Assets.Balance)
	}
	if deps.Activity != nil {
		activity := handlers.NewActivityHandler(deps.Activity)
		r.GET("/v1/activity", activity.Recent)
		r.GET("/v1/accounts/:address/activity", activity.ForAccount)
	}

	if deps.Pool != nil {
		poolHandler := handlers.NewPoolHandler(deps.Pool)
		loanHandler := handlers.NewLoanHandler(deps.Pool)

		public := r.Group("/v1")
		public.GET("/pool/stats", poolHandler.Stats)
		public.GET("/pool/config", poolHandler.Config)
		public.GET("/lenders/:address", poolHandler.LenderInfo)
		public.GET("/loans/:loanId", loanHandler.GetLoan)
		public.GET("/borrowers/:address/active-loan", loanHandler.ActiveLoan)
		public.POST("/loans/:loanId/liquidate", loanHandler.LiquidateDefaulted)

		if deps.JWTManager != nil {
			protected := r.Group("/v1")
			protected.Use(middleware.RequireAuth(deps.JWTManager))
			protected.POST("/deposits", poolHandler.Deposit)
			protected.POST("/withdrawals", poolHandler.Withdraw)
			protected.POST("/loans", loanHandler.RequestLoan)
			protected.POST("/loans/:loanId/repay", loanHandler.RepayLoan)
		}
	}

	if deps.JWTManager != nil {
		session := handlers.NewSessionHandler(auth.CookieConfig{Secure: cfg.IsProduction()}, cfg.JWTAccessTTL)
		sessionGroup := r.Group("/v1/session")
		sessionGroup.Use(middleware.RequireAuth(deps.JWTManager))
		sessionGroup.POST("", session.Create)
		sessionGroup.GET("", session.Me)
		sessionGroup.DELETE("", session.Delete)

		adminHandler := handlers.NewAdminHandler(deps.Initializer, deps.JWTManager, 24*time.Hour)
		adminGroup := r.Group("/admin")
		adminGroup.Use(middleware.RequireAuth(deps.JWTManager), middleware.RequireRole(auth.RoleAdmin))
		adminGroup.GET("/system/health", adminHandler.SystemHealth)
		adminGroup.POST("/tokens", adminHandler.IssueToken)
		if deps.Initializer != nil {
			adminGroup.POST("/pool/initialize", adminHandler.InitializePool)
		}
		if deps.Assets != nil && deps.Assets.CanMint() {
			adminGroup.POST("/assets/:asset/mint", deps.Assets.Mint)
			adminGroup.POST("/assets/:asset/burn", deps.Assets.Burn)
		}
		if deps.Prices != nil {
			adminGroup.POST("/oracle/prices/:symbol", handlers.NewOracleHandler(deps.Prices).SetPrice)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	return r
}
