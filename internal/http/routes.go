package http

import (
	"cloudmine_backend/internal/config"
	"cloudmine_backend/internal/http/handlers"
	"cloudmine_backend/internal/http/middleware"
	"cloudmine_backend/internal/service"
	"cloudmine_backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles the wired engine services the API exposes.
type Services struct {
	Mining      *service.MiningService
	Ledger      *service.LedgerService
	Payments    *service.PaymentService
	Withdrawals *service.WithdrawalService
}

func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, cfg *config.Config, svc Services, hub *ws.Hub, version string) {
	h := handlers.NewHandler(svc.Mining, svc.Ledger, svc.Payments, svc.Withdrawals)
	authHandler := handlers.NewAuthHandler(cfg.InternalAuthKey)
	healthHandler := handlers.NewHealthHandler(db, version)

	// Probes and metrics stay outside the rate limiter.
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/ws", h.WS(hub))

	v1 := r.Group("/api/v1")
	v1.POST("/auth/token", middleware.RateLimit(cfg.APIRateLimit, cfg.APIRateWindow), authHandler.IssueToken)

	authed := v1.Group("")
	authed.Use(middleware.JWT(), middleware.RateLimit(cfg.APIRateLimit, cfg.APIRateWindow))

	authed.GET("/plans", h.Plans)

	authed.POST("/mining/start", h.StartMining)
	authed.POST("/mining/stop", h.StopMining)
	authed.GET("/mining/status", h.MiningStatus)

	authed.GET("/balance", h.Balance)
	authed.GET("/ledger", h.LedgerHistory)

	authed.POST("/payments", h.SubmitPayment)
	authed.GET("/payments/:id", h.PaymentStatus)

	authed.POST("/withdrawals", h.RequestWithdrawal)
	authed.GET("/withdrawals", h.ListWithdrawals)
	authed.GET("/wallets", h.Wallets)
}
