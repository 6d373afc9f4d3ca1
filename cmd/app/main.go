package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloudmine_backend/internal/config"
	"cloudmine_backend/internal/db"
	httpServer "cloudmine_backend/internal/http"
	"cloudmine_backend/internal/http/middleware"
	"cloudmine_backend/internal/logger"
	"cloudmine_backend/internal/repository"
	"cloudmine_backend/internal/service"
	"cloudmine_backend/internal/verifier"
	"cloudmine_backend/internal/ws"

	"github.com/gin-gonic/gin"
)

var version = "dev"

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT") == "json")

	cfg := config.Load()
	service.InitJWT(cfg.JWTSecret)

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	// Repositories
	sessionRepo := repository.NewSessionRepository(dbPool)
	ledgerRepo := repository.NewLedgerRepository(dbPool)
	withdrawalRepo := repository.NewWithdrawalRepository(dbPool)
	paymentRepo := repository.NewPaymentRepository(dbPool)
	userPlanRepo := repository.NewUserPlanRepository(dbPool)
	walletRepo := repository.NewWalletRepository(dbPool)

	// Services share one per-user lock registry so every balance-affecting
	// path excludes the others.
	locks := service.NewLocks()
	ledgerSvc := service.NewLedgerService(ledgerRepo)
	miningSvc := service.NewMiningService(sessionRepo, userPlanRepo, ledgerSvc, locks, cfg.CycleLength)
	withdrawalSvc := service.NewWithdrawalService(withdrawalRepo, ledgerSvc, walletRepo, locks, cfg.MinWithdrawal, cfg.MinWithdrawalByCrypto)

	verifierClient := verifier.NewClient(cfg.VerifierURL, cfg.VerifierAPIKey)
	paymentSvc := service.NewPaymentService(paymentRepo, verifierClient, locks, cfg.PaymentPollInterval, cfg.PaymentVerifyTimeout)

	hub := ws.NewHub()
	scheduler := service.NewAccrualScheduler(sessionRepo, ledgerSvc, cfg.CycleLength, cfg.SchedulerTick)
	scheduler.SetNotifier(hub)

	schedCtx, stopScheduler := context.WithCancel(context.Background())
	go scheduler.Run(schedCtx)

	// Re-attach watchers for payments that were pending when the last
	// process died. Their original deadlines still apply.
	if err := paymentSvc.Resume(context.Background()); err != nil {
		logger.Error("resume pending payments", "error", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	httpServer.RegisterRoutes(r, dbPool, cfg, httpServer.Services{
		Mining:      miningSvc,
		Ledger:      ledgerSvc,
		Payments:    paymentSvc,
		Withdrawals: withdrawalSvc,
	}, hub, version)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	stopScheduler()
	paymentSvc.Close()

	logger.Info("server exited")
}
