package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corebank-ng/ledger/internal/auth"
	"github.com/corebank-ng/ledger/internal/config"
	"github.com/corebank-ng/ledger/internal/handler"
	"github.com/corebank-ng/ledger/internal/logging"
	"github.com/corebank-ng/ledger/internal/middleware"
	"github.com/corebank-ng/ledger/internal/repository"
	"github.com/corebank-ng/ledger/internal/service/ledger"
	"github.com/corebank-ng/ledger/internal/service/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("corebank-ledger", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	accounts := repository.NewAccountRepository(db)
	transactions := repository.NewTransactionRepository(db)
	cards := repository.NewCardRepository(db)
	notifications := repository.NewNotificationRepository(db)

	notifier := notify.NewService(notifications)
	engine := ledger.NewEngine(
		accounts,
		transactions,
		cards,
		notifier,
		auth.NewBcryptVerifier(),
		ledger.NewUUIDReferenceGenerator(),
		db,
		cfg,
	)

	if cfg.NotifyWebhookURL != "" {
		forwarder := notify.NewForwarder(
			notifications,
			cfg.NotifyWebhookURL,
			time.Duration(cfg.NotifyForwardIntvlS)*time.Second,
			slog.Default(),
		)
		go forwarder.Start(ctx)
	}

	transactionHandler := handler.NewTransactionHandler(engine, transactions, accounts)
	notificationHandler := handler.NewNotificationHandler(notifications)
	accountHandler := handler.NewAccountHandler(accounts)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.Health)

	authed := middleware.Auth(cfg.JWTSecret)
	mux.Handle("POST /api/v1/transactions", authed(http.HandlerFunc(transactionHandler.Create)))
	mux.Handle("GET /api/v1/transactions", authed(http.HandlerFunc(transactionHandler.List)))
	mux.Handle("GET /api/v1/transactions/{locator}", authed(http.HandlerFunc(transactionHandler.Get)))
	mux.Handle("GET /api/v1/accounts", authed(http.HandlerFunc(accountHandler.List)))
	mux.Handle("GET /api/v1/notifications", authed(http.HandlerFunc(notificationHandler.List)))
	mux.Handle("POST /api/v1/notifications/{id}/read", authed(http.HandlerFunc(notificationHandler.MarkRead)))

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
