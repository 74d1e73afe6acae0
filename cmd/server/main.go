// Package main is the entry point for the shopledger API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopledger/internal/config"
	"shopledger/internal/domain/auth"
	v1 "shopledger/internal/infrastructure/http/v1"
	"shopledger/internal/infrastructure/storage/postgres"
	"shopledger/pkg/logger"
)

func main() {
	envFile := flag.String("env", "", "path to .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting shopledger server", "env", cfg.App.Env)

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DB.URL, cfg.DB.MaxConns, cfg.DB.MinConns))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool, txOptions(cfg))

	svc, err := buildServices(cfg, pool, txManager, log)
	if err != nil {
		log.Fatalw("failed to build services", "error", err)
	}

	routerCfg := v1.RouterConfig{
		Logger:         log,
		Orders:         svc.orders,
		Pricing:        svc.pricing,
		Stock:          svc.stock,
		Cash:           svc.cash,
		Reconciliation: svc.reconciliation,
		Products:       svc.products,
		Counterparties: svc.counterparties,
		DB:             txManager,
	}
	if cfg.App.IsDevelopment() {
		routerCfg.GinMode = "debug"
	}

	// --- Auth ---
	if cfg.Auth.Enabled() {
		routerCfg.JWTValidator = auth.NewJWTService(auth.DefaultJWTConfig(cfg.Auth.JWTSecret))
		log.Info("bearer authentication enabled")
	} else {
		log.Warn("JWT_SECRET not set, /api/v1 is unauthenticated")
	}

	// --- Idempotency ---
	if cfg.Idempotency.Enabled {
		routerCfg.Idempotency = postgres.NewIdempotencyStore(txManager, cfg.Idempotency.TTL)
	}

	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func txOptions(cfg *config.Config) postgres.TxOptions {
	opts := postgres.DefaultTxOptions()
	opts.IsolationLevel = postgres.ParseIsolation(cfg.DB.TxIsolation)
	opts.StatementTimeout = cfg.DB.StatementTimeout
	opts.LockTimeout = cfg.DB.LockTimeout
	return opts
}
