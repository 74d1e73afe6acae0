// Package main is the entry point for the shopledger background worker:
// the outbox relay to Redis and the scheduled ledger reconciliation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"shopledger/internal/config"
	appctx "shopledger/internal/core/context"
	"shopledger/internal/domain/reconciliation"
	"shopledger/internal/infrastructure/broker"
	"shopledger/internal/infrastructure/scheduler"
	"shopledger/internal/infrastructure/storage/postgres"
	"shopledger/internal/infrastructure/storage/postgres/catalog_repo"
	"shopledger/internal/infrastructure/storage/postgres/document_repo"
	"shopledger/internal/infrastructure/storage/postgres/register_repo"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting shopledger worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DB.URL, cfg.DB.MaxConns, cfg.DB.MinConns))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txOpts := postgres.DefaultTxOptions()
	txOpts.IsolationLevel = postgres.ParseIsolation(cfg.DB.TxIsolation)
	txOpts.StatementTimeout = cfg.DB.StatementTimeout
	txOpts.LockTimeout = cfg.DB.LockTimeout
	txManager := postgres.NewTxManager(pool, txOpts)

	// --- Outbox relay ---
	redisPub := broker.NewRedisPublisher(broker.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Channel:  cfg.Redis.Channel,
	})
	defer func() { _ = redisPub.Close() }()
	if err := redisPub.Ping(ctx); err != nil {
		log.Warnw("redis not reachable, deliveries will retry", "addr", cfg.Redis.Addr, "error", err)
	}
	relay := postgres.NewOutboxRelay(txManager, cfg.Outbox.BatchSize, redisPub)

	// --- Reconciliation ---
	auditor, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}
	recon := reconciliation.NewService(
		catalog_repo.NewCounterpartyRepo(txManager),
		catalog_repo.NewProductRepo(txManager),
		document_repo.NewOrderRepo(txManager),
		register_repo.NewCashRepo(txManager),
		register_repo.NewStockRepo(txManager),
		txManager,
		postgres.NewOutboxPublisher(txManager),
		auditor,
	)

	idempotency := postgres.NewIdempotencyStore(txManager, cfg.Idempotency.TTL)

	sched := scheduler.New(log, 30*time.Minute)
	if err := sched.AddReconciliation(cfg.Reconcile.Schedule, recon); err != nil {
		log.Fatalw("invalid reconciliation schedule", "schedule", cfg.Reconcile.Schedule, "error", err)
	}
	mustAdd(log, sched, "@every 5m", "outbox-dlq", func(ctx context.Context) error {
		n, err := relay.MoveToDLQ(ctx)
		if n > 0 {
			logger.Warn(ctx, "outbox messages dead-lettered", "count", n)
		}
		return err
	})
	mustAdd(log, sched, "@hourly", "outbox-purge", func(ctx context.Context) error {
		n, err := relay.PurgePublished(ctx, cfg.Outbox.Retention)
		if n > 0 {
			logger.Info(ctx, "purged published outbox messages", "count", n)
		}
		return err
	})
	mustAdd(log, sched, "@hourly", "idempotency-cleanup", func(ctx context.Context) error {
		n, err := idempotency.CleanupExpired(ctx)
		if n > 0 {
			logger.Info(ctx, "cleaned up idempotency keys", "count", n)
		}
		return err
	})
	sched.Start()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runRelay(ctx, relay, cfg.Outbox.PollInterval, log.WithComponent("outbox"))
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()
	sched.Stop()

	wg.Wait()
	log.Info("worker stopped")
}

func mustAdd(log *logger.Logger, sched *scheduler.Scheduler, spec, name string, job scheduler.Job) {
	if err := sched.Add(spec, name, job); err != nil {
		log.Fatalw("failed to schedule job", "job", name, "error", err)
	}
}

// runRelay polls the outbox until ctx is cancelled. A full batch is followed
// immediately by another poll.
func runRelay(ctx context.Context, relay *postgres.OutboxRelay, interval time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for ctx.Err() == nil {
			batchCtx := appctx.WithTrace(ctx, appctx.NewTraceContext())
			n, err := relay.ProcessBatch(batchCtx)
			if err != nil {
				log.WithContext(batchCtx).Errorw("outbox batch failed", "error", err)
				break
			}
			if n > 0 {
				log.WithContext(batchCtx).Debugw("outbox batch delivered", "count", n)
			}
			if n == 0 {
				break
			}
		}
	}
}
