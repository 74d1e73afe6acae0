// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"shopledger/internal/domain/reconciliation"
	"shopledger/pkg/logger"
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

// Sweeper is the reconciliation entry point the nightly job calls.
type Sweeper interface {
	RecalculateAll(ctx context.Context) (*reconciliation.Report, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron    *cron.Cron
	log     *logger.Logger
	timeout time.Duration
}

// New creates a scheduler. Each run gets its own context bounded by timeout.
func New(log *logger.Logger, timeout time.Duration) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Scheduler{
		cron:    cron.New(),
		log:     log.WithComponent("scheduler"),
		timeout: timeout,
	}
}

// Add registers job under a standard 5-field cron expression.
func (s *Scheduler) Add(spec, name string, job Job) error {
	if _, err := s.cron.AddFunc(spec, func() { s.run(name, job) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	return nil
}

// AddReconciliation schedules the full debt and stock sweep.
func (s *Scheduler) AddReconciliation(spec string, sweeper Sweeper) error {
	return s.Add(spec, "reconciliation", ReconcileJob(sweeper, s.log))
}

// ReconcileJob wraps RecalculateAll as a Job that logs its report.
func ReconcileJob(sweeper Sweeper, log *logger.Logger) Job {
	return func(ctx context.Context) error {
		report, err := sweeper.RecalculateAll(ctx)
		if err != nil {
			return err
		}
		if len(report.Debts)+len(report.Stocks) > 0 {
			log.Warnw("reconciliation repaired drift",
				"debt_corrections", len(report.Debts),
				"stock_corrections", len(report.Stocks))
		}
		return nil
	}
}

func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		s.log.Errorw("scheduled job failed", "job", name, "error", err)
		return
	}
	s.log.Infow("scheduled job finished", "job", name, "duration_ms", time.Since(start).Milliseconds())
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.log.Infow("starting scheduler", "jobs", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.log.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}
