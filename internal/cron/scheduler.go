package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"paybridge/internal/config"
	"paybridge/internal/models"
	"paybridge/internal/payment"
)

// StaleStore lists pending payments and is mutated through payment.Transition.
type StaleStore interface {
	payment.Store
	FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.PaymentRecord, error)
}

// Scheduler manages all cron jobs.
type Scheduler struct {
	cron       *cron.Cron
	cfg        config.MaintenanceConfig
	logger     *zap.Logger
	store      StaleStore
	transition *payment.Transition
	now        func() time.Time
}

// New creates a new cron scheduler.
func New(cfg config.MaintenanceConfig, store StaleStore, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		cfg:        cfg,
		logger:     logger,
		store:      store,
		transition: payment.NewTransition(store, logger),
		now:        time.Now,
	}
}

// Start registers and starts all cron jobs.
func (s *Scheduler) Start() error {
	s.logger.Info("Starting cron scheduler...")

	schedule := s.cfg.ReaperSchedule
	if schedule == "" {
		schedule = "0 */15 * * * *"
	}

	// Expire abandoned redirect payments
	if _, err := s.cron.AddFunc(schedule, func() {
		s.logger.Debug("Running: expire pending payments")
		s.expirePendingPayments()
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("Cron scheduler started", zap.String("reaper_schedule", schedule))
	return nil
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) recoverFromPanic(jobName string) {
	if r := recover(); r != nil {
		s.logger.Error("Cron job panicked", zap.String("job", jobName), zap.Any("error", r))
	}
}
