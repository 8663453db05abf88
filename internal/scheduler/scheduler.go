package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

const (
	defaultInterval = 5 * time.Minute
	defaultTimeout  = 30 * time.Second
)

// Refresher is the work the scheduler triggers on every tick.
type Refresher interface {
	RefreshAll(ctx context.Context) error
}

// Config selects the schedule. Cron wins over Interval when both are set.
type Config struct {
	Interval time.Duration
	Cron     string
	Timeout  time.Duration
}

// Scheduler periodically refreshes every configured sensor.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	cfg       Config
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(cfg Config, refresher Refresher, logger *slog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := gocron.NewScheduler(time.UTC)
	// A run still in flight when the next tick fires is not doubled up.
	s.SingletonModeAll()
	// The first run comes from service initialization, not from the scheduler.
	s.WaitForScheduleAll()

	return &Scheduler{
		scheduler: s,
		refresher: refresher,
		cfg:       cfg,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start schedules the refresh job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.refresher == nil {
		return errors.New("scheduler: no refresher configured")
	}

	var err error
	if s.cfg.Cron != "" {
		_, err = s.scheduler.Cron(s.cfg.Cron).Do(s.run)
		s.logger.Info("refresh scheduled", "cron", s.cfg.Cron, "timeout", s.cfg.Timeout)
	} else {
		_, err = s.scheduler.Every(s.cfg.Interval).Do(s.run)
		s.logger.Info("refresh scheduled", "interval", s.cfg.Interval, "timeout", s.cfg.Timeout)
	}
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	s.logger.Debug("running sensor refresh job")
	if err := s.refresher.RefreshAll(ctx); err != nil {
		s.logger.Warn("sensor refresh job finished with errors", "error", err, "elapsed", time.Since(start))
		return
	}
	s.logger.Debug("sensor refresh job completed", "elapsed", time.Since(start))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
