package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"listing_watcher/internal/config"
	"listing_watcher/internal/domain"
)

// Poller runs a single poll cycle.
type Poller interface {
	RunOnce(ctx context.Context) (*domain.PollResult, error)
}

type Scheduler struct {
	poller       Poller
	interval     time.Duration
	cycleTimeout time.Duration
	stopOnError  bool
	logger       *slog.Logger
}

func NewScheduler(poller Poller, cfg config.PollConfig, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		poller:       poller,
		interval:     cfg.Interval,
		cycleTimeout: cfg.CycleTimeout,
		stopOnError:  cfg.StopOnError,
		logger:       logger,
	}
}

// Start runs a cycle immediately and then once per interval until ctx is
// done. Cycles never overlap; ticks missed while a cycle runs are dropped.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval, "cycle_timeout", s.cycleTimeout)

	if err := s.runCycle(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.runCycle(ctx); err != nil {
				return err
			}
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) error {
	cycleCtx, cancel := context.WithTimeout(ctx, s.cycleTimeout)
	defer cancel()

	_, err := s.poller.RunOnce(cycleCtx)
	if err == nil {
		return nil
	}

	s.logger.Error("poll cycle failed", "error", err)
	if s.stopOnError && ctx.Err() == nil {
		return fmt.Errorf("poll cycle: %w", err)
	}
	return nil
}
