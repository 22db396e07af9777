package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"medium_syncer/internal/domain"
)

// Runner defines the interface for triggering a sync run.
type Runner interface {
	Run(ctx context.Context) (*domain.RunResult, error)
}

// Scheduler fires one sync run per day at a fixed wall-clock time.
type Scheduler struct {
	runner Runner
	hour   int
	minute int
	loc    *time.Location
	logger *slog.Logger

	mu   sync.Mutex
	next time.Time
}

func NewScheduler(runner Runner, hour, minute int, loc *time.Location, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		hour:   hour,
		minute: minute,
		loc:    loc,
		logger: logger,
	}
}

// NextRun reports the next scheduled fire time. Zero before Start.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started",
		"hour", s.hour,
		"minute", s.minute,
		"timezone", s.loc.String(),
	)

	for {
		next := s.nextAfter(time.Now().In(s.loc))
		s.mu.Lock()
		s.next = next
		s.mu.Unlock()

		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-timer.C:
			s.runSync(ctx)
		}
	}
}

// nextAfter computes the first HH:MM occurrence strictly after now.
func (s *Scheduler) nextAfter(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *Scheduler) runSync(ctx context.Context) {
	syncCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	if _, err := s.runner.Run(syncCtx); err != nil {
		s.logger.Error("scheduled sync failed", "error", err)
	}
}
