package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

const sweepTimeout = 30 * time.Second

// Sweeper ends sessions that have seen no activity for maxIdle.
type Sweeper interface {
	SweepIdle(ctx context.Context, maxIdle time.Duration) int
}

// Scheduler runs the periodic maintenance tasks of the service.
type Scheduler struct {
	scheduler   *gocron.Scheduler
	sweeper     Sweeper
	interval    time.Duration
	idleTimeout time.Duration
	logger      zerolog.Logger
}

func New(sweeper Sweeper, interval, idleTimeout time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		scheduler:   gocron.NewScheduler(time.UTC),
		sweeper:     sweeper,
		interval:    interval,
		idleTimeout: idleTimeout,
		logger:      logger,
	}
}

// Start schedules the idle-session sweep and runs the scheduler in the
// background. The first sweep runs one interval after Start.
func (s *Scheduler) Start() error {
	if s.interval <= 0 || s.idleTimeout <= 0 {
		return fmt.Errorf("invalid sweep schedule: interval %s, idle timeout %s", s.interval, s.idleTimeout)
	}
	if _, err := s.scheduler.Every(s.interval).WaitForSchedule().SingletonMode().Do(s.Sweep); err != nil {
		return fmt.Errorf("failed to schedule idle sweep: %w", err)
	}
	s.scheduler.StartAsync()

	s.logger.Info().
		Dur("interval", s.interval).
		Dur("idle_timeout", s.idleTimeout).
		Msg("scheduler started")
	return nil
}

// Stop terminates all scheduled tasks.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Sweep ends every session idle for longer than the idle timeout.
func (s *Scheduler) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if n := s.sweeper.SweepIdle(ctx, s.idleTimeout); n > 0 {
		s.logger.Info().Int("sessions", n).Msg("ended idle sessions")
	}
}
