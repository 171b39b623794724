package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/PEASEC/Warning-Messenger-Bot/internal/observability"
)

// Runner executes one poll-match-deliver cycle.
type Runner interface {
	RunCycle(ctx context.Context)
}

// Scheduler drives cycles at a fixed interval until its context is
// cancelled. The interval is measured start-to-start: the ticker keeps
// firing on schedule, but a cycle that overruns the interval delays the
// next one until it finishes (ticks are not queued). Cancellation is
// observed between cycles; a running cycle is bounded by the cycle
// timeout instead of being interrupted mid-delivery.
type Scheduler struct {
	interval time.Duration
	timeout  time.Duration
	clock    clockwork.Clock
	runner   Runner
	metrics  *observability.Metrics
}

func New(interval, timeout time.Duration, clock clockwork.Clock, runner Runner, metrics *observability.Metrics) *Scheduler {
	return &Scheduler{
		interval: interval,
		timeout:  timeout,
		clock:    clock,
		runner:   runner,
		metrics:  metrics,
	}
}

// Run blocks until ctx is cancelled. The first cycle starts
// immediately.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("cycle scheduler starting", "interval", s.interval, "timeout", s.timeout)
	s.metrics.EngineRunning.Set(1)
	defer s.metrics.EngineRunning.Set(0)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("cycle scheduler shutting down")
			return
		case <-ticker.Chan():
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(parent context.Context) {
	if parent.Err() != nil {
		return
	}

	start := s.clock.Now()
	// The cycle context carries the parent's values but not its
	// cancellation: shutdown must not interrupt an in-flight
	// deliver-then-record sequence. Only the timeout bounds a running
	// cycle; parent cancellation takes effect at the check above.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.timeout)
	defer cancel()

	s.runner.RunCycle(ctx)

	s.metrics.CyclesTotal.Inc()
	s.metrics.CycleDuration.Observe(s.clock.Since(start).Seconds())
}
