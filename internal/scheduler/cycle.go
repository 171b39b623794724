package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/PEASEC/Warning-Messenger-Bot/internal/feeds"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/matching"
)

// Cycle wires the aggregator and the matching engine into one runnable
// unit and remembers the outcome of the most recent run for the ops
// surface.
type Cycle struct {
	aggregator *feeds.Aggregator
	client     *feeds.Client
	engine     *matching.Engine

	mu   sync.RWMutex
	last LastCycle
}

// LastCycle is a snapshot of the most recently completed cycle.
type LastCycle struct {
	CompletedAt time.Time
	Duration    time.Duration
	Stats       matching.CycleStats
}

func NewCycle(aggregator *feeds.Aggregator, client *feeds.Client, engine *matching.Engine) *Cycle {
	return &Cycle{
		aggregator: aggregator,
		client:     client,
		engine:     engine,
	}
}

// RunCycle aggregates, matches and delivers once. Target locations are
// resolved through a resolver scoped to this cycle, so detail records
// are fetched at most once per warning and never reused stale.
func (c *Cycle) RunCycle(ctx context.Context) {
	start := time.Now()

	warnings := c.aggregator.Collect(ctx)
	resolver := feeds.NewLocationResolver(c.client)
	stats := c.engine.Run(ctx, warnings, resolver)

	elapsed := time.Since(start)
	slog.Info("cycle complete",
		"warnings", stats.Warnings,
		"recipients", stats.Recipients,
		"delivered", stats.Delivered,
		"skipped", stats.Skipped,
		"faults", stats.Faults,
		"duration", elapsed,
	)

	c.mu.Lock()
	c.last = LastCycle{
		CompletedAt: time.Now(),
		Duration:    elapsed,
		Stats:       stats,
	}
	c.mu.Unlock()
}

// Last returns the snapshot of the most recent completed cycle.
func (c *Cycle) Last() LastCycle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}
