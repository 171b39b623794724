package matching

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/PEASEC/Warning-Messenger-Bot/internal/models"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/observability"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/repository"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/transport"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/worker"
)

// LocationSource resolves the target-location names of a warning.
type LocationSource interface {
	TargetLocations(ctx context.Context, warningID string) []string
}

// Engine cross-joins the cycle's warnings with every opted-in
// recipient's subscriptions and delivers each positive match exactly
// once. Recipients are processed in parallel on a worker pool; all work
// for one recipient stays on one worker, so its delivery records are
// written serially.
type Engine struct {
	deliveries repository.DeliveryRepository
	prefs      repository.PreferenceRepository
	directory  repository.LocationDirectory
	deliverer  transport.Deliverer
	metrics    *observability.Metrics
	workers    int
	bufferSize int
}

func NewEngine(
	deliveries repository.DeliveryRepository,
	prefs repository.PreferenceRepository,
	directory repository.LocationDirectory,
	deliverer transport.Deliverer,
	metrics *observability.Metrics,
	workers, bufferSize int,
) *Engine {
	return &Engine{
		deliveries: deliveries,
		prefs:      prefs,
		directory:  directory,
		deliverer:  deliverer,
		metrics:    metrics,
		workers:    workers,
		bufferSize: bufferSize,
	}
}

// CycleStats summarizes one matching run.
type CycleStats struct {
	Warnings   int
	Recipients int
	Delivered  int64
	Skipped    int64 // already-delivered pairs
	Faults     int64 // recipients aborted on persistence failure
}

// Run matches every warning against every opted-in recipient and
// returns when all deliveries of this cycle are resolved. Errors on one
// recipient never stop the others.
func (e *Engine) Run(ctx context.Context, warnings []models.Warning, locations LocationSource) CycleStats {
	stats := CycleStats{Warnings: len(warnings)}

	recipients, err := e.prefs.ListOptedInRecipients(ctx)
	if err != nil {
		slog.Error("listing recipients failed", "error", err)
		stats.Faults++
		return stats
	}
	stats.Recipients = len(recipients)
	if len(recipients) == 0 || len(warnings) == 0 {
		return stats
	}

	var delivered, skipped, faults atomic.Int64

	pool := worker.NewPool(e.workers, e.bufferSize, func(ctx context.Context, recipientID string) error {
		counts, err := e.processRecipient(ctx, recipientID, warnings, locations)
		delivered.Add(counts.delivered)
		skipped.Add(counts.skipped)
		if err != nil {
			slog.Error("recipient matching aborted", "recipient", recipientID, "error", err)
			e.metrics.RecipientErrors.Inc()
			faults.Add(1)
		}
		return err
	})
	pool.Start(ctx)
	for _, id := range recipients {
		if !pool.Submit(ctx, id) {
			break
		}
	}
	pool.Stop()

	stats.Delivered = delivered.Load()
	stats.Skipped = skipped.Load()
	stats.Faults = faults.Load()
	return stats
}

type recipientCounts struct {
	delivered int64
	skipped   int64
}

func (e *Engine) processRecipient(ctx context.Context, recipientID string, warnings []models.Warning, locations LocationSource) (recipientCounts, error) {
	var counts recipientCounts

	subscriptions, err := e.prefs.GetSubscriptions(ctx, recipientID)
	if err != nil {
		return counts, err
	}
	if len(subscriptions) == 0 {
		return counts, nil
	}

	// Resolve each subscription's location name once per cycle. A
	// location that left the directory makes its subscription
	// non-matching, not the recipient faulty.
	names := make([]string, len(subscriptions))
	for i, sub := range subscriptions {
		name, err := e.directory.ResolveName(ctx, sub.LocationID)
		if err != nil {
			if !errors.Is(err, repository.ErrLocationUnknown) {
				return counts, err
			}
			slog.Warn("subscription references unknown location", "recipient", recipientID, "location_id", sub.LocationID)
		}
		names[i] = name
	}

	for _, warning := range warnings {
		received, err := e.deliveries.HasReceived(ctx, recipientID, warning.ID)
		if err != nil {
			return counts, err
		}
		if received {
			counts.skipped++
			e.metrics.DedupSkipsTotal.Inc()
			continue
		}

		for i, sub := range subscriptions {
			if names[i] == "" {
				continue
			}
			if !LocationMatches(names[i], locations.TargetLocations(ctx, warning.ID)) {
				continue
			}
			threshold, ok := sub.Threshold(warning.Category)
			if !ok || !warning.Severity.AtLeast(threshold) {
				continue
			}

			// A positive match. Deliver first, record only after the
			// transport acknowledged; a failed send leaves no record so
			// the pair retries next cycle.
			if err := e.deliverer.Deliver(ctx, recipientID, warning); err != nil {
				slog.Error("delivery failed", "recipient", recipientID, "warning", warning.ID, "error", err)
				e.metrics.DeliveryErrorsTotal.Inc()
				break
			}
			if err := e.deliveries.RecordReceived(ctx, recipientID, warning.ID); err != nil {
				return counts, err
			}
			counts.delivered++
			e.metrics.DeliveriesTotal.Inc()
			break // one delivery per (recipient, warning) pair
		}
	}

	return counts, nil
}
