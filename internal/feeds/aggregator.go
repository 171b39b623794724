package feeds

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/PEASEC/Warning-Messenger-Bot/internal/models"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/observability"
)

// Aggregator fans out to all configured feed adapters and merges their
// results into one list of active warnings for the cycle. A failing
// feed is logged and counted, never propagated: the remaining feeds'
// warnings are always returned. No deduplication happens across feeds;
// two feeds reporting the same event yield two warnings unless they
// share ids.
type Aggregator struct {
	adapters    []*Adapter
	concurrency int
	metrics     *observability.Metrics
}

func NewAggregator(adapters []*Adapter, concurrency int, metrics *observability.Metrics) *Aggregator {
	return &Aggregator{
		adapters:    adapters,
		concurrency: concurrency,
		metrics:     metrics,
	}
}

// Collect polls every adapter with bounded concurrency and returns the
// merged warning list. All polls have completed or failed by the time
// Collect returns; this is the cycle barrier before matching starts.
func (a *Aggregator) Collect(ctx context.Context) []models.Warning {
	results := make([][]models.Warning, len(a.adapters))

	var g errgroup.Group
	g.SetLimit(a.concurrency)

	for i, adapter := range a.adapters {
		i, adapter := i, adapter
		g.Go(func() error {
			warnings, err := adapter.Poll(ctx)
			if err != nil {
				slog.Error("feed poll failed", "feed", adapter.Slug(), "error", err)
				a.metrics.FeedErrors.WithLabelValues(adapter.Slug()).Inc()
				return nil
			}
			a.metrics.FeedWarnings.WithLabelValues(adapter.Slug()).Set(float64(len(warnings)))
			results[i] = warnings
			slog.Debug("feed poll complete", "feed", adapter.Slug(), "count", len(warnings))
			return nil
		})
	}

	// Poll funcs never return errors; Wait is purely the barrier.
	_ = g.Wait()

	var merged []models.Warning
	for _, warnings := range results {
		merged = append(merged, warnings...)
	}
	return merged
}
