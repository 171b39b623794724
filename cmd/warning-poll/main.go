package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/PEASEC/Warning-Messenger-Bot/internal/config"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/feeds"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/logging"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/models"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/observability"
)

// warning-poll polls every configured feed once and prints the
// normalized warnings. Useful for checking feed availability and
// vocabulary mapping without running the full engine.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	client := feeds.NewClient(cfg.Feeds.BaseURL, cfg.Feeds.Timeout)
	adapters := make([]*feeds.Adapter, 0, len(cfg.Feeds.Enabled))
	for _, slug := range cfg.Feeds.Enabled {
		category := models.ParseCategory(cfg.Feeds.Categories[slug])
		adapters = append(adapters, feeds.NewAdapter(client, slug, category))
	}
	aggregator := feeds.NewAggregator(adapters, cfg.Feeds.Concurrency, observability.NewMetrics())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Cycle.Timeout)
	defer cancel()

	warnings := aggregator.Collect(ctx)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FEED\tID\tSEVERITY\tCATEGORY\tTYPE\tTITLE")
	for _, warning := range warnings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			warning.Source, warning.ID, warning.Severity, warning.Category, warning.Type, warning.Title)
	}
	w.Flush()

	fmt.Printf("\n%d active warnings across %d feeds\n", len(warnings), len(adapters))
}
