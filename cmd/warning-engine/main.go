package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/PEASEC/Warning-Messenger-Bot/internal/api"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/config"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/feeds"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/logging"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/matching"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/models"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/observability"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/repository"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/scheduler"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/transport"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("warning engine starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	metrics := observability.NewMetrics()

	client := feeds.NewClient(cfg.Feeds.BaseURL, cfg.Feeds.Timeout)
	adapters := make([]*feeds.Adapter, 0, len(cfg.Feeds.Enabled))
	for _, slug := range cfg.Feeds.Enabled {
		category := models.ParseCategory(cfg.Feeds.Categories[slug])
		adapters = append(adapters, feeds.NewAdapter(client, slug, category))
	}
	aggregator := feeds.NewAggregator(adapters, cfg.Feeds.Concurrency, metrics)

	var deliverer transport.Deliverer
	if cfg.Delivery.WebhookURL != "" {
		deliverer = transport.NewWebhookDeliverer(cfg.Delivery.WebhookURL, cfg.Delivery.HMACSecret, cfg.Delivery.Timeout)
	} else {
		slog.Warn("no delivery webhook configured, using log transport")
		deliverer = transport.NewLogDeliverer()
	}

	engine := matching.NewEngine(db, db, db, deliverer, metrics, cfg.Worker.Count, cfg.Worker.BufferSize)
	cycle := scheduler.NewCycle(aggregator, client, engine)
	sched := scheduler.New(cfg.Cycle.Interval, cfg.Cycle.Timeout, clockwork.NewRealClock(), cycle, metrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "PUT", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))
	router.Use(api.RateLimitMiddleware(5, 10))

	handler := api.NewHandler(cycle, db, db)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
