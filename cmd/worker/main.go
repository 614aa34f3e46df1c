package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/truongngoctrac/claims-platform/config"
	"github.com/truongngoctrac/claims-platform/internal/handler/health"
	promhandler "github.com/truongngoctrac/claims-platform/internal/handler/prometheus"
	"github.com/truongngoctrac/claims-platform/internal/repository/postgres"
	"github.com/truongngoctrac/claims-platform/internal/service/event"
	internalworker "github.com/truongngoctrac/claims-platform/internal/worker"
	"github.com/truongngoctrac/claims-platform/pkg/logger"
	"github.com/truongngoctrac/claims-platform/pkg/messaging"
	"github.com/truongngoctrac/claims-platform/pkg/messaging/redis"
	"github.com/truongngoctrac/claims-platform/pkg/metrics"
	"github.com/truongngoctrac/claims-platform/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger(nil).Fatal(err, "failed to load config")
	}

	workerID := generateWorkerID()
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		JSON:       cfg.Log.JSON,
	}).WithFields(map[string]interface{}{"worker_id": workerID})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.NewMetrics(registry, cfg.Monitoring.Namespace, "worker")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The worker relays the Postgres outbox, so it always needs the database.
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()
	repos := postgres.NewRepositories(db)

	pingers := map[string]health.Pinger{"database": db}
	broker, err := newBroker(ctx, cfg, log, pingers)
	if err != nil {
		log.Fatal(err, "failed to create message broker")
	}
	defer broker.Close()

	processor, err := worker.NewOutboxProcessor(
		repos.Outbox,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:     cfg.Outbox.BatchSize,
			PollInterval:  cfg.Outbox.PollInterval,
			RetryAttempts: cfg.Outbox.RetryAttempts,
			RetryDelay:    cfg.Outbox.RetryDelay,
			MaxRetries:    cfg.Outbox.MaxRetries,
			Channel:       cfg.Outbox.Channel,
		},
		log,
		m,
	)
	if err != nil {
		log.Fatal(err, "invalid outbox processor configuration")
	}

	events := event.NewService(repos.Outbox, log)
	cleanup := internalworker.NewOutboxCleanupWorker(events, cfg.Worker.CleanupInterval, log)

	srv := healthServer(cfg, pingers, registry)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "health check server failed")
			cancel()
		}
	}()

	var wg sync.WaitGroup
	run := func(name string, fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("worker started", "job", name)
			fn(ctx)
			log.Info("worker stopped", "job", name)
		}()
	}

	run("outbox", processor.Start)
	run("outbox_cleanup", cleanup.Start)
	if cfg.CardExpiry.Enabled {
		expiry := internalworker.NewCardExpiryWorker(repos.Cards, events, internalworker.CardExpiryConfig{
			Interval:  cfg.CardExpiry.Interval,
			BatchSize: cfg.CardExpiry.BatchSize,
		}, log, m)
		run("card_expiry", expiry.Start)
	}

	<-ctx.Done()
	log.Info("shutting down...")
	wg.Wait()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "health check server forced to shutdown")
	}
}

// newBroker publishes to Redis when a URL is configured and to the log
// otherwise.
func newBroker(ctx context.Context, cfg *config.Config, log *logger.Logger, pingers map[string]health.Pinger) (messaging.Broker, error) {
	if cfg.Redis.URL == "" {
		log.Warn("no redis url configured, events are written to the log")
		return messaging.NewLogBroker(log), nil
	}
	client, err := redis.NewClient(ctx, redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err != nil {
		return nil, err
	}
	pingers["redis"] = health.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	return redis.NewRedisBroker(client, log), nil
}

func healthServer(cfg *config.Config, pingers map[string]health.Pinger, registry *prometheus.Registry) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	health.NewHandler(pingers).RegisterRoutes(engine.Group(""))
	engine.GET(cfg.Monitoring.MetricsPath, promhandler.New(registry).Handler())

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Worker.HealthPort),
		Handler: engine,
	}
}

func generateWorkerID() string {
	// Generate a unique worker ID using hostname and timestamp
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-%d", hostname, time.Now().UnixNano())
}
