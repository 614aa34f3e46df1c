package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/truongngoctrac/claims-platform/config"
	adjhandler "github.com/truongngoctrac/claims-platform/internal/handler/adjudication"
	cardhandler "github.com/truongngoctrac/claims-platform/internal/handler/card"
	claimhandler "github.com/truongngoctrac/claims-platform/internal/handler/claim"
	"github.com/truongngoctrac/claims-platform/internal/handler/health"
	promhandler "github.com/truongngoctrac/claims-platform/internal/handler/prometheus"
	refhandler "github.com/truongngoctrac/claims-platform/internal/handler/reference"
	"github.com/truongngoctrac/claims-platform/internal/middleware"
	"github.com/truongngoctrac/claims-platform/internal/repository"
	"github.com/truongngoctrac/claims-platform/internal/repository/cache"
	"github.com/truongngoctrac/claims-platform/internal/repository/memory"
	"github.com/truongngoctrac/claims-platform/internal/repository/postgres"
	redisrepo "github.com/truongngoctrac/claims-platform/internal/repository/redis"
	"github.com/truongngoctrac/claims-platform/internal/router"
	"github.com/truongngoctrac/claims-platform/internal/service/adjudication"
	"github.com/truongngoctrac/claims-platform/internal/service/card"
	"github.com/truongngoctrac/claims-platform/internal/service/claimnumber"
	"github.com/truongngoctrac/claims-platform/internal/service/policy"
	"github.com/truongngoctrac/claims-platform/internal/service/reference"
	"github.com/truongngoctrac/claims-platform/pkg/auth"
	"github.com/truongngoctrac/claims-platform/pkg/logger"
	"github.com/truongngoctrac/claims-platform/pkg/messaging/redis"
	"github.com/truongngoctrac/claims-platform/pkg/metrics"
)

// repositories is the storage the API runs on, whichever backend was chosen.
type repositories struct {
	cards      repository.CardRepository
	facilities repository.FacilityRepository
	policies   repository.PolicyRepository
	claims     repository.ClaimRepository
	sequences  repository.SequenceRepository
	pingers    map[string]health.Pinger
	closers    []func() error
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger(nil).Fatal(err, "failed to load configuration")
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		JSON:       cfg.Log.JSON,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	var m *metrics.Metrics
	if cfg.Monitoring.PrometheusEnabled {
		m = metrics.NewMetrics(registry, cfg.Monitoring.Namespace, "api")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg, log)
	if err != nil {
		log.Fatal(err, "failed to initialize storage")
	}
	defer func() {
		for _, closeFn := range repos.closers {
			if err := closeFn(); err != nil {
				log.Error(err, "failed to close resource")
			}
		}
	}()

	policies := repos.policies
	if cfg.PolicyCache.Enabled {
		policies = cache.NewPolicyRepository(policies, cache.Config{
			TTL:             cfg.PolicyCache.TTL,
			CleanupInterval: cfg.PolicyCache.CleanupInterval,
		})
	}

	// Initialize services
	resolver := policy.NewResolver(policies)
	validator := card.NewValidator()
	numbers := claimnumber.NewGenerator(repos.sequences, claimnumber.Config{
		RetryAttempts: cfg.ClaimNumber.RetryAttempts,
		RetryDelay:    cfg.ClaimNumber.RetryDelay,
	}, log, m)

	cardSvc := card.NewService(repos.cards, resolver, validator, log)
	referenceSvc := reference.NewService(repos.cards, repos.facilities, policies, log)
	adjudicationSvc := adjudication.NewService(adjudication.Deps{
		Cards:      repos.cards,
		Facilities: repos.facilities,
		Claims:     repos.claims,
		Resolver:   resolver,
		Validator:  validator,
		Numbers:    numbers,
		Logger:     log,
		Metrics:    m,
	})

	handlers := router.Handlers{
		Health:       health.NewHandler(repos.pingers),
		Card:         cardhandler.NewHandler(cardSvc),
		Adjudication: adjhandler.NewHandler(adjudicationSvc),
		Claim:        claimhandler.NewHandler(adjudicationSvc),
		Reference:    refhandler.NewHandler(referenceSvc),
	}
	if cfg.Monitoring.PrometheusEnabled {
		handlers.Metrics = promhandler.New(registry)
	}

	r := router.NewRouter(
		middleware.NewAuthMiddleware(auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer)),
		handlers,
		log,
		m,
		router.RouterConfig{
			Mode:             cfg.Server.Mode,
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			MetricsPath:      cfg.Monitoring.MetricsPath,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr, "sequence_backend", cfg.Storage.SequenceBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "server forced to shutdown")
		return
	}

	log.Info("server exited properly")
}

func openRepositories(ctx context.Context, cfg *config.Config, log *logger.Logger) (*repositories, error) {
	if cfg.Storage.SequenceBackend == config.SequenceMemory {
		log.Warn("running on the in-memory store, data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			cards:      store.Cards(),
			facilities: store.Facilities(),
			policies:   store.Policies(),
			claims:     store.Claims(),
			sequences:  store.Sequences(),
			pingers:    map[string]health.Pinger{},
		}, nil
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	repos := &repositories{
		pingers: map[string]health.Pinger{"database": db},
		closers: []func() error{db.Close},
	}
	if err := migrate(ctx, cfg, db); err != nil {
		db.Close()
		return nil, err
	}

	pg := postgres.NewRepositories(db)
	repos.cards = pg.Cards
	repos.facilities = pg.Facilities
	repos.policies = pg.Policies
	repos.claims = pg.Claims
	repos.sequences = pg.Sequences

	if cfg.Storage.SequenceBackend == config.SequenceRedis {
		client, err := redis.NewClient(ctx, redisConfig(cfg.Redis))
		if err != nil {
			db.Close()
			return nil, err
		}
		repos.sequences = redisrepo.NewSequenceRepository(client, pg.Claims)
		repos.pingers["redis"] = pingRedis(client)
		repos.closers = append(repos.closers, client.Close)
	}
	return repos, nil
}

func migrate(ctx context.Context, cfg *config.Config, db *sqlx.DB) error {
	if !cfg.Database.AutoMigrate {
		return nil
	}
	return postgres.Migrate(ctx, db)
}

func redisConfig(c config.RedisConfig) redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}

func pingRedis(client *goredis.Client) health.Pinger {
	return health.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}
