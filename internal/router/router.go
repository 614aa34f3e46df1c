package router

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/truongngoctrac/claims-platform/internal/handler/prometheus"
	"github.com/truongngoctrac/claims-platform/internal/middleware"
	"github.com/truongngoctrac/claims-platform/pkg/logger"
	"github.com/truongngoctrac/claims-platform/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	Mode             string
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	MaxBodySize      int64
	MetricsPath      string
}

// Handlers groups everything the router mounts.
type Handlers struct {
	Health       Handler
	Card         Handler
	Adjudication Handler
	Claim        Handler
	Reference    Handler
	Metrics      *prometheus.Handler
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	config   RouterConfig
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	handlers Handlers,
	log *logger.Logger,
	m *metrics.Metrics,
	config RouterConfig,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New() // Use New() instead of Default() for more control

	// Add core middlewares
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.Metrics(m),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
	)

	sizeLimit := middleware.DefaultSizeLimitConfig()
	if config.MaxBodySize > 0 {
		sizeLimit.MaxBodySize = config.MaxBodySize
	}
	engine.Use(middleware.SizeLimit(sizeLimit))

	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		config:   config,
	}
}

func (r *Router) Setup() {
	if r.handlers.Metrics != nil {
		path := r.config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, r.handlers.Metrics.Handler())
	}

	api := r.engine.Group("/api/v1")

	// Health check endpoints
	if r.handlers.Health != nil {
		r.handlers.Health.RegisterRoutes(api)
	}

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	for _, h := range []Handler{r.handlers.Card, r.handlers.Adjudication, r.handlers.Claim, r.handlers.Reference} {
		if h != nil {
			h.RegisterRoutes(protected)
		}
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
