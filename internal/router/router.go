package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/booking-api/internal/handler/appointment"
	"github.com/jwalitptl/booking-api/internal/handler/auth"
	"github.com/jwalitptl/booking-api/internal/handler/doctor"
	"github.com/jwalitptl/booking-api/internal/handler/health"
	"github.com/jwalitptl/booking-api/internal/handler/message"
	"github.com/jwalitptl/booking-api/internal/handler/settings"
	"github.com/jwalitptl/booking-api/internal/middleware"
	"github.com/jwalitptl/booking-api/pkg/metrics"
	"github.com/jwalitptl/booking-api/pkg/validator"
)

// Handlers groups the resource handlers mounted under /api/v1.
type Handlers struct {
	Auth        *auth.Handler
	Doctor      *doctor.Handler
	Appointment *appointment.Handler
	Message     *message.Handler
	Settings    *settings.Handler
	Health      *health.Handler
}

type RouterConfig struct {
	CORSConfig     middleware.CORSConfig
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	// RateLimit guards the credential endpoints; nil disables it.
	RateLimit *middleware.RateLimiterConfig
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	metrics  *metrics.Metrics
	config   RouterConfig
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, m *metrics.Metrics, config RouterConfig) *Router {
	validator.Register()

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		metrics:  m,
		config:   config,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
	)
	if m != nil {
		engine.Use(middleware.Metrics(m))
	}
	engine.Use(
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
	)
	if config.MaxBodyBytes > 0 {
		engine.Use(middleware.SizeLimit(config.MaxBodyBytes))
	}
	if config.RequestTimeout > 0 {
		engine.Use(middleware.Timeout(config.RequestTimeout))
	}

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	if r.handlers.Health != nil {
		r.handlers.Health.RegisterRoutes(api)
	}

	limit := func(c *gin.Context) { c.Next() }
	if r.config.RateLimit != nil {
		limit = middleware.NewRateLimiter(*r.config.RateLimit).RateLimit()
	}
	r.handlers.Auth.RegisterRoutes(api, r.auth, limit)
	r.handlers.Doctor.RegisterRoutes(api, r.auth)
	r.handlers.Appointment.RegisterRoutes(api, r.auth)
	r.handlers.Message.RegisterRoutes(api, r.auth)
	r.handlers.Settings.RegisterRoutes(api, r.auth)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
