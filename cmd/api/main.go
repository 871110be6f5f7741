package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/booking-api/internal/config"
	appointmentHandler "github.com/jwalitptl/booking-api/internal/handler/appointment"
	authHandler "github.com/jwalitptl/booking-api/internal/handler/auth"
	doctorHandler "github.com/jwalitptl/booking-api/internal/handler/doctor"
	"github.com/jwalitptl/booking-api/internal/handler/health"
	messageHandler "github.com/jwalitptl/booking-api/internal/handler/message"
	settingsHandler "github.com/jwalitptl/booking-api/internal/handler/settings"
	"github.com/jwalitptl/booking-api/internal/middleware"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
	"github.com/jwalitptl/booking-api/internal/router"
	appointmentService "github.com/jwalitptl/booking-api/internal/service/appointment"
	authService "github.com/jwalitptl/booking-api/internal/service/auth"
	"github.com/jwalitptl/booking-api/internal/service/availability"
	doctorService "github.com/jwalitptl/booking-api/internal/service/doctor"
	"github.com/jwalitptl/booking-api/internal/service/event"
	messageService "github.com/jwalitptl/booking-api/internal/service/message"
	settingsService "github.com/jwalitptl/booking-api/internal/service/settings"
	"github.com/jwalitptl/booking-api/internal/worker"
	"github.com/jwalitptl/booking-api/pkg/auth"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/messaging"
	messagingMemory "github.com/jwalitptl/booking-api/pkg/messaging/memory"
	"github.com/jwalitptl/booking-api/pkg/messaging/redis"
	"github.com/jwalitptl/booking-api/pkg/metrics"
	"github.com/jwalitptl/booking-api/pkg/security"
)

const notifierReadyTimeout = 5 * time.Second

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(&logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	appLogger.SetGlobal()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(cfg.Metrics.Namespace)

	broker, err := newBroker(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal(err, "failed to initialize message broker")
	}
	defer broker.Close()

	// Initialize repositories
	store := memory.NewStore()
	if err := memory.Seed(ctx, store, cfg.Booking.SlotMinutes); err != nil {
		appLogger.Fatal(err, "failed to seed directory")
	}
	userRepo := memory.NewUserRepository(store)
	doctorRepo := memory.NewDoctorRepository(store)
	appointmentRepo := memory.NewAppointmentRepository(store)
	messageRepo := memory.NewMessageRepository(store)
	settingsRepo := memory.NewSettingsRepository(store)

	// Initialize services
	tokens, err := auth.NewHMACVerifier(auth.HMACConfig{
		Secret: cfg.Secrets.JWTSecret,
		Issuer: cfg.Auth.Issuer,
		TTL:    cfg.Auth.TokenTTL,
	})
	if err != nil {
		appLogger.Fatal(err, "failed to initialize token verifier")
	}
	authSvc, err := authService.NewService(userRepo, doctorRepo, tokens, security.NewBcryptHasher(cfg.Auth.BcryptCost), authService.Config{
		DemoPassword: cfg.Auth.DemoPassword,
		SlotMinutes:  cfg.Booking.SlotMinutes,
	})
	if err != nil {
		appLogger.Fatal(err, "failed to initialize auth service")
	}

	publisher := event.NewPublisher(broker, m)
	calculator := availability.NewCalculator(doctorRepo, appointmentRepo)
	appointmentSvc := appointmentService.NewService(appointmentRepo, doctorRepo, calculator, publisher, m, appointmentService.Options{
		RejectPastSlots: cfg.Booking.RejectPastSlots,
	})

	// Start the notifier before accepting traffic
	notifier := worker.NewBookingNotifier(broker, messageRepo, appLogger, m)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := notifier.Start(workerCtx); err != nil {
			appLogger.Error(err, "booking notifier stopped")
		}
	}()
	readyCtx, cancelReady := context.WithTimeout(ctx, notifierReadyTimeout)
	err = notifier.WaitReady(readyCtx)
	cancelReady()
	if err != nil {
		appLogger.Fatal(err, "failed to start booking notifier")
	}

	routerConfig := router.RouterConfig{
		CORSConfig:     middleware.DefaultCORSConfig(),
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	}
	routerConfig.CORSConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	if cfg.RateLimit.Enabled {
		routerConfig.RateLimit = &middleware.RateLimiterConfig{
			Rate:    rate.Limit(cfg.RateLimit.RPS),
			Burst:   cfg.RateLimit.Burst,
			IdleTTL: cfg.RateLimit.IdleTTL,
		}
	}

	// Setup router
	r := router.NewRouter(middleware.NewAuthMiddleware(authSvc), router.Handlers{
		Auth:        authHandler.NewHandler(authSvc),
		Doctor:      doctorHandler.NewHandler(doctorService.NewService(doctorRepo)),
		Appointment: appointmentHandler.NewHandler(appointmentSvc, calculator),
		Message:     messageHandler.NewHandler(messageService.NewService(messageRepo, userRepo)),
		Settings:    settingsHandler.NewHandler(settingsService.NewService(settingsRepo)),
		Health: health.NewHandler(map[string]health.Check{
			"broker": broker.Ping,
		}, m.Handler()),
	}, m, routerConfig)
	r.Setup()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r.Engine(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		appLogger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(err, "failed to start server")
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err, "server forced to shutdown")
	}

	// drain in-flight events before the notifier stops consuming
	publisher.Wait()
	stopWorker()
	select {
	case <-workerDone:
	case <-time.After(cfg.Server.ShutdownTimeout):
		appLogger.Warn("booking notifier did not stop in time")
	}

	appLogger.Info("server exited properly")
}

// newBroker connects to Redis when a URL is configured and falls back to the
// in-process broker otherwise.
func newBroker(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (messaging.Broker, error) {
	if cfg.Redis.URL == "" {
		appLogger.Info("no redis url configured, using in-process broker")
		return messagingMemory.NewBroker(), nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	broker, err := redis.NewBroker(connectCtx, redis.Config{
		URL:           cfg.Redis.URL,
		MaxRetries:    cfg.Redis.MaxRetries,
		PoolSize:      cfg.Redis.PoolSize,
		ChannelPrefix: cfg.Redis.ChannelPrefix,
	}, appLogger.Zerolog().With().Str("component", "redis_broker").Logger())
	if err != nil {
		return nil, err
	}
	appLogger.Info("connected to redis broker")
	return broker, nil
}
