package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"campusticketing/config"
	_ "campusticketing/docs"
	"campusticketing/internal/adapters/auth"
	"campusticketing/internal/adapters/metrics"
	"campusticketing/internal/adapters/ticket"
	deliveryhttp "campusticketing/internal/delivery/http"
	"campusticketing/internal/delivery/http/controllers"
	"campusticketing/internal/delivery/http/middleware"
	"campusticketing/internal/domain"
	"campusticketing/internal/repository/memory"
	"campusticketing/internal/repository/postgres"
	"campusticketing/internal/services"
)

// @title Campus Ticketing API
// @version 1.0
// @description Event registration and check-in for campus events.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// storage bundles the repositories for the configured driver.
type storage struct {
	events        domain.EventRepository
	registrations domain.RegistrationRepository
	health        func(ctx context.Context) error
	close         func() error
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("using in-memory storage; data is lost on restart")
		store := memory.NewStore(cfg.LockTimeout)
		return &storage{
			events:        store.EventRepository(),
			registrations: store.RegistrationRepository(),
			close:         func() error { return nil },
		}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	db, err := postgres.Open(connectCtx, cfg.DBUrl)
	if err != nil {
		return nil, err
	}
	if err := postgres.ApplySchema(connectCtx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("connected to postgres")
	return &storage{
		events:        postgres.NewEventRepository(db),
		registrations: postgres.NewRegistrationRepository(db, cfg.LockTimeout),
		health:        pinger(db),
		close:         db.Close,
	}, nil
}

func pinger(db *sql.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer func() {
		if err := store.close(); err != nil {
			logger.Warn("close storage", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.NewRecorder(registry)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	retry := services.DefaultRetryPolicy()
	retry.MaxAttempts = cfg.RegisterMaxAttempts

	eventSvc := services.NewEventService(store.events, store.registrations, cfg.RequestTimeout)
	registrationSvc := services.NewRegistrationService(store.events, store.registrations, ticket.NewUUIDMinter(), recorder, logger, retry, cfg.RecentWindow)
	checkInSvc := services.NewCheckInService(store.events, store.registrations, recorder, logger, retry)

	router := deliveryhttp.NewRouter(deliveryhttp.RouterDeps{
		Logger:       logger,
		Verifier:     auth.NewJWTVerifier(cfg.JWTSecret),
		Limiter:      middleware.NewRateLimiter(middleware.LimiterConfig{RPS: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}),
		Events:       controllers.NewEventController(logger, eventSvc),
		Registration: controllers.NewRegistrationController(logger, registrationSvc),
		CheckIn:      controllers.NewCheckInController(logger, checkInSvc),
		Metrics:      metrics.Handler(registry),
		Health:       store.health,
	})

	timeoutBody := `{"data":null,"error":{"code":"retryable","message":"request timed out"}}`
	var handler http.Handler = http.TimeoutHandler(router, cfg.RequestTimeout, timeoutBody)
	handler = middleware.CORS(cfg.CORSAllowedOrigins, handler)
	handler = middleware.LoggingMiddleware(logger, handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Environment, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
