// Package app wires the API server together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/order"
	"github.com/sneakyevil96/DatabaseProject/internal/handler"
	"github.com/sneakyevil96/DatabaseProject/internal/outbox"
	"github.com/sneakyevil96/DatabaseProject/internal/storage/postgres"
	"github.com/sneakyevil96/DatabaseProject/pkg/health"
	"github.com/sneakyevil96/DatabaseProject/pkg/httpmiddleware"
)

// Run creates all dependencies, serves HTTP until ctx is done and then shuts
// down gracefully.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	outboxRepo := postgres.NewOutboxRepository(pool)

	healthSvc := health.New()
	healthSvc.Register(health.Check{
		Name:    "postgres",
		Probe:   health.Readiness,
		Timeout: 5 * time.Second,
		Func:    health.PingCheck(pool),
	})
	healthSvc.Register(health.Check{
		Name:    "outbox",
		Probe:   health.Readiness,
		Timeout: 5 * time.Second,
		Func:    health.BacklogCheck(outboxRepo.Backlog, cfg.Outbox.BacklogLimit),
	})
	healthSvc.Register(health.Check{
		Name:  "goroutines",
		Probe: health.Liveness,
		Func:  health.GoroutineCountCheck(10000),
	})
	healthSvc.Start(zctx.Base(ctx, lg.Named("health")), 10*time.Second)
	defer healthSvc.Stop()

	orderService, err := order.NewService(postgres.NewTransactor(pool),
		order.WithLocation(loc),
		order.WithTelemetry(m.TracerProvider(), m.MeterProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "create order service")
	}

	var publisher outbox.Publisher = outbox.NewLogPublisher(lg.Named("outbox"))
	if cfg.Outbox.AMQPURL != "" {
		amqpPub := outbox.NewAMQPPublisher(cfg.Outbox.AMQPURL, cfg.Outbox.Exchange)
		defer func() { _ = amqpPub.Close() }()
		publisher = amqpPub
	}
	relay := outbox.NewRelay(outboxRepo, publisher, outbox.RelayConfig{
		Interval:  cfg.Outbox.Interval,
		BatchSize: cfg.Outbox.BatchSize,
	}, lg.Named("outbox"))
	if err := relay.Start(ctx); err != nil {
		return errors.Wrap(err, "start outbox relay")
	}
	defer relay.Stop()

	h := handler.New(
		postgres.NewCatalogRepository(pool),
		orderService,
		handler.NewAuthenticator(postgres.NewAPIKeyRepository(pool), []byte(cfg.APIKeyPepper)),
	)
	router := h.Router()
	router.Get("/livez", healthSvc.LiveEndpoint)
	router.Get("/readyz", healthSvc.ReadyEndpoint)

	limiter := httpmiddleware.NewLimiter(httpmiddleware.RateLimitConfig{
		Max:    cfg.RateLimit.Max,
		Window: cfg.RateLimit.Window,
	})
	go limiter.Run(ctx)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(router,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Recovery(),
			limiter.Middleware(),
			httpmiddleware.Instrument("pizzeria-api", m.TracerProvider(), m.MeterProvider()),
		),
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
	}()

	healthSvc.SetReady(true)
	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
