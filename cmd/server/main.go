package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	webAdapter "order-service/internal/adapters/web"
	"order-service/internal/app"
	"order-service/internal/config"
	"order-service/internal/core"
	"order-service/internal/db"
	"order-service/internal/kafka"
	"order-service/internal/logging"
	"order-service/internal/metrics"
	"order-service/internal/outbox"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	os.Exit(logging.ExitCode(logger, "server stopped", err))
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if cfg.MigrateOnStart {
		if err := db.MigrateUp(cfg.DatabaseURL); err != nil {
			return err
		}
		logger.Info("database schema up to date")
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	catalog := core.NewCatalog(pool)
	if cfg.SeedOnStart {
		if err := catalog.Seed(ctx); err != nil {
			return err
		}
	} else if err := catalog.Reload(ctx); err != nil {
		return err
	}

	m := metrics.New()
	orderService := core.NewOrderService(pool, catalog, core.OrderServiceConfig{
		DefaultCurrency:     cfg.DefaultCurrency,
		OrderNumberAttempts: cfg.OrderNumberAttempts,
		Logger:              logger.Named("orders"),
		Observer:            m,
	})
	statsService := core.NewStatsService(pool)
	svc := app.NewAppService(pool, catalog, orderService, statsService, logger.Named("app"))

	if cfg.KafkaEnabled() {
		publisher, err := kafka.NewPublisher(kafka.NewClient(cfg.KafkaBrokers), cfg.OrderEventsTopic)
		if err != nil {
			return err
		}
		defer publisher.Close()
		relay := outbox.NewRelay(outbox.NewStore(pool), publisher, logger.Named("outbox"), cfg.OutboxPollInterval, cfg.OutboxBatchSize)
		go relay.Run(ctx)
	} else {
		logger.Info("KAFKA_BROKERS not set, order events stay in the outbox")
	}

	handler := webAdapter.NewHandler(svc, webAdapter.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger.Named("http"),
		Metrics:        m,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
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

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
