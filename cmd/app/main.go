package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"order-service/internal/adapters/cli"
	"order-service/internal/app"
	"order-service/internal/config"
	"order-service/internal/core"
	"order-service/internal/db"
	"order-service/internal/logging"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	// stdout carries command output, so logs go to stderr.
	logger, err := logging.NewStderrLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	root := cli.NewRootCommand(cli.Deps{
		Open: func(ctx context.Context) (app.ApplicationService, func(), error) {
			return open(ctx, cfg, logger)
		},
		MigrateUp:   func() error { return db.MigrateUp(cfg.DatabaseURL) },
		MigrateDown: func() error { return db.MigrateDown(cfg.DatabaseURL) },
	})
	err = root.ExecuteContext(ctx)
	stop()
	os.Exit(logging.ExitCode(logger, "command failed", err))
}

// open connects to the database and wires the service graph.
func open(ctx context.Context, cfg config.Config, logger *zap.Logger) (app.ApplicationService, func(), error) {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	catalog := core.NewCatalog(pool)
	if err := catalog.Reload(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	orderService := core.NewOrderService(pool, catalog, core.OrderServiceConfig{
		DefaultCurrency:     cfg.DefaultCurrency,
		OrderNumberAttempts: cfg.OrderNumberAttempts,
		Logger:              logger.Named("orders"),
	})
	svc := app.NewAppService(pool, catalog, orderService, core.NewStatsService(pool), logger.Named("app"))
	return svc, pool.Close, nil
}
