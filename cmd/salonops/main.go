package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/salonops/adapter/cli"
	"github.com/felixgeelhaar/salonops/adapter/cli/block"
	"github.com/felixgeelhaar/salonops/adapter/cli/bookings"
	"github.com/felixgeelhaar/salonops/adapter/cli/events"
	"github.com/felixgeelhaar/salonops/internal/app"
	"github.com/felixgeelhaar/salonops/pkg/config"
	"github.com/felixgeelhaar/salonops/pkg/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		observability.LoggerFromEnv().Error("failed to load config", "error", err)
		return 1
	}

	// stdout belongs to command output.
	logCfg := observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat)
	logCfg.Output = os.Stderr
	if cfg.IsDevelopment() && cfg.LogLevel == "info" {
		logCfg.Level = observability.LogLevelDebug
	}
	logger := observability.NewLogger(logCfg)
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		return 1
	}
	// Close flushes the outbox, so it must run before exit.
	defer container.Close()

	cliApp := &cli.App{
		Session:             container.Session(),
		ListBlocksHandler:   container.ListBlocksHandler,
		LoadBookingsHandler: container.LoadBookingsHandler,
		DeleteBlockHandler:  container.DeleteBlockHandler,
		NewCoordinator:      container.NewCoordinator,
		Health:              container.Health,
	}
	if container.Store != nil {
		cliApp.BookingImporter = container.Store
	}
	if container.BookingsCache != nil {
		cliApp.BookingsCache = container.BookingsCache
	}
	if container.OutboxProcessor != nil {
		cliApp.Outbox = container.Outbox
		cliApp.OutboxRelay = container.OutboxProcessor
	}
	cli.SetApp(cliApp)

	cli.AddCommand(block.Cmd)
	cli.AddCommand(bookings.Cmd)
	cli.AddCommand(events.Cmd)

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}
