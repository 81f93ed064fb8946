package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/taskmate/adapter/cli"
	"github.com/felixgeelhaar/taskmate/adapter/cli/events"
	"github.com/felixgeelhaar/taskmate/adapter/cli/mcp"
	"github.com/felixgeelhaar/taskmate/adapter/cli/task"
	"github.com/felixgeelhaar/taskmate/internal/app"
	"github.com/felixgeelhaar/taskmate/pkg/config"
	"github.com/felixgeelhaar/taskmate/pkg/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		return 1
	}

	logger := observability.LoggerFromConfig(cfg.LogLevel, cfg.AppEnv, cli.Version)
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		return 1
	}
	defer func() {
		// The signal context may already be done; give pending writes their own budget.
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("shutdown incomplete", "error", err)
		}
	}()

	cli.SetApp(&cli.App{
		Config:          cfg,
		Logger:          logger,
		Tasks:           container.Store,
		StorageLocation: container.Backend.Location,
		Bus:             container.Bus,
		Health:          container.Health,
		Metrics:         container.Metrics,
	})

	cli.AddCommand(task.Cmd)
	cli.AddCommand(mcp.Cmd)
	cli.AddCommand(events.Cmd)

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}
