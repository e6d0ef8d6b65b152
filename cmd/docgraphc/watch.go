package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"beliefgraph/infrastructure/di"
	"beliefgraph/infrastructure/persistence/watch"
)

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := cmd.Context()
	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer container.Close()

	paths, err := container.FileSystem.Discover(container.Registry.Has)
	if err != nil {
		return fmt.Errorf("discover sources: %w", err)
	}
	for _, p := range paths {
		container.Driver.Enqueue(p)
	}
	diags, err := container.Driver.Run(ctx)
	if err != nil {
		return fmt.Errorf("initial compile: %w", err)
	}
	logDiagnostics(container.Logger, diags)

	debounce := time.Duration(container.Config.WatchDebounceMS) * time.Millisecond
	w, err := watch.New(container.FileSystem.Root(), debounce, container.Logger)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	container.Logger.Info("watching for changes", zap.String("root", container.FileSystem.Root()))
	if err := w.Run(sigCtx, container.Driver); err != nil && sigCtx.Err() == nil {
		return fmt.Errorf("watch: %w", err)
	}
	container.Logger.Info("shutting down")
	return nil
}
