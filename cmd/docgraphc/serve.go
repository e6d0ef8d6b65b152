package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"beliefgraph/infrastructure/di"
	docgraphhttp "beliefgraph/infrastructure/http"
	"beliefgraph/infrastructure/persistence/watch"
)

func runServe(cmd *cobra.Command, args []string) error {
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

	srv := &http.Server{
		Addr:    container.Config.ServerAddress,
		Handler: docgraphhttp.New(container.Store, container.Logger, container.Config.EnableCORS).Handler(),
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		container.Logger.Info("serving graph", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	watchErrCh := make(chan error, 1)
	go func() {
		container.Logger.Info("watching for changes", zap.String("root", container.FileSystem.Root()))
		watchErrCh <- w.Run(sigCtx, container.Driver)
	}()

	select {
	case <-sigCtx.Done():
	case err := <-errCh:
		if err != nil {
			container.Logger.Error("http server failed", zap.Error(err))
		}
	case err := <-watchErrCh:
		if err != nil && sigCtx.Err() == nil {
			container.Logger.Error("watcher failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("http server shutdown error", zap.Error(err))
	}
	container.Logger.Info("shutting down")
	return nil
}
