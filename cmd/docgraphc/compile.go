package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"beliefgraph/diagnostics"
	"beliefgraph/infrastructure/config"
	"beliefgraph/infrastructure/di"
)

// loadConfig builds configuration from the environment, then applies
// any flags the invoking subcommand set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("root") {
		cfg.NetworkRoot, _ = cmd.Flags().GetString("root")
	}
	if cmd.Flags().Changed("write-back") {
		cfg.WriteBack, _ = cmd.Flags().GetBool("write-back")
	}
	if cmd.Flags().Changed("address") {
		cfg.ServerAddress, _ = cmd.Flags().GetString("address")
	}
	return cfg, nil
}

// logDiagnostics reports every diagnostic at a level matching its
// severity, and returns true if any diagnostic was fatal.
func logDiagnostics(logger *zap.Logger, diags []diagnostics.Diagnostic) bool {
	fatal := false
	for _, d := range diags {
		fields := []zap.Field{zap.String("path", d.Path())}
		switch d.Severity() {
		case diagnostics.SeverityFatal:
			fatal = true
			logger.Error(d.Error(), fields...)
		case diagnostics.SeverityPending:
			logger.Warn(d.Error(), fields...)
		default:
			logger.Info(d.Error(), fields...)
		}
	}
	return fatal
}

func runCompile(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("compile: %w", err)
	}
	fatal := logDiagnostics(container.Logger, diags)

	container.Logger.Info("compile complete",
		zap.Int("files", len(paths)),
		zap.Int("diagnostics", len(diags)),
	)
	if fatal {
		return fmt.Errorf("compile produced fatal diagnostics")
	}
	return nil
}
