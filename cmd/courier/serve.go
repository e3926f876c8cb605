package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/courier/pkg/cli"
	"mercator-hq/courier/pkg/config"
	"mercator-hq/courier/pkg/retention"
	"mercator-hq/courier/pkg/security/auth"
	"mercator-hq/courier/pkg/server"
	"mercator-hq/courier/pkg/telemetry/logging"
)

// narrationProbeInterval is how often the narration service health gauge is
// refreshed.
const narrationProbeInterval = 30 * time.Second

var serveFlags struct {
	listenAddress string
	noScheduler   bool
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the newsletter API and the daily cleanup job",
	Long: `Start the HTTP API with the specified configuration.

The cleanup scheduler runs in the same process and fires daily at 02:00 UTC
unless disabled. On SIGINT or SIGTERM the server stops accepting requests,
finishes active ones and waits for in-flight generation runs up to the
shutdown timeout.

Examples:
  # Start with default config
  courier serve

  # Override listen address
  courier serve --listen 0.0.0.0:8080

  # Validate config without starting server
  courier serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().BoolVar(&serveFlags.noScheduler, "no-scheduler", false, "do not start the daily cleanup job")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if cfg.Security.AdminSecret == "" {
		return cli.NewConfigError("security.admin_secret", "must be set (or COURIER_SECURITY_ADMIN_SECRET)")
	}
	if serveFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	a, err := newApp(ctx, cfg, appOptions{generation: true, metrics: true})
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			slog.Error("failed to release resources", "error", err)
		}
	}()

	secrets := auth.NewSecretValidator(cfg.Security.AdminSecret)
	deps := server.Deps{
		Store:     a.store,
		Generator: a.orchestrator,
		Cleanup:   a.engine,
		Secrets:   secrets,
		AudioDir:  a.artifacts.Dir(),
		Metrics:   a.metrics,
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	}

	if cfg.Retention.SchedulerOn() && !serveFlags.noScheduler {
		scheduler, err := retention.NewScheduler(a.engine, cfg.Retention.Schedule)
		if err != nil {
			return cli.NewConfigError("retention.schedule", err.Error())
		}
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewCommandError("serve", err)
		}
		defer scheduler.Stop()
		deps.Scheduler = scheduler
	} else {
		slog.Info("cleanup scheduler disabled")
	}

	srv, err := server.NewServer(cfg, deps)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	watcher := config.NewWatcher(cfgFile, 0, onConfigReload(logger, secrets))
	go func() {
		if err := watcher.Watch(ctx); err != nil {
			slog.Warn("config watcher stopped", "error", err)
		}
	}()
	go probeNarration(ctx, a)

	fmt.Fprintf(cmd.OutOrStdout(), "Courier v%s listening on %s\n", Version, cfg.Server.ListenAddress)

	serveErr := srv.Start(ctx)

	waitCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if active := a.orchestrator.Active(); len(active) > 0 {
		slog.Info("waiting for in-flight generation", "runs", len(active))
	}
	if err := a.orchestrator.Wait(waitCtx); err != nil {
		slog.Warn("generation still running at shutdown; its record stays generating",
			"runs", len(a.orchestrator.Active()),
		)
	}

	if serveErr != nil {
		return cli.NewCommandError("serve", serveErr)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Server stopped")
	return nil
}

// onConfigReload applies the settings that can change without a restart:
// the log level and the admin secret.
func onConfigReload(logger *logging.Logger, secrets *auth.SecretValidator) func(*config.Config) {
	return func(next *config.Config) {
		level := next.Telemetry.Logging.Level
		if verbose {
			level = "debug"
		}
		if err := logger.SetLevel(level); err != nil {
			slog.Warn("ignoring invalid log level", "level", level, "error", err)
		}

		if next.Security.AdminSecret == "" {
			slog.Warn("reloaded config has no admin secret; keeping the current one")
			return
		}
		secrets.Rotate(next.Security.AdminSecret)
	}
}

// probeNarration keeps the narration health gauge current.
func probeNarration(ctx context.Context, a *app) {
	if a.metrics == nil || a.narrator == nil {
		return
	}
	ticker := time.NewTicker(narrationProbeInterval)
	defer ticker.Stop()

	for {
		probeCtx, cancel := context.WithTimeout(ctx, narrationProbeInterval/2)
		err := a.narrator.Health(probeCtx)
		cancel()
		a.metrics.UpdateProviderHealth("narration", err == nil)
		if err != nil {
			slog.Debug("narration service unhealthy", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
