package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Xinye0723/HrBackend/api"
	"github.com/Xinye0723/HrBackend/pkg/config"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			mgr, cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			a.log.Info("Starting hrbackend", map[string]interface{}{
				"version":    Version,
				"build_time": BuildTime,
				"git_commit": GitCommit,
			})

			if err := a.migrate(ctx); err != nil {
				return err
			}
			if err := a.bootstrap(ctx, seed || cfg.Database.Driver == "memory"); err != nil {
				return err
			}

			if mgr.Path() != "" {
				watchConfig(ctx, mgr, a, opts.logLevel == "")
			}

			server := api.NewServer(cfg, a.engine, a.employees, a.log, a.metrics)
			server.SetVersion(Version)
			server.AddHealthCheck("database", a.employees.HealthCheck)
			server.AddHealthCheck("units", a.units.Ping)
			if a.prom != nil {
				server.SetMetricsHandler(a.prom.Handler())
			}
			return server.Start(ctx)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "seed the initial organization when the unit table is empty")
	return cmd
}

// watchConfig applies log level edits without a restart. Other settings need one.
func watchConfig(ctx context.Context, mgr *config.Manager, a *app, followLevel bool) {
	err := mgr.Watch(ctx, func(cfg *config.Config) {
		if followLevel && cfg.LogLevel != a.log.Level() {
			a.log.SetLevel(cfg.LogLevel)
		}
		a.log.Info("Configuration reloaded", map[string]interface{}{
			"path":      mgr.Path(),
			"log_level": a.log.Level(),
		})
	}, func(err error) {
		a.log.Warn("Ignoring invalid configuration change", map[string]interface{}{"error": err.Error()})
	})
	if err != nil {
		a.log.Warn("Configuration watch disabled", map[string]interface{}{"error": err.Error()})
	}
}
