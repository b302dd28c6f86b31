package main

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Xinye0723/HrBackend/pkg/config"
	"github.com/Xinye0723/HrBackend/pkg/employees"
	"github.com/Xinye0723/HrBackend/pkg/hierarchy"
	"github.com/Xinye0723/HrBackend/pkg/interfaces"
	"github.com/Xinye0723/HrBackend/pkg/logger"
	"github.com/Xinye0723/HrBackend/pkg/metrics"
	"github.com/Xinye0723/HrBackend/pkg/store"
)

// app wires the configured stores and services together
type app struct {
	cfg        *config.Config
	log        *logger.LogrusLogger
	metrics    interfaces.Metrics
	prom       *metrics.PrometheusMetrics
	db         *gorm.DB
	units      interfaces.UnitStore
	repository *employees.Repository
	engine     *hierarchy.Engine
	employees  *employees.Manager
}

func newApp(cfg *config.Config) (*app, error) {
	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg, log: log, metrics: metrics.NewNoOpMetrics()}
	if cfg.MetricsEnabled {
		a.prom = metrics.NewPrometheusMetrics("hr")
		a.metrics = a.prom
	}

	a.db, err = store.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	// the memory driver keeps units in process; employees still need SQL
	if cfg.Database.Driver == "memory" {
		a.units = hierarchy.NewMemoryStore()
	} else {
		a.units = store.NewUnitStore(a.db)
	}

	a.repository = employees.NewRepository(a.db)
	a.engine = hierarchy.NewEngine(a.units, a.log, a.metrics)
	a.employees = employees.NewManager(cfg.Auth, a.repository, a.log, a.metrics)

	a.log.Debug("Application initialized", map[string]interface{}{
		"driver":  cfg.Database.Driver,
		"metrics": cfg.MetricsEnabled,
	})
	return a, nil
}

// migrate creates or updates the schema
func (a *app) migrate(ctx context.Context) error {
	if us, ok := a.units.(*store.UnitStore); ok {
		if err := us.Migrate(ctx); err != nil {
			return err
		}
	}
	return a.repository.Migrate(ctx)
}

// bootstrap seeds the organization when asked and creates the configured admin
func (a *app) bootstrap(ctx context.Context, seed bool) error {
	if seed {
		if _, err := a.engine.Seed(ctx); err != nil {
			return fmt.Errorf("failed to seed units: %w", err)
		}
	}
	if a.cfg.Auth.BootstrapAdminID != "" {
		if _, err := a.employees.EnsureAdmin(ctx, a.cfg.Auth.BootstrapAdminID, a.cfg.Auth.BootstrapAdminPassword); err != nil {
			return fmt.Errorf("failed to create bootstrap admin: %w", err)
		}
	}
	return nil
}

// close releases the database; a gorm unit store shares it
func (a *app) close() {
	if err := store.Close(a.db); err != nil {
		a.log.Error("Failed to close database", err)
	}
}
