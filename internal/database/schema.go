package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/babbageLabs/insta-lite/internal/config"
	"github.com/babbageLabs/insta-lite/internal/middleware"

	"gorm.io/gorm"
)

// DB_SCHEMA_MODE values.
const (
	// SchemaModeHybrid runs SQL migrations, plus AutoMigrate outside prod-like envs.
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaStatus describes what ApplySchema would do and which migrations are pending.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
}

// schemaPlan is the resolved DB_SCHEMA_MODE for one driver and environment.
type schemaPlan struct {
	mode    string
	runSQL  bool
	runAuto bool
	// destructive is AutoMigrate explicitly allowed in a prod-like env.
	destructive bool
}

func isProdLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

func normalizedSchemaMode(cfg *config.Config) string {
	if mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode)); mode != "" {
		return mode
	}
	return SchemaModeHybrid
}

// planSchema resolves the schema steps. The SQL migrations target Postgres,
// so SQLite always uses AutoMigrate whatever the mode.
func planSchema(cfg *config.Config) (schemaPlan, error) {
	plan := schemaPlan{mode: normalizedSchemaMode(cfg)}
	switch plan.mode {
	case SchemaModeSQL, SchemaModeAuto, SchemaModeHybrid:
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.mode)
	}

	if driverName(cfg) == "sqlite" {
		plan.runAuto = true
		return plan, nil
	}

	prodLike := isProdLikeEnv(cfg.Env)
	switch plan.mode {
	case SchemaModeSQL:
		plan.runSQL = true
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.runAuto = true
		plan.destructive = prodLike
	case SchemaModeHybrid:
		plan.runSQL = true
		plan.runAuto = !prodLike
	}
	return plan, nil
}

// ApplySchema runs SQL migrations and/or AutoMigrate per DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}
	logger := middleware.Component("schema")

	if plan.runSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.runAuto {
		if plan.destructive {
			logger.Warn("AutoMigrate enabled in a prod-like environment; review schema diffs before deploying")
		}
		logger.Info("running AutoMigrate", slog.String("mode", plan.mode), slog.String("env", cfg.Env))
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// GetSchemaStatus reports the schema plan and, when SQL migrations are in
// play, which of them are applied and pending.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{
		Mode:               plan.mode,
		Environment:        cfg.Env,
		WillRunSQL:         plan.runSQL,
		WillRunAutoMigrate: plan.runAuto,
	}
	if !plan.runSQL {
		return status, nil
	}

	m := NewMigrator(db, migrations)
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	for _, row := range applied {
		status.AppliedVersions = append(status.AppliedVersions, row.Version)
	}
	status.PendingMigrations = m.pending(applied)
	return status, nil
}
