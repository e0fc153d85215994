package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"xweeter/internal/config"
	"xweeter/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes accepted by DB_SCHEMA_MODE. sql applies the embedded
// migrations; auto lets GORM create the tables from the models and is only
// allowed outside production-like environments.
const (
	SchemaModeSQL  = "sql"
	SchemaModeAuto = "auto"
)

// TableStatus is one of the service's tables as seen by the status report.
type TableStatus struct {
	Name   string
	Exists bool
	Rows   int64
}

// SchemaStatus is what `replyctl migrate status` prints.
type SchemaStatus struct {
	Mode              string
	Environment       string
	AppliedVersions   []int
	PendingMigrations []Migration
	Tables            []TableStatus
}

func schemaMode(cfg *config.Config) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	switch mode {
	case "", SchemaModeSQL:
		return SchemaModeSQL, nil
	case SchemaModeAuto:
		if isProdLikeEnv(cfg.Env) {
			return "", fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q, use the sql migrations", cfg.Env)
		}
		return SchemaModeAuto, nil
	default:
		return "", fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
}

func isProdLikeEnv(env string) bool {
	e := strings.ToLower(strings.TrimSpace(env))
	return e == "production" || e == "prod" || e == "staging" || e == "stage"
}

// ApplySchema brings the replies and likes tables (and the users/xweets read
// models they join) up to date according to DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	mode, err := schemaMode(cfg)
	if err != nil {
		return err
	}

	if mode == SchemaModeAuto {
		middleware.Logger.Info("Running GORM AutoMigrate", slog.String("env", cfg.Env))
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
		return nil
	}

	if err := RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("run sql migrations: %w", err)
	}
	return nil
}

// GetSchemaStatus reports applied and pending migrations and the row count of
// every service table, without changing anything.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	mode, err := schemaMode(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{Mode: mode, Environment: cfg.Env}

	if mode == SchemaModeSQL {
		applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
		if err != nil {
			return nil, err
		}
		status.AppliedVersions = applied

		appliedSet := make(map[int]bool, len(applied))
		for _, version := range applied {
			appliedSet[version] = true
		}
		for _, m := range GetMigrations() {
			if !appliedSet[m.Version] {
				status.PendingMigrations = append(status.PendingMigrations, m)
			}
		}
	}

	tables, err := tableStatuses(ctx, db)
	if err != nil {
		return nil, err
	}
	status.Tables = tables
	return status, nil
}

func tableStatuses(ctx context.Context, db *gorm.DB) ([]TableStatus, error) {
	tx := db.WithContext(ctx)
	out := make([]TableStatus, 0, len(PersistentModels()))
	for _, model := range PersistentModels() {
		stmt := &gorm.Statement{DB: tx}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse %T: %w", model, err)
		}

		ts := TableStatus{Name: stmt.Schema.Table}
		if tx.Migrator().HasTable(model) {
			ts.Exists = true
			if err := tx.Model(model).Count(&ts.Rows).Error; err != nil {
				return nil, fmt.Errorf("count %s: %w", ts.Name, err)
			}
		}
		out = append(out, ts)
	}
	return out, nil
}
