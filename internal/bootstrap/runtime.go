// Package bootstrap opens the database and Redis connections shared by the
// server and the admin CLI.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"xweeter/internal/cache"
	"xweeter/internal/config"
	"xweeter/internal/database"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs migrations per DB_SCHEMA_MODE after connecting.
	ApplySchema bool
	// SkipRedis leaves the Redis client nil. The admin CLI never needs it.
	SkipRedis bool
}

// InitRuntime connects to the database and, unless skipped, to Redis. Redis is
// optional: a failed connection is logged and a nil client returned.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options, logger *slog.Logger) (*gorm.DB, *redis.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			closeDB(db)
			return nil, nil, fmt.Errorf("schema setup failed: %w", err)
		}
	}

	if opts.SkipRedis || cfg.RedisURL == "" {
		return db, nil, nil
	}

	rdb, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		logger.WarnContext(ctx, "redis unavailable, broadcasts stay on this instance",
			slog.String("addr", cfg.RedisURL),
			slog.String("error", err.Error()),
		)
		return db, nil, nil
	}
	return db, rdb, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
