// Package bootstrap initializes the process-wide runtime dependencies.
package bootstrap

import (
	"context"
	"fmt"

	"feeds/internal/cache"
	"feeds/internal/config"
	"feeds/internal/database"
	"feeds/internal/middleware"
	"feeds/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedPreset names a built-in seed preset or a YAML preset file. It is
	// applied only to an empty database outside production.
	SeedPreset string
}

// InitRuntime connects to the database and Redis and optionally seeds demo
// data. The returned Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()

	if opts.SeedPreset != "" && !cfg.IsProduction() {
		if err := seedIfEmpty(db, opts.SeedPreset); err != nil {
			return nil, nil, fmt.Errorf("failed to seed %q: %w", opts.SeedPreset, err)
		}
	}

	return db, rdb, nil
}

func seedIfEmpty(db *gorm.DB, preset string) error {
	var users int64
	if err := db.Table("users").Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		middleware.Logger.Info("seed skipped, database not empty", "users", users)
		return nil
	}

	opts, err := seed.ResolvePreset(preset)
	if err != nil {
		return err
	}
	_, err = seed.NewSeeder(db, opts).Run(context.Background())
	return err
}
