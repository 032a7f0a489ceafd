package main

import (
	"context"
	"fmt"
	"log/slog"

	"saharasprout/aigate/pkg/config"
	"saharasprout/aigate/pkg/store"
)

// loadConfig reads the configured file, or falls back to built-in
// defaults when no file was given.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default()
	}
	return config.Load(cfgFile)
}

// buildStore opens the configured store backend.
func buildStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case "redis":
		s, err := store.NewRedisStore(ctx, store.RedisConfig{
			Address:     cfg.Store.Redis.Address,
			Password:    cfg.Store.Redis.Password,
			DB:          cfg.Store.Redis.DB,
			KeyPrefix:   cfg.Store.Redis.KeyPrefix,
			DialTimeout: cfg.Store.Redis.DialTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info("connected to redis", "address", cfg.Store.Redis.Address)
		return s, nil

	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.Store.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		logger.Info("opened sqlite store", "path", cfg.Store.SQLite.Path)
		return s, nil

	case "memory":
		logger.Warn("using in-memory store; counters do not survive restarts")
		return store.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
