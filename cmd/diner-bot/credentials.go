// ABOUTME: Credential cache backend selection for the bot process
// ABOUTME: Builds the memory, SQLite or Redis cache and its background sweep

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/diner-bot/internal/config"
	"github.com/2389/diner-bot/internal/credentials"
	"github.com/2389/diner-bot/internal/store"
)

const sweepInterval = time.Minute

// buildCredentialCache returns the configured cache and a function releasing it.
// db may be nil unless the sqlite backend is selected.
func buildCredentialCache(ctx context.Context, cfg *config.Config, db store.CredentialStore, logger *slog.Logger) (credentials.Cache, func(), error) {
	switch cfg.Credentials.Backend {
	case config.CredentialsMemory:
		cache := credentials.NewMemoryCache(cfg.Credentials.MaxEntries, sweepInterval)
		return cache, func() { _ = cache.Close() }, nil

	case config.CredentialsSQLite:
		if db == nil {
			return nil, nil, fmt.Errorf("sqlite credentials backend needs database.path")
		}
		cache := credentials.NewStoreCache(db)
		sweepCtx, cancel := context.WithCancel(ctx)
		go sweepStoreCache(sweepCtx, cache, logger)
		return cache, cancel, nil

	case config.CredentialsRedis:
		cache, err := credentials.NewRedisCache(ctx, cfg.Credentials.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return cache, func() { _ = cache.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown credentials backend %q", cfg.Credentials.Backend)
	}
}

// sweepStoreCache deletes expired credential rows until ctx is done.
func sweepStoreCache(ctx context.Context, cache *credentials.StoreCache, logger *slog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := cache.Sweep(ctx)
			if err != nil {
				logger.Warn("credential sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("swept expired credentials", "count", n)
			}
		}
	}
}
