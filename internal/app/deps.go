package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/shortreel/backend/internal/auth"
	"github.com/shortreel/backend/internal/config"
	"github.com/shortreel/backend/internal/db"
	"github.com/shortreel/backend/internal/handlers"
	"github.com/shortreel/backend/internal/media"
	"github.com/shortreel/backend/internal/middleware"
	"github.com/shortreel/backend/internal/repositories"
	"github.com/shortreel/backend/internal/storage"
	"github.com/shortreel/backend/internal/videos"
)

// cleanupFunc releases resources acquired while building dependencies.
type cleanupFunc func(ctx context.Context) error

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, cleanupFunc, error) {
	var closers []func() error
	cleanup := func(context.Context) error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	var cache videos.FeedCache
	if cfg.RedisURL != "" {
		client, err := videos.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return handlers.Dependencies{}, nil, err
		}
		closers = append(closers, closeRedis(client))
		cache = videos.NewRedisFeedCache(client, "", cfg.FeedCacheTTL)
	} else {
		cache = videos.NewMemoryFeedCache(cfg.FeedCacheTTL)
	}

	sessions := auth.NewManager(
		[]byte(cfg.SessionSecret),
		cfg.SessionTTL,
		cfg.RefreshTTL,
		repositories.NewPostgresSessionStore(pool),
	)

	deps := handlers.Dependencies{
		Users:    repositories.NewPostgresUserRepository(pool),
		Sessions: sessions,
		Videos:   videos.NewCachingStore(repositories.NewPostgresVideoRepository(pool), cache),
		Signer:   media.NewSigner(cfg.Media.PublicKey, cfg.Media.PrivateKey, cfg.Media.CredentialTTL),
		Limiter:  middleware.NewKeyedLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow, cfg.AuthRateBurst),
	}

	if pinger, ok := pool.(handlers.Pinger); ok {
		deps.Database = pinger
	}

	if cfg.ObjectStore.Enabled() {
		objects, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			_ = cleanup(ctx)
			return handlers.Dependencies{}, nil, fmt.Errorf("configure object storage: %w", err)
		}
		deps.Storage = objects
	}

	return deps, cleanup, nil
}

func closeRedis(client *redis.Client) func() error {
	return func() error {
		if err := client.Close(); err != nil {
			return fmt.Errorf("close redis: %w", err)
		}
		return nil
	}
}
