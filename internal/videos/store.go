package videos

import (
	"context"
	"errors"

	"github.com/shortreel/backend/internal/logging"
	"github.com/shortreel/backend/internal/models"
)

// Store is the persistence contract for video records.
type Store interface {
	Create(ctx context.Context, video models.Video) (models.Video, error)
	List(ctx context.Context, query string) ([]models.Video, error)
	FindByID(ctx context.Context, id string) (models.Video, error)
	Delete(ctx context.Context, id string) error
}

// CachingStore serves the unfiltered feed from a FeedCache and invalidates it on writes.
// Cache failures are logged and never fail the request.
type CachingStore struct {
	base  Store
	cache FeedCache
}

// NewCachingStore wraps base with cache. A nil cache disables caching.
func NewCachingStore(base Store, cache FeedCache) *CachingStore {
	return &CachingStore{base: base, cache: cache}
}

// Create persists the record and invalidates the cached feed.
func (s *CachingStore) Create(ctx context.Context, video models.Video) (models.Video, error) {
	created, err := s.base.Create(ctx, video)
	if err != nil {
		return models.Video{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

// List returns the feed, consulting the cache when no query is given.
func (s *CachingStore) List(ctx context.Context, query string) ([]models.Video, error) {
	if query != "" || s.cache == nil {
		return s.base.List(ctx, query)
	}

	logger := logging.FromContext(ctx)

	feed, err := s.cache.Get(ctx)
	if err == nil {
		return feed, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		logger.Warn("feed cache read failed", "error", err)
	}

	// The version must be read before the store so a write that lands in
	// between invalidates it and the snapshot below is discarded.
	version, verr := s.cache.Version(ctx)
	if verr != nil {
		logger.Warn("feed cache version read failed", "error", verr)
	}

	feed, err = s.base.List(ctx, "")
	if err != nil {
		return nil, err
	}

	if verr == nil {
		if err := s.cache.Set(ctx, version, feed); err != nil {
			logger.Warn("feed cache write failed", "error", err)
		}
	}
	return feed, nil
}

// FindByID always reads through to the store.
func (s *CachingStore) FindByID(ctx context.Context, id string) (models.Video, error) {
	return s.base.FindByID(ctx, id)
}

// Delete removes the record and invalidates the cached feed.
func (s *CachingStore) Delete(ctx context.Context, id string) error {
	if err := s.base.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CachingStore) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logging.FromContext(ctx).Warn("feed cache invalidation failed", "error", err)
	}
}
