package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"

	"github.com/shortreel/backend/internal/logging"
)

// Pool abstracts the pgx connection pool to make testing easier.
type Pool interface {
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

// DialTimeout bounds a single shared connection attempt.
const DialTimeout = 15 * time.Second

// DialFunc opens a ready connection pool.
type DialFunc func(ctx context.Context) (*pgxpool.Pool, error)

// Connector lazily establishes a single connection pool and caches it for the
// life of the process. Concurrent callers share one in-flight attempt; a failed
// attempt is forgotten so the next call dials again.
type Connector struct {
	dial DialFunc

	group singleflight.Group

	mu   sync.RWMutex
	pool *pgxpool.Pool
}

// NewConnector returns a Connector that dials databaseURL on first use.
func NewConnector(databaseURL string) *Connector {
	return NewConnectorWithDialer(func(ctx context.Context) (*pgxpool.Pool, error) {
		return Connect(ctx, databaseURL)
	})
}

// NewConnectorWithDialer returns a Connector using a custom dial function.
func NewConnectorWithDialer(dial DialFunc) *Connector {
	if dial == nil {
		panic("db: dial func must not be nil")
	}
	return &Connector{dial: dial}
}

// Connect returns the cached pool, dialing it if this is the first successful call.
func (c *Connector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	c.mu.RLock()
	pool := c.pool
	c.mu.RUnlock()
	if pool != nil {
		return pool, nil
	}

	ch := c.group.DoChan("connect", func() (any, error) {
		c.mu.RLock()
		cached := c.pool
		c.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		// detached from the caller that started it; every waiter shares the result
		dialCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DialTimeout)
		defer cancel()
		dialCtx, span := logging.StartSpan(dialCtx, "db.connect")
		defer span.End()

		pool, err := c.dial(dialCtx)
		if err != nil {
			logging.FromContext(dialCtx).Error("database connection failed", "error", err)
			return nil, err
		}

		c.mu.Lock()
		c.pool = pool
		c.mu.Unlock()
		return pool, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*pgxpool.Pool), nil
	}
}

// Acquire connects if needed and checks out a connection from the pool.
func (c *Connector) Acquire(ctx context.Context) (*pgxpool.Conn, error) {
	pool, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return pool.Acquire(ctx)
}

// Ping connects if needed and verifies the database answers.
func (c *Connector) Ping(ctx context.Context) error {
	pool, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

// Close releases the cached pool, if one was established.
func (c *Connector) Close() {
	c.mu.Lock()
	pool := c.pool
	c.pool = nil
	c.mu.Unlock()
	if pool != nil {
		pool.Close()
	}
}

// Connect initialises and pings a PostgreSQL connection pool using the provided database URL.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	cfg.MaxConns = 25
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

var _ Pool = (*Connector)(nil)
