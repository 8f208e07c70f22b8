package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shortreel/backend/internal/config"
	"github.com/shortreel/backend/internal/db"
	"github.com/shortreel/backend/internal/handlers"
	"github.com/shortreel/backend/internal/httpserver"
	"github.com/shortreel/backend/internal/logging"
	"github.com/shortreel/backend/internal/middleware"
	"github.com/shortreel/backend/internal/repositories"
)

const usage = "expected command: serve, migrate [up|status], seed <name>, or prune-sessions"

// Run bootstraps the ShortReel backend application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(logger)
	ctx = logging.WithLogger(ctx, logger)

	switch args[0] {
	case "serve":
		return serve(ctx, cfg, logger)
	case "migrate":
		return withConnector(ctx, cfg, func(c *db.Connector) error {
			return runMigrations(ctx, c, cfg.MigrationDir, args[1:], os.Stdout)
		})
	case "seed":
		return withConnector(ctx, cfg, func(c *db.Connector) error {
			return runSeed(ctx, c, cfg.SeedDir, args[1:], os.Stdout)
		})
	case "prune-sessions":
		return withConnector(ctx, cfg, func(c *db.Connector) error {
			return pruneSessions(ctx, c, os.Stdout)
		})
	default:
		return fmt.Errorf("unknown command %q: %s", args[0], usage)
	}
}

func withConnector(ctx context.Context, cfg config.Config, fn func(*db.Connector) error) error {
	connector := db.NewConnector(cfg.DatabaseURL)
	defer connector.Close()

	if _, err := connector.Connect(ctx); err != nil {
		return err
	}
	return fn(connector)
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connector := db.NewConnector(cfg.DatabaseURL)
	defer connector.Close()

	// The connector dials lazily, so a database that is down at boot only
	// degrades requests until it comes back.
	if _, err := connector.Connect(ctx); err != nil {
		logger.Warn("database unavailable at startup", "error", err)
	} else if err := pruneSessions(ctx, connector, io.Discard); err != nil {
		logger.Warn("prune expired sessions failed", "error", err)
	}

	deps, cleanup, err := buildDependencies(ctx, connector, cfg)
	if err != nil {
		return err
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cleanup(cleanupCtx); err != nil {
			logger.Warn("release dependencies", "error", err)
		}
	}()

	handler := middleware.RequestLogger(logger)(handlers.NewRouter(deps))
	srv := httpserver.New(cfg.AppPort, handler, httpserver.Options{
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	})

	logger.Info("starting http server",
		"port", cfg.AppPort,
		"directUploads", deps.Storage != nil,
		"sharedFeedCache", cfg.RedisURL != "",
	)

	if err := srv.Run(ctx); err != nil {
		return err
	}
	logger.Info("http server stopped")
	return nil
}

func pruneSessions(ctx context.Context, pool db.Pool, out io.Writer) error {
	removed, err := repositories.NewPostgresSessionStore(pool).DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Info("pruned expired sessions", "removed", removed)
	fmt.Fprintf(out, "removed %d expired sessions\n", removed)
	return nil
}
