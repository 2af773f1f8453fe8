package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/p-n-ai/pai-courseware/internal/course/seed"
	"github.com/p-n-ai/pai-courseware/internal/platform/cache"
	"github.com/p-n-ai/pai-courseware/internal/platform/config"
	"github.com/p-n-ai/pai-courseware/internal/platform/database"
	"github.com/p-n-ai/pai-courseware/internal/platform/paths"
	"github.com/p-n-ai/pai-courseware/internal/progress"
	"github.com/p-n-ai/pai-courseware/internal/progress/migrations"
)

// seedNames are tried in order inside a seed directory.
var seedNames = []string{"course.json", "course.yaml", "course.yml"}

// seedSource returns the seed file system and the definition inside it. An
// empty dir selects the bundled seed.
func seedSource(dir string) (fs.FS, string, error) {
	if dir == "" {
		return seed.FS, seed.Name, nil
	}
	for _, name := range seedNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return os.DirFS(dir), name, nil
		}
	}
	return nil, "", fmt.Errorf("no course seed in %s (looked for %v)", dir, seedNames)
}

// progressBackend bundles the progress collaborators of one backend and the
// connections behind them.
type progressBackend struct {
	progress.Store
	progress.Directory
	progress.Reporter

	// Events receives session events; the postgres backend stores them.
	Events progress.EventLogger

	closers []func()
}

// Close releases connections in reverse order of opening.
func (b *progressBackend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

type progressStore interface {
	progress.Store
	progress.Directory
	progress.Reporter
}

// openProgress opens the configured backend, with the Redis cache in front
// when one is configured and reachable.
func openProgress(ctx context.Context, cfg *config.Config, dataDir string) (*progressBackend, error) {
	b := &progressBackend{Events: progress.SlogEventLogger{}}

	var store progressStore
	switch cfg.Progress.Backend {
	case config.BackendMemory:
		store = progress.NewMemoryStore()

	case config.BackendSQLite:
		path := cfg.SQLite.Path
		if path == "" {
			path = paths.ProgressDBPath(dataDir)
		}
		s, err := progress.OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = s.Close() })
		store = s
		slog.Debug("progress store opened", "backend", cfg.Progress.Backend, "path", path)

	case config.BackendPostgres:
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		if err := db.Migrate(ctx, migrations.Postgres()); err != nil {
			b.Close()
			return nil, err
		}
		s, err := progress.NewPostgresStore(db.Pool)
		if err != nil {
			b.Close()
			return nil, err
		}
		store = s
		b.Events = progress.NewPostgresEventLogger(db.Pool)

	default:
		return nil, fmt.Errorf("unknown progress backend %q", cfg.Progress.Backend)
	}

	b.Store, b.Directory, b.Reporter = store, store, store

	if cfg.Cache.URL == "" {
		return b, nil
	}
	c, err := cache.New(ctx, cfg.Cache.URL)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			b.Close()
			return nil, err
		}
		slog.Warn("progress cache unavailable, continuing without it", "error", err)
		return b, nil
	}
	b.closers = append(b.closers, func() { _ = c.Close() })

	cached, err := progress.NewCachedStore(store, c.Client, cfg.Cache.TTL)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.Store = cached
	return b, nil
}
