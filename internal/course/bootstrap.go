package course

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
)

// Bootstrap returns the course stored at path, creating the artifact from the
// seed on first run. Only a missing artifact triggers seeding: an artifact
// that exists but cannot be opened (for example after a key change) is
// reported and left untouched.
func Bootstrap(store *Store, seedFS fs.FS, seedName, path string) (Course, error) {
	c, err := store.LoadBinary(path)
	if err == nil {
		slog.Info("course loaded", "path", path, "chapters", len(c.Chapters))
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Course{}, fmt.Errorf("load course: %w", err)
	}

	slog.Info("course artifact not found, creating from seed", "path", path, "seed", seedName)
	c, err = LoadSeed(seedFS, seedName)
	if err != nil {
		return Course{}, fmt.Errorf("load seed: %w", err)
	}
	if err := store.SaveBinary(c, path); err != nil {
		return Course{}, err
	}

	slog.Info("course created", "path", path, "chapters", len(c.Chapters))
	return c, nil
}

// Reseed replaces the artifact at path with the seed, whatever its current
// state. It is the recovery path for an artifact Bootstrap refuses to open.
func Reseed(store *Store, seedFS fs.FS, seedName, path string) (Course, error) {
	c, err := LoadSeed(seedFS, seedName)
	if err != nil {
		return Course{}, fmt.Errorf("load seed: %w", err)
	}
	if err := store.SaveBinary(c, path); err != nil {
		return Course{}, err
	}

	slog.Warn("course replaced from seed", "path", path, "seed", seedName, "chapters", len(c.Chapters))
	return c, nil
}
