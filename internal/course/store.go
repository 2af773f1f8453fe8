// Package course loads, edits and persists course content: the bundled
// plaintext seed and the encrypted course.bin artifact.
package course

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const artifactPerm = 0o600

// Store reads and writes the encrypted course artifact.
type Store struct {
	codec *Codec
}

// NewStore creates a store that encrypts with a key derived from passphrase.
func NewStore(passphrase string) (*Store, error) {
	codec, err := NewCodec(passphrase)
	if err != nil {
		return nil, err
	}
	return &Store{codec: codec}, nil
}

// LoadBinary reads and decrypts the artifact at path. On failure it returns
// an empty Course and an error matching one of ErrNotFound, ErrUnreadable,
// ErrCorrupt, ErrDecrypt, ErrDecode or ErrEmpty.
func (s *Store) LoadBinary(path string) (Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Course{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Course{}, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	c, err := s.codec.Decode(data)
	if err != nil {
		return Course{}, err
	}
	if c.Empty() {
		return Course{}, ErrEmpty
	}
	if err := c.Validate(); err != nil {
		return Course{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	slog.Debug("course artifact loaded", "path", path, "chapters", len(c.Chapters))
	return c, nil
}

// SaveBinary encrypts the course and replaces the artifact at path. The
// parent directory is created if needed. The new content is written to a
// temporary file and renamed into place, so a failed save leaves the previous
// artifact intact.
func (s *Store) SaveBinary(c Course, path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := s.codec.Encode(c)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, data, artifactPerm); err != nil {
		return fmt.Errorf("save course: %w", err)
	}

	slog.Debug("course artifact saved", "path", path, "chapters", len(c.Chapters), "bytes", len(data))
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
