// Package paths resolves where the application keeps its files.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AppName names the per-user application directory.
const AppName = "pai-courseware"

const (
	courseBinaryName = "course.bin"
	progressDBName   = "progress.db"
)

// DataDir returns the application data directory and creates it. A non-empty
// override wins; otherwise the directory is app under the user's
// configuration directory.
func DataDir(override, app string) (string, error) {
	dir := strings.TrimSpace(override)
	if dir == "" {
		if strings.TrimSpace(app) == "" {
			return "", fmt.Errorf("app name is required")
		}
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("resolve user config dir: %w", err)
		}
		dir = filepath.Join(base, app)
	}
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return dir, nil
}

// CourseBinaryPath returns the location of the encrypted course artifact.
func CourseBinaryPath(dataDir string) string {
	return filepath.Join(dataDir, courseBinaryName)
}

// ProgressDBPath returns the default location of the SQLite progress store.
func ProgressDBPath(dataDir string) string {
	return filepath.Join(dataDir, progressDBName)
}
