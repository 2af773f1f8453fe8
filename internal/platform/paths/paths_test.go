package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDataDir_Override(t *testing.T) {
	want := filepath.Join(t.TempDir(), "nested", "data")

	got, err := DataDir("  "+want+"  ", AppName)
	if err != nil {
		t.Fatalf("DataDir() error = %v", err)
	}
	if got != want {
		t.Errorf("DataDir() = %q, want %q", got, want)
	}
	info, err := os.Stat(got)
	if err != nil || !info.IsDir() {
		t.Fatalf("DataDir() did not create %q: %v", got, err)
	}
}

func TestDataDir_UserConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only drives os.UserConfigDir on linux")
	}
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	got, err := DataDir("", AppName)
	if err != nil {
		t.Fatalf("DataDir() error = %v", err)
	}
	if want := filepath.Join(base, AppName); got != want {
		t.Errorf("DataDir() = %q, want %q", got, want)
	}
}

func TestDataDir_RequiresApp(t *testing.T) {
	if _, err := DataDir("", " "); err == nil {
		t.Fatal("DataDir() should fail without override or app name")
	}
}

func TestFilePaths(t *testing.T) {
	dir := filepath.Join("var", "courseware")

	if got, want := CourseBinaryPath(dir), filepath.Join(dir, "course.bin"); got != want {
		t.Errorf("CourseBinaryPath() = %q, want %q", got, want)
	}
	if got, want := ProgressDBPath(dir), filepath.Join(dir, "progress.db"); got != want {
		t.Errorf("ProgressDBPath() = %q, want %q", got, want)
	}
}
