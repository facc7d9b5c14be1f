package env

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME is only honoured on Linux")
	}
	tempDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tempDir)

	configDir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	expectedDir := filepath.Join(tempDir, "cmakecfg")
	if configDir != expectedDir {
		t.Errorf("ConfigDir() = %q, want %q", configDir, expectedDir)
	}

	// Verify the directory was created with 0700
	info, err := os.Stat(configDir)
	if err != nil {
		t.Fatalf("Directory was not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("ConfigDir() created a file instead of a directory")
	}
	if mode := info.Mode().Perm(); mode != 0700 {
		t.Errorf("Directory has permissions %v, want %v", mode, os.FileMode(0700))
	}
}

// TestConfigDirIdempotent verifies that repeated calls agree.
func TestConfigDirIdempotent(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dir1, err := ConfigDir()
	if err != nil {
		t.Fatalf("First ConfigDir() call failed: %v", err)
	}
	dir2, err := ConfigDir()
	if err != nil {
		t.Fatalf("Second ConfigDir() call failed: %v", err)
	}
	if dir1 != dir2 {
		t.Errorf("ConfigDir() not idempotent: first call = %q, second call = %q", dir1, dir2)
	}
}

func TestSettingsFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, err := SettingsFile()
	if err != nil {
		t.Fatalf("SettingsFile() returned error: %v", err)
	}
	if filepath.Base(path) != "settings.toml" {
		t.Errorf("SettingsFile() = %q, want settings.toml", path)
	}
}

func TestBuildTreeDirs(t *testing.T) {
	if got, want := StateDir("/b"), filepath.Join("/b", ".qtc"); got != want {
		t.Errorf("StateDir = %q, want %q", got, want)
	}
	if got, want := PackageManagerDir("/b"), filepath.Join("/b", ".qtc", "package-manager"); got != want {
		t.Errorf("PackageManagerDir = %q, want %q", got, want)
	}
}
