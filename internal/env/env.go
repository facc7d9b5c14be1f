package env

import (
	"os"
	"path/filepath"
)

// ConfigDir returns the per-user cmakecfg configuration directory,
// creating it if needed.
func ConfigDir() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(userConfigDir, "cmakecfg")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}

// SettingsFile returns the path of the settings file. The file itself may
// not exist.
func SettingsFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.toml"), nil
}

// StateDir returns the directory inside a build tree that holds
// per-build-configuration state.
func StateDir(buildDir string) string {
	return filepath.Join(buildDir, ".qtc")
}

// PackageManagerDir returns the package manager auto-setup directory
// inside a build tree.
func PackageManagerDir(buildDir string) string {
	return filepath.Join(StateDir(buildDir), "package-manager")
}
