// Package settings holds the user-level options that influence how
// initial CMake arguments are assembled.
package settings

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/goplus/cmakecfg/internal/env"
)

// Settings is passed to the merger and build configuration explicitly;
// there is no process-wide instance.
type Settings struct {
	// PackageManagerAutoSetup adds CMAKE_PROJECT_INCLUDE_BEFORE pointing at
	// the auto-setup script in the build directory.
	PackageManagerAutoSetup      bool `toml:"package_manager_auto_setup"`
	ShowAdvancedOptionsByDefault bool `toml:"show_advanced_options_by_default"`
	GenerateQmllsIniFiles        bool `toml:"generate_qmlls_ini_files"`

	MaintenanceToolPath string `toml:"maintenance_tool_path" validate:"omitempty,filepath"`
	CMakeExecutable     string `toml:"cmake_executable" validate:"required"`
	LogLevel            string `toml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// Default returns the settings used when no settings file exists.
func Default() Settings {
	return Settings{
		PackageManagerAutoSetup: true,
		CMakeExecutable:         "cmake",
		LogLevel:                "info",
	}
}

var validate = validator.New()

// Validate checks field constraints.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// LoadFile reads settings from a TOML file on top of the defaults and
// applies CMAKECFG_* environment overrides.
func LoadFile(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	applyEnvOverrides(&s)
	return s, s.Validate()
}

// Load reads the user's settings file. A missing file yields the defaults.
func Load() (Settings, error) {
	path, err := env.SettingsFile()
	if err != nil {
		return Default(), err
	}
	s, err := LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s = Default()
		applyEnvOverrides(&s)
		return s, s.Validate()
	}
	return s, err
}

// Save writes s to path as TOML.
func Save(path string, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func applyEnvOverrides(s *Settings) {
	if v := os.Getenv("CMAKECFG_CMAKE"); v != "" {
		s.CMakeExecutable = v
	}
	if v := os.Getenv("CMAKECFG_MAINTENANCE_TOOL"); v != "" {
		s.MaintenanceToolPath = v
	}
	if v := os.Getenv("CMAKECFG_LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}
	if v, err := strconv.ParseBool(os.Getenv("CMAKECFG_PACKAGE_MANAGER_AUTO_SETUP")); err == nil {
		s.PackageManagerAutoSetup = v
	}
}
