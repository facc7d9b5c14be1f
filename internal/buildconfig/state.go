package buildconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/goplus/cmakecfg/internal/env"
	"github.com/goplus/cmakecfg/pkgs/environment"
)

// StateFile is the name of the persisted state inside env.StateDir.
const StateFile = "buildconfig.yaml"

// State is the persisted part of a build configuration.
type State struct {
	// InitialArguments holds the initial CMake arguments, one per line.
	InitialArguments     string             `yaml:"initial_arguments"`
	AdditionalOptions    string             `yaml:"additional_options,omitempty"`
	BuildType            string             `yaml:"build_type" validate:"required"`
	QmlDebugging         TriState           `yaml:"qml_debugging"`
	Signing              Signing            `yaml:"signing,omitempty"`
	ConfigureEnvironment []environment.Item `yaml:"configure_environment,omitempty" validate:"dive"`
}

var validate = validator.New()

// StatePath returns the state file of the build directory buildDir.
func StatePath(buildDir string) string {
	return filepath.Join(env.StateDir(buildDir), StateFile)
}

// LoadState reads and validates a state file.
func LoadState(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, fmt.Errorf("failed to read build configuration state %s: %w", path, err)
	}
	var s State
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return State{}, fmt.Errorf("failed to parse build configuration state %s: %w", path, err)
	}
	if err := validate.Struct(s); err != nil {
		return State{}, fmt.Errorf("invalid build configuration state %s: %w", path, err)
	}
	return s, nil
}

// SaveState validates s and writes it to path.
func SaveState(path string, s State) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid build configuration state: %w", err)
	}
	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("failed to encode build configuration state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write build configuration state %s: %w", path, err)
	}
	return nil
}
