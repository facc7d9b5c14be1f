// Package presets holds CMake configure and build presets and evaluates
// their macros and conditions.
package presets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goplus/cmakecfg/pkgs/cmakeconfig"
)

// Data is the merged content of a project's presets files.
type Data struct {
	Version              int               `json:"version"`
	CMakeMinimumRequired *Version          `json:"cmakeMinimumRequired,omitempty"`
	Include              []string          `json:"include,omitempty"`
	ConfigurePresets     []ConfigurePreset `json:"configurePresets,omitempty"`
	BuildPresets         []BuildPreset     `json:"buildPresets,omitempty"`
}

// Version is the cmakeMinimumRequired object.
type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

func (v Version) String() string {
	return fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// FindConfigurePreset returns the configure preset called name.
func (d *Data) FindConfigurePreset(name string) (*ConfigurePreset, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.ConfigurePresets {
		if d.ConfigurePresets[i].Name == name {
			return &d.ConfigurePresets[i], true
		}
	}
	return nil, false
}

// StringList decodes either a single string or an array of strings.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*l = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("expected string or array of strings: %w", err)
	}
	*l = many
	return nil
}

// ValueStrategy is the architecture/toolset form: a plain string or
// {"value": ..., "strategy": "set"|"external"}.
type ValueStrategy struct {
	Value    string `json:"value"`
	Strategy string `json:"strategy,omitempty"`
}

func (v *ValueStrategy) UnmarshalJSON(b []byte) error {
	if err := json.Unmarshal(b, &v.Value); err == nil {
		return nil
	}
	type plain ValueStrategy
	return json.Unmarshal(b, (*plain)(v))
}

// EnvVar is one preset environment assignment; a nil Value unsets Name.
type EnvVar struct {
	Name  string
	Value *string
}

// Environment is an ordered list of preset environment assignments.
type Environment []EnvVar

func (e *Environment) UnmarshalJSON(b []byte) error {
	var out Environment
	err := decodeObject(b, func(key string, raw json.RawMessage) error {
		if string(raw) == "null" {
			out = append(out, EnvVar{Name: key})
			return nil
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("environment %q: %w", key, err)
		}
		out = append(out, EnvVar{Name: key, Value: &s})
		return nil
	})
	*e = out
	return err
}

// Lookup returns the assignment for name.
func (e Environment) Lookup(name string) (EnvVar, bool) {
	for _, v := range e {
		if v.Name == name {
			return v, true
		}
	}
	return EnvVar{}, false
}

// Warnings is the configure preset warnings object.
type Warnings struct {
	Dev           *bool `json:"dev,omitempty"`
	Deprecated    *bool `json:"deprecated,omitempty"`
	Uninitialized *bool `json:"uninitialized,omitempty"`
	UnusedCli     *bool `json:"unusedCli,omitempty"`
	SystemVars    *bool `json:"systemVars,omitempty"`
}

// Errors is the configure preset errors object.
type Errors struct {
	Dev        *bool `json:"dev,omitempty"`
	Deprecated *bool `json:"deprecated,omitempty"`
}

// Debug is the configure preset debug object.
type Debug struct {
	Output     *bool `json:"output,omitempty"`
	TryCompile *bool `json:"tryCompile,omitempty"`
	Find       *bool `json:"find,omitempty"`
}

// ConfigurePreset is one entry of configurePresets.
type ConfigurePreset struct {
	Name            string         `json:"name"`
	FileDir         string         `json:"-"`
	Hidden          bool           `json:"hidden,omitempty"`
	Inherits        StringList     `json:"inherits,omitempty"`
	Condition       *Condition     `json:"condition,omitempty"`
	DisplayName     string         `json:"displayName,omitempty"`
	Description     string         `json:"description,omitempty"`
	Generator       string         `json:"generator,omitempty"`
	Architecture    *ValueStrategy `json:"architecture,omitempty"`
	Toolset         *ValueStrategy `json:"toolset,omitempty"`
	BinaryDir       string         `json:"binaryDir,omitempty"`
	ToolchainFile   string         `json:"toolchainFile,omitempty"`
	InstallDir      string         `json:"installDir,omitempty"`
	CMakeExecutable string         `json:"cmakeExecutable,omitempty"`

	// CacheVariables keeps file order. Unset entries come from JSON null.
	CacheVariables *cmakeconfig.Store `json:"-"`
	Environment    Environment        `json:"environment,omitempty"`
	Warnings       *Warnings          `json:"warnings,omitempty"`
	Errors         *Errors            `json:"errors,omitempty"`
	Debug          *Debug             `json:"debug,omitempty"`
}

func (p *ConfigurePreset) UnmarshalJSON(b []byte) error {
	type plain ConfigurePreset
	aux := struct {
		*plain
		CacheVariables json.RawMessage `json:"cacheVariables"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	store, err := parseCacheVariables(aux.CacheVariables)
	if err != nil {
		return fmt.Errorf("preset %q: %w", p.Name, err)
	}
	p.CacheVariables = store
	return nil
}

// MacroScope implements Preset.
func (p *ConfigurePreset) MacroScope() Scope {
	return Scope{Name: p.Name, FileDir: p.FileDir, Generator: p.Generator, Environment: p.Environment}
}

// BuildPreset is one entry of buildPresets.
type BuildPreset struct {
	Name                        string      `json:"name"`
	FileDir                     string      `json:"-"`
	Hidden                      bool        `json:"hidden,omitempty"`
	Inherits                    StringList  `json:"inherits,omitempty"`
	Condition                   *Condition  `json:"condition,omitempty"`
	DisplayName                 string      `json:"displayName,omitempty"`
	Description                 string      `json:"description,omitempty"`
	Environment                 Environment `json:"environment,omitempty"`
	ConfigurePreset             string      `json:"configurePreset,omitempty"`
	InheritConfigureEnvironment *bool       `json:"inheritConfigureEnvironment,omitempty"`
	Jobs                        *int        `json:"jobs,omitempty"`
	Targets                     StringList  `json:"targets,omitempty"`
	Configuration               string      `json:"configuration,omitempty"`
	Verbose                     *bool       `json:"verbose,omitempty"`
	CleanFirst                  *bool       `json:"cleanFirst,omitempty"`
	NativeToolOptions           []string    `json:"nativeToolOptions,omitempty"`

	// Generator is copied from the referenced configure preset on load.
	Generator string `json:"-"`
}

// MacroScope implements Preset.
func (p *BuildPreset) MacroScope() Scope {
	return Scope{Name: p.Name, FileDir: p.FileDir, Generator: p.Generator, Environment: p.Environment}
}

func parseCacheVariables(b []byte) (*cmakeconfig.Store, error) {
	store := &cmakeconfig.Store{}
	if len(b) == 0 {
		return store, nil
	}
	err := decodeObject(b, func(key string, raw json.RawMessage) error {
		it, err := parseCacheVariable(key, raw)
		if err != nil {
			return fmt.Errorf("cache variable %q: %w", key, err)
		}
		store.Put(it)
		return nil
	})
	return store, err
}

func parseCacheVariable(key string, raw json.RawMessage) (cmakeconfig.Item, error) {
	switch raw := bytes.TrimSpace(raw); {
	case string(raw) == "null":
		return cmakeconfig.Item{Key: key, Type: cmakeconfig.Static, IsUnset: true}, nil
	case string(raw) == "true" || string(raw) == "false":
		v := "FALSE"
		if string(raw) == "true" {
			v = "TRUE"
		}
		return cmakeconfig.NewItem(key, cmakeconfig.Bool, v), nil
	case len(raw) > 0 && raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return cmakeconfig.Item{}, err
		}
		return cmakeconfig.NewItem(key, cmakeconfig.String, s), nil
	}
	var obj struct {
		Type  string `json:"type"`
		Value any    `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return cmakeconfig.Item{}, err
	}
	t := cmakeconfig.String
	if obj.Type != "" {
		t = cmakeconfig.ParseType(obj.Type)
	}
	switch v := obj.Value.(type) {
	case string:
		return cmakeconfig.NewItem(key, t, v), nil
	case bool:
		if v {
			return cmakeconfig.NewItem(key, t, "TRUE"), nil
		}
		return cmakeconfig.NewItem(key, t, "FALSE"), nil
	}
	return cmakeconfig.Item{}, errors.New("value must be a string or boolean")
}

// decodeObject walks a JSON object in document order. A JSON null is
// treated as an empty object.
func decodeObject(b []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}
