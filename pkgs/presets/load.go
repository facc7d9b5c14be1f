package presets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/semver"
)

// File names looked up in a project source directory.
const (
	PresetsFile     = "CMakePresets.json"
	UserPresetsFile = "CMakeUserPresets.json"
)

var (
	// ErrUnknownParent is reported when inherits names a missing preset.
	ErrUnknownParent = errors.New("unknown parent preset")
	// ErrInheritCycle is reported for circular inherits.
	ErrInheritCycle = errors.New("circular inherits")
	// ErrDuplicatePreset is reported when two presets share a name.
	ErrDuplicatePreset = errors.New("duplicate preset name")
)

// Parse decodes one presets file. fileDir becomes the ${fileDir} of every
// preset in it. Includes and inherits are not resolved.
func Parse(data []byte, fileDir string) (*Data, error) {
	var d Data
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}
	for i := range d.ConfigurePresets {
		d.ConfigurePresets[i].FileDir = fileDir
	}
	for i := range d.BuildPresets {
		d.BuildPresets[i].FileDir = fileDir
	}
	return &d, nil
}

// Load reads CMakePresets.json and CMakeUserPresets.json from sourceDir,
// follows includes and resolves inherits. It returns an error wrapping
// os.ErrNotExist when neither file exists.
func Load(sourceDir string) (*Data, error) {
	l := &loader{seen: map[string]bool{}}
	var found bool
	for _, name := range []string{PresetsFile, UserPresetsFile} {
		path := filepath.Join(sourceDir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		found = true
		if err := l.load(path); err != nil {
			return nil, err
		}
	}
	if !found {
		return nil, fmt.Errorf("no presets in %s: %w", sourceDir, os.ErrNotExist)
	}
	return l.finish()
}

// LoadFile reads a single presets file with its includes and resolves
// inherits.
func LoadFile(path string) (*Data, error) {
	l := &loader{seen: map[string]bool{}}
	if err := l.load(path); err != nil {
		return nil, err
	}
	return l.finish()
}

type loader struct {
	seen map[string]bool
	data Data
}

func (l *loader) load(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if l.seen[abs] {
		return nil
	}
	l.seen[abs] = true

	b, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("failed to read presets: %w", err)
	}
	d, err := Parse(b, filepath.Dir(abs))
	if err != nil {
		return fmt.Errorf("%s: %w", abs, err)
	}
	if d.Version > l.data.Version {
		l.data.Version = d.Version
	}
	if d.CMakeMinimumRequired != nil && (l.data.CMakeMinimumRequired == nil ||
		semver.Compare(d.CMakeMinimumRequired.String(), l.data.CMakeMinimumRequired.String()) > 0) {
		l.data.CMakeMinimumRequired = d.CMakeMinimumRequired
	}
	l.data.ConfigurePresets = append(l.data.ConfigurePresets, d.ConfigurePresets...)
	l.data.BuildPresets = append(l.data.BuildPresets, d.BuildPresets...)

	for _, inc := range d.Include {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(filepath.Dir(abs), inc)
		}
		if err := l.load(inc); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) finish() (*Data, error) {
	d := &l.data
	if err := resolve(d.ConfigurePresets); err != nil {
		return nil, err
	}
	if err := resolve(d.BuildPresets); err != nil {
		return nil, err
	}
	for i := range d.BuildPresets {
		bp := &d.BuildPresets[i]
		if cp, ok := d.FindConfigurePreset(bp.ConfigurePreset); ok {
			bp.Generator = cp.Generator
		}
	}
	return d, nil
}

// SupportedBy reports whether a CMake of the given version ("3.28.1")
// satisfies cmakeMinimumRequired.
func (d *Data) SupportedBy(cmakeVersion string) bool {
	if d == nil || d.CMakeMinimumRequired == nil {
		return true
	}
	v := "v" + cmakeVersion
	if !semver.IsValid(v) {
		return false
	}
	return semver.Compare(v, d.CMakeMinimumRequired.String()) >= 0
}

type inheritable[T any] interface {
	*T
	presetName() string
	parents() []string
	inherit(parent *T)
}

func (p *ConfigurePreset) presetName() string { return p.Name }
func (p *ConfigurePreset) parents() []string  { return p.Inherits }
func (p *BuildPreset) presetName() string     { return p.Name }
func (p *BuildPreset) parents() []string      { return p.Inherits }

// resolve applies inherits in dependency order.
func resolve[T any, P inheritable[T]](ps []T) error {
	index := make(map[string]int, len(ps))
	for i := range ps {
		name := P(&ps[i]).presetName()
		if _, dup := index[name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicatePreset, name)
		}
		index[name] = i
	}
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(ps))
	var visit func(i int) error
	visit = func(i int) error {
		p := P(&ps[i])
		switch state[i] {
		case visiting:
			return fmt.Errorf("%w: %s", ErrInheritCycle, p.presetName())
		case done:
			return nil
		}
		state[i] = visiting
		for _, parent := range p.parents() {
			j, ok := index[parent]
			if !ok {
				return fmt.Errorf("%w %q in %s", ErrUnknownParent, parent, p.presetName())
			}
			if err := visit(j); err != nil {
				return err
			}
			p.inherit(&ps[j])
		}
		state[i] = done
		return nil
	}
	for i := range ps {
		if err := visit(i); err != nil {
			return err
		}
	}
	return nil
}

func setString(dst *string, src string) {
	if *dst == "" {
		*dst = src
	}
}

func setPtr[T any](dst **T, src *T) {
	if *dst == nil && src != nil {
		v := *src
		*dst = &v
	}
}

func inheritEnv(dst Environment, src Environment) Environment {
	for _, v := range src {
		if _, ok := dst.Lookup(v.Name); !ok {
			dst = append(dst, v)
		}
	}
	return dst
}

// inherit fills the fields p leaves unset from parent. Name, hidden and
// condition are never inherited.
func (p *ConfigurePreset) inherit(parent *ConfigurePreset) {
	setString(&p.DisplayName, parent.DisplayName)
	setString(&p.Description, parent.Description)
	setString(&p.Generator, parent.Generator)
	setString(&p.BinaryDir, parent.BinaryDir)
	setString(&p.ToolchainFile, parent.ToolchainFile)
	setString(&p.InstallDir, parent.InstallDir)
	setString(&p.CMakeExecutable, parent.CMakeExecutable)
	setPtr(&p.Architecture, parent.Architecture)
	setPtr(&p.Toolset, parent.Toolset)

	if parent.CacheVariables != nil {
		if p.CacheVariables == nil {
			p.CacheVariables = parent.CacheVariables.Clone()
		} else {
			for _, it := range parent.CacheVariables.Items() {
				if !p.CacheVariables.Has(it.Key) {
					p.CacheVariables.Put(it)
				}
			}
		}
	}
	p.Environment = inheritEnv(p.Environment, parent.Environment)

	if parent.Warnings != nil {
		if p.Warnings == nil {
			p.Warnings = &Warnings{}
		}
		setPtr(&p.Warnings.Dev, parent.Warnings.Dev)
		setPtr(&p.Warnings.Deprecated, parent.Warnings.Deprecated)
		setPtr(&p.Warnings.Uninitialized, parent.Warnings.Uninitialized)
		setPtr(&p.Warnings.UnusedCli, parent.Warnings.UnusedCli)
		setPtr(&p.Warnings.SystemVars, parent.Warnings.SystemVars)
	}
	if parent.Errors != nil {
		if p.Errors == nil {
			p.Errors = &Errors{}
		}
		setPtr(&p.Errors.Dev, parent.Errors.Dev)
		setPtr(&p.Errors.Deprecated, parent.Errors.Deprecated)
	}
	if parent.Debug != nil {
		if p.Debug == nil {
			p.Debug = &Debug{}
		}
		setPtr(&p.Debug.Output, parent.Debug.Output)
		setPtr(&p.Debug.TryCompile, parent.Debug.TryCompile)
		setPtr(&p.Debug.Find, parent.Debug.Find)
	}
}

func (p *BuildPreset) inherit(parent *BuildPreset) {
	setString(&p.DisplayName, parent.DisplayName)
	setString(&p.Description, parent.Description)
	setString(&p.ConfigurePreset, parent.ConfigurePreset)
	setString(&p.Configuration, parent.Configuration)
	setPtr(&p.InheritConfigureEnvironment, parent.InheritConfigureEnvironment)
	setPtr(&p.Jobs, parent.Jobs)
	setPtr(&p.Verbose, parent.Verbose)
	setPtr(&p.CleanFirst, parent.CleanFirst)
	if len(p.Targets) == 0 {
		p.Targets = append(StringList(nil), parent.Targets...)
	}
	if len(p.NativeToolOptions) == 0 {
		p.NativeToolOptions = append([]string(nil), parent.NativeToolOptions...)
	}
	p.Environment = inheritEnv(p.Environment, parent.Environment)
}
