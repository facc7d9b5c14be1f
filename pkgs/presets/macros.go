package presets

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/qiniu/x/log"

	"github.com/goplus/cmakecfg/pkgs/cmakeconfig"
	"github.com/goplus/cmakecfg/pkgs/environment"
)

// Scope is what macro expansion needs to know about a preset.
type Scope struct {
	Name        string
	FileDir     string
	Generator   string
	Environment Environment
}

// Preset is implemented by ConfigurePreset and BuildPreset.
type Preset interface {
	MacroScope() Scope
}

const maxEnvDepth = 8

// HostSystemName returns the value of ${hostSystemName}.
func HostSystemName() string {
	switch runtime.GOOS {
	case "windows":
		return "Windows"
	case "linux":
		return "Linux"
	case "darwin":
		return "Darwin"
	}
	return "Unix"
}

// Expander expands preset macros and remembers the unknown ones.
// The zero value is ready to use.
type Expander struct {
	warnings []string
}

// Warnings returns the messages recorded for unknown macros.
func (x *Expander) Warnings() []string {
	return x.warnings
}

func (x *Expander) warn(scope Scope, name string) {
	msg := "preset " + scope.Name + ": unknown macro ${" + name + "}"
	log.Warn(msg)
	x.warnings = append(x.warnings, msg)
}

// context carries one expansion. envRefs keeps $env{} and $penv{}
// references as ${NAME} instead of resolving them.
type context struct {
	scope     Scope
	env       *environment.Environment
	sourceDir string
	envRefs   bool
}

func (x *Expander) expand(ctx *context, text string, depth int) string {
	var b strings.Builder
	for {
		i := strings.IndexByte(text, '$')
		if i < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:i])
		text = text[i:]

		open := strings.IndexByte(text, '{')
		if open < 0 {
			b.WriteString(text)
			return b.String()
		}
		namespace := text[1:open]
		if namespace != "" && namespace != "env" && namespace != "penv" && namespace != "vendor" {
			b.WriteByte('$')
			text = text[1:]
			continue
		}
		end := strings.IndexByte(text[open:], '}')
		if end < 0 {
			b.WriteString(text)
			return b.String()
		}
		end += open
		name := text[open+1 : end]
		text = text[end+1:]

		switch namespace {
		case "":
			b.WriteString(x.macro(ctx, name))
		case "env":
			if ctx.envRefs {
				b.WriteString("${" + name + "}")
			} else {
				b.WriteString(x.envValue(ctx, name, depth))
			}
		case "penv":
			if ctx.envRefs {
				b.WriteString("${" + name + "}")
			} else if v, ok := ctx.env.Value(name); ok {
				b.WriteString(v)
			}
		case "vendor":
		}
	}
}

func (x *Expander) envValue(ctx *context, name string, depth int) string {
	if v, ok := ctx.scope.Environment.Lookup(name); ok {
		if v.Value == nil {
			return ""
		}
		if depth >= maxEnvDepth {
			return *v.Value
		}
		return x.expand(ctx, *v.Value, depth+1)
	}
	v, _ := ctx.env.Value(name)
	return v
}

func (x *Expander) macro(ctx *context, name string) string {
	switch name {
	case "dollar":
		return "$"
	case "sourceDir":
		return ctx.sourceDir
	case "sourceParentDir":
		return filepath.Dir(ctx.sourceDir)
	case "sourceDirName":
		return filepath.Base(ctx.sourceDir)
	case "presetName":
		return ctx.scope.Name
	case "generator":
		return ctx.scope.Generator
	case "hostSystemName":
		return HostSystemName()
	case "fileDir":
		return ctx.scope.FileDir
	case "pathListSep":
		return environment.PathListSeparator
	}
	x.warn(ctx.scope, name)
	return ""
}

// ExpandString expands the macros of p inside text. $env{NAME} looks in the
// preset environment before env.
func (x *Expander) ExpandString(p Preset, env *environment.Environment, sourceDir, text string) string {
	ctx := &context{scope: p.MacroScope(), env: env, sourceDir: sourceDir}
	return x.expand(ctx, text, 0)
}

// ExpandEnvItems turns the preset environment into environment items.
// Environment references are kept as ${NAME} for the consumer to resolve.
func (x *Expander) ExpandEnvItems(p Preset, sourceDir string) []environment.Item {
	scope := p.MacroScope()
	ctx := &context{scope: scope, env: &environment.Environment{}, sourceDir: sourceDir, envRefs: true}
	items := make([]environment.Item, 0, len(scope.Environment))
	for _, v := range scope.Environment {
		if v.Value == nil {
			items = append(items, environment.Item{Name: v.Name, Op: environment.Unset})
			continue
		}
		value, op := *v.Value, environment.Set
		if isPathKey(v.Name) {
			const penv = "$penv{PATH}"
			if i := strings.Index(value, penv); i >= 0 {
				op = environment.Prepend
				if i == 0 {
					op = environment.Append
				}
				value = strings.Replace(value, penv, "", 1)
			}
		}
		items = append(items, environment.Item{Name: v.Name, Value: x.expand(ctx, value, 0), Op: op})
	}
	return items
}

func isPathKey(name string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(name, "PATH")
	}
	return name == "PATH"
}

// ExpandEnvironment applies the preset environment onto env. $penv{}
// always refers to env as it was before the call.
func (x *Expander) ExpandEnvironment(p Preset, env *environment.Environment, sourceDir string) {
	scope := p.MacroScope()
	ctx := &context{scope: scope, env: env.Clone(), sourceDir: sourceDir}
	for _, v := range scope.Environment {
		if v.Value == nil {
			env.Unset(v.Name)
			continue
		}
		env.Set(v.Name, x.expand(ctx, *v.Value, 0))
	}
}

// EvaluateCondition evaluates the condition of p against the process
// environment.
func (x *Expander) EvaluateCondition(p Preset, cond *Condition, sourceDir string) bool {
	env := environment.System()
	return cond.Evaluate(func(s string) string {
		return x.ExpandString(p, env, sourceDir, s)
	})
}

// UpdateToolchainFile resolves toolchainFile and records it as the
// CMAKE_TOOLCHAIN_FILE cache variable when the file exists. Relative paths
// are tried against sourceDir, then buildDir.
func (x *Expander) UpdateToolchainFile(p *ConfigurePreset, env *environment.Environment, sourceDir, buildDir string) {
	if p.ToolchainFile == "" {
		return
	}
	path := filepath.FromSlash(x.ExpandString(p, env, sourceDir, p.ToolchainFile))
	if !filepath.IsAbs(path) {
		candidate := filepath.Join(sourceDir, path)
		if !exists(candidate) {
			candidate = filepath.Join(buildDir, path)
		}
		path = candidate
	}
	if !exists(path) {
		log.Debugf("preset %s: toolchain file %s does not exist", p.Name, path)
		return
	}
	if p.CacheVariables == nil {
		p.CacheVariables = &cmakeconfig.Store{}
	}
	p.CacheVariables.Put(cmakeconfig.NewItem("CMAKE_TOOLCHAIN_FILE", cmakeconfig.Filepath, filepath.ToSlash(path)))
}

// UpdateInstallDir records installDir as CMAKE_INSTALL_PREFIX, resolved
// against sourceDir.
func (x *Expander) UpdateInstallDir(p *ConfigurePreset, env *environment.Environment, sourceDir string) {
	if p.InstallDir == "" {
		return
	}
	path := filepath.FromSlash(x.ExpandString(p, env, sourceDir, p.InstallDir))
	if !filepath.IsAbs(path) {
		path = filepath.Join(sourceDir, path)
	}
	if p.CacheVariables == nil {
		p.CacheVariables = &cmakeconfig.Store{}
	}
	p.CacheVariables.Put(cmakeconfig.NewItem("CMAKE_INSTALL_PREFIX", cmakeconfig.Path, filepath.ToSlash(path)))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ExpandString expands text without collecting warnings.
func ExpandString(p Preset, env *environment.Environment, sourceDir, text string) string {
	var x Expander
	return x.ExpandString(p, env, sourceDir, text)
}

// ExpandEnvItems is Expander.ExpandEnvItems without collecting warnings.
func ExpandEnvItems(p Preset, sourceDir string) []environment.Item {
	var x Expander
	return x.ExpandEnvItems(p, sourceDir)
}

// ExpandEnvironment is Expander.ExpandEnvironment without collecting warnings.
func ExpandEnvironment(p Preset, env *environment.Environment, sourceDir string) {
	var x Expander
	x.ExpandEnvironment(p, env, sourceDir)
}

// EvaluateCondition evaluates the condition of a configure or build preset.
func EvaluateCondition(p Preset, sourceDir string) bool {
	var x Expander
	switch p := p.(type) {
	case *ConfigurePreset:
		return x.EvaluateCondition(p, p.Condition, sourceDir)
	case *BuildPreset:
		return x.EvaluateCondition(p, p.Condition, sourceDir)
	}
	return true
}
