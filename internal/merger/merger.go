// Package merger assembles the initial CMake command of a build
// configuration from its kit, settings, platform rules and preset.
package merger

import (
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/qiniu/x/log"

	"github.com/goplus/cmakecfg/internal/env"
	"github.com/goplus/cmakecfg/internal/platform"
	"github.com/goplus/cmakecfg/internal/settings"
	"github.com/goplus/cmakecfg/pkgs/cmakeconfig"
	"github.com/goplus/cmakecfg/pkgs/environment"
	"github.com/goplus/cmakecfg/pkgs/kit"
	"github.com/goplus/cmakecfg/pkgs/macro"
	"github.com/goplus/cmakecfg/pkgs/presets"
)

// Well-known cache variables touched while merging.
const (
	PrefixPathKey     = "CMAKE_PREFIX_PATH"
	FindRootPathKey   = "CMAKE_FIND_ROOT_PATH"
	ToolchainFileKey  = "CMAKE_TOOLCHAIN_FILE"
	CFlagsInitKey     = "CMAKE_C_FLAGS_INIT"
	CxxFlagsInitKey   = "CMAKE_CXX_FLAGS_INIT"
	ProjectIncludeKey = "CMAKE_PROJECT_INCLUDE_BEFORE"
)

// PackageManagerAutoSetupArg includes the package manager auto-setup
// script before the project is configured.
var PackageManagerAutoSetupArg = "-D" + ProjectIncludeKey + ":FILEPATH=" +
	filepath.ToSlash(filepath.Join(env.PackageManagerDir("%{BuildConfig:BuildDirectory:NativeFilePath}"), "auto-setup.cmake"))

// QmlDebugFlagArg seeds CMAKE_CXX_FLAGS_INIT with the QML debug macro.
const QmlDebugFlagArg = "-D" + CxxFlagsInitKey + ":STRING=%{Qt:QML_DEBUG_FLAG}"

// QmllsIniArg asks Qt to generate .qmlls.ini files.
const QmllsIniArg = "-DQT_QML_GENERATE_QMLLS_INI:BOOL=ON"

// kitMacroKeys are keys whose kit value is a %{...} placeholder resolved
// from the kit; presets never override them.
var kitMacroKeys = []string{
	"CMAKE_C_COMPILER",
	"CMAKE_CXX_COMPILER",
	"QT_QMAKE_EXECUTABLE",
	"QT_HOST_PATH",
	ProjectIncludeKey,
}

// BuildInitialCommand returns the arguments of the first CMake run for
// a build configuration of k.
func BuildInitialCommand(k *kit.Kit, p platform.Project, buildType string, s settings.Settings, strategies platform.Table) []string {
	cmd := kit.GeneratorArgs(k)

	if buildType != "" && !kit.IsMultiConfig(k) {
		cmd = append(cmd, "-D"+cmakeconfig.BuildTypeKey+":STRING="+buildType)
	}
	if s.PackageManagerAutoSetup {
		cmd = append(cmd, PackageManagerAutoSetupArg)
	}
	if k != nil && k.Sysroot != "" && !kit.IsIos(k) {
		cmd = append(cmd, "-DCMAKE_SYSROOT:PATH="+k.Sysroot)
		if k.TargetTriple != "" {
			cmd = append(cmd,
				"-DCMAKE_C_COMPILER_TARGET:STRING="+k.TargetTriple,
				"-DCMAKE_CXX_COMPILER_TARGET:STRING="+k.TargetTriple)
		}
	}
	cmd = append(cmd, "-DCMAKE_COLOR_DIAGNOSTICS:BOOL=ON")
	if s.MaintenanceToolPath != "" {
		cmd = append(cmd, "-DQT_MAINTENANCE_TOOL:FILEPATH="+s.MaintenanceToolPath)
	}
	cmd = append(cmd, kit.ToArguments(k)...)
	cmd = append(cmd, kit.AdditionalArgs(k)...)

	cmd = strategies.Apply(cmd, k, p)

	if kit.QmlDebuggingSupported(k) {
		cmd = append(cmd, QmlDebugFlagArg)
	}
	if s.GenerateQmllsIniFiles {
		cmd = append(cmd, QmllsIniArg)
	}
	return cmd
}

// KitExpander returns an expander for the %{...} variables of k.
func KitExpander(k *kit.Kit) macro.Expander {
	m := macro.New()
	if k != nil {
		kit.Macros(k, m)
	}
	return m
}

// PresetName returns the name of the configure preset k was created from.
func PresetName(k *kit.Kit) (string, bool) {
	it, ok := kit.PresetConfigItem(k)
	if !ok {
		return "", false
	}
	return it.ExpandedValue(KitExpander(k)), true
}

func findConfigurePreset(data *presets.Data, k *kit.Kit) (*presets.ConfigurePreset, bool) {
	name, ok := PresetName(k)
	if !ok || data == nil {
		return nil, false
	}
	return data.FindConfigurePreset(name)
}

// presetFlags maps the warnings, errors and debug objects of p to CMake
// options.
func presetFlags(p *presets.ConfigurePreset) []string {
	var flags []string
	choose := func(v *bool, on, off string) {
		switch {
		case v == nil:
		case *v && on != "":
			flags = append(flags, on)
		case !*v && off != "":
			flags = append(flags, off)
		}
	}
	if w := p.Warnings; w != nil {
		choose(w.Dev, "-Wdev", "-Wno-dev")
		choose(w.Deprecated, "-Wdeprecated", "-Wno-deprecated")
		choose(w.Uninitialized, "--warn-uninitialized", "")
		choose(w.UnusedCli, "", "--no-warn-unused-cli")
		choose(w.SystemVars, "--check-system-vars", "")
	}
	if e := p.Errors; e != nil {
		choose(e.Dev, "-Werror=dev", "-Wno-error=dev")
		choose(e.Deprecated, "-Werror=deprecated", "-Wno-error=deprecated")
	}
	if d := p.Debug; d != nil {
		choose(d.Find, "--debug-find", "")
		choose(d.TryCompile, "--debug-trycompile", "")
		choose(d.Output, "--debug-output", "")
	}
	return flags
}

// MergePreset folds the configure preset named by k's preset marker into
// args and returns the result together with the warnings collected while
// expanding preset macros. args is not modified. Merging the same preset
// twice yields the same arguments.
func MergePreset(args []string, data *presets.Data, k *kit.Kit, env *environment.Environment, sourceDir, buildDir string) ([]string, []string) {
	marker, ok := kit.PresetConfigItem(k)
	if !ok {
		return args, nil
	}
	markerArg := cmakeconfig.ToArgument(marker, nil)
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if arg != markerArg {
			out = append(out, arg)
		}
	}

	found, ok := findConfigurePreset(data, k)
	if !ok {
		log.Debugf("merger: configure preset %q not found", marker.Value)
		return out, nil
	}
	// The expander records toolchain and install dirs as cache variables.
	preset := *found
	preset.CacheVariables = found.CacheVariables.Clone()
	if env == nil {
		env = &environment.Environment{}
	}

	for _, flag := range presetFlags(&preset) {
		if !slices.Contains(out, flag) {
			out = append(out, flag)
		}
	}

	var x presets.Expander
	x.UpdateToolchainFile(&preset, env, sourceDir, buildDir)
	x.UpdateInstallDir(&preset, env, sourceDir)

	kitExp := KitExpander(k)
	for _, raw := range preset.CacheVariables.Items() {
		item := raw
		item.Value = x.ExpandString(&preset, env, sourceDir, raw.Value)
		if item.Type == cmakeconfig.Bool {
			item.Value = cmakeconfig.NormalizeBool(item.Value)
		}
		out = mergeItem(out, item, kitExp)
	}
	return out, x.Warnings()
}

func findDefinition(args []string, key string) int {
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-D"+key) {
			continue
		}
		rest := arg[len("-D"+key):]
		if strings.HasPrefix(rest, ":") || strings.HasPrefix(rest, "=") {
			return i
		}
	}
	return -1
}

func mergeItem(args []string, item cmakeconfig.Item, kitExp macro.Expander) []string {
	presetArg := cmakeconfig.ToArgument(item, nil)
	i := findDefinition(args, item.Key)
	if i < 0 {
		if item.IsUnset && slices.Contains(args, presetArg) {
			return args
		}
		log.Debugf("merger: adding %s", presetArg)
		return append(args, presetArg)
	}
	existing, err := cmakeconfig.ParseItem(args[i][2:])
	if err != nil {
		args[i] = presetArg
		return args
	}
	existingValue := existing.ExpandedValue(kitExp)

	switch {
	case slices.Contains(kitMacroKeys, existing.Key) && macro.IsPlaceholder(existing.Value):
		log.Debugf("merger: keeping kit value of %s", existing.Key)
	case existing.Key == PrefixPathKey || existing.Key == FindRootPathKey:
		have := strings.Split(existingValue, ";")
		for _, path := range strings.Split(item.Value, ";") {
			if path == "" || slices.ContainsFunc(have, func(h string) bool { return samePath(h, path) }) {
				continue
			}
			existing.Value += ";" + path
			have = append(have, path)
		}
		args[i] = cmakeconfig.ToArgument(existing, nil)
	case existing.Key == ToolchainFileKey:
		if !samePath(existingValue, item.Value) {
			args[i] = presetArg
		}
	case existing.Key == CFlagsInitKey || existing.Key == CxxFlagsInitKey:
		if existingValue != item.Value && !containsFlags(existingValue, item.Value) {
			existing.Value += " " + item.Value
			args[i] = cmakeconfig.ToArgument(existing, nil)
		}
	case existingValue != item.Value || existing.IsUnset != item.IsUnset:
		args[i] = presetArg
	}
	return args
}

// containsFlags reports whether flags ends with the space separated
// sequence want.
func containsFlags(flags, want string) bool {
	f, w := strings.Fields(flags), strings.Fields(want)
	return len(w) > 0 && len(f) >= len(w) && slices.Equal(f[len(f)-len(w):], w)
}

// canonicalPath resolves symlinks of existing paths; other paths are only
// cleaned.
func canonicalPath(p string) string {
	p = filepath.Clean(filepath.FromSlash(p))
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	return p
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	a, b = canonicalPath(a), canonicalPath(b)
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		return strings.EqualFold(a, b)
	}
	return a == b
}
