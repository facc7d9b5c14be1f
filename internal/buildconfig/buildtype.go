package buildconfig

import (
	"path/filepath"
	"strings"

	"github.com/goplus/cmakecfg/pkgs/cmakeconfig"
	"github.com/goplus/cmakecfg/pkgs/kit"
)

// BuildType classifies a CMAKE_BUILD_TYPE value.
type BuildType string

const (
	BuildTypeDebug          BuildType = "Debug"
	BuildTypeRelease        BuildType = "Release"
	BuildTypeRelWithDebInfo BuildType = "RelWithDebInfo"
	BuildTypeMinSizeRel     BuildType = "MinSizeRel"
	BuildTypeProfile        BuildType = "Profile"
	BuildTypeUnknown        BuildType = "Unknown"
)

// ConfigurationTypesKey lists the configurations of multi-config
// generators.
const ConfigurationTypesKey = "CMAKE_CONFIGURATION_TYPES"

// BuildTypeFromString maps a build type name to one of the known build
// types, ignoring case. Custom build types are Unknown.
func BuildTypeFromString(s string) BuildType {
	switch strings.ToLower(s) {
	case "debug":
		return BuildTypeDebug
	case "release":
		return BuildTypeRelease
	case "relwithdebinfo":
		return BuildTypeRelWithDebInfo
	case "minsizerel":
		return BuildTypeMinSizeRel
	case "profile":
		return BuildTypeProfile
	}
	return BuildTypeUnknown
}

// CMakeName returns the CMAKE_BUILD_TYPE used for t. Profile builds are
// RelWithDebInfo builds with QML debugging.
func (t BuildType) CMakeName() string {
	switch t {
	case BuildTypeProfile:
		return string(BuildTypeRelWithDebInfo)
	case BuildTypeUnknown:
		return ""
	}
	return string(t)
}

// DefaultQmlDebugging is the QML debugging setting new build
// configurations of type t start with.
func DefaultQmlDebugging(t BuildType) TriState {
	if t == BuildTypeDebug || t == BuildTypeProfile {
		return Enabled
	}
	return Default
}

// BuildTypeFromCache classifies the build type of a configured tree.
// Multi-config trees have no CMAKE_BUILD_TYPE; selected names the
// configuration the user picked for them.
func BuildTypeFromCache(config *cmakeconfig.Store, selected string) BuildType {
	name := config.ValueOf(cmakeconfig.BuildTypeKey)
	if name == "" && config.ValueOf(ConfigurationTypesKey) != "" {
		name = selected
	}
	return BuildTypeFromString(name)
}

// ShadowBuildDirectory returns the default build directory of a build
// configuration called name for the project in sourceDir. Multi-config
// generators share one directory for all configurations.
func ShadowBuildDirectory(sourceDir string, k *kit.Kit, name string) string {
	if sourceDir == "" {
		return ""
	}
	dir := "default"
	if k != nil && k.Name != "" {
		dir = k.Name
	}
	if !kit.IsMultiConfig(k) && name != "" {
		dir += "-" + name
	}
	return filepath.Join(sourceDir, "build", fileSystemName(dir))
}

func fileSystemName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, s)
}
