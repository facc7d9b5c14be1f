package buildconfig

import (
	"path/filepath"
	"testing"

	"github.com/goplus/cmakecfg/pkgs/cmakeconfig"
	"github.com/goplus/cmakecfg/pkgs/kit"
)

func TestBuildTypeFromString(t *testing.T) {
	tests := map[string]BuildType{
		"Debug":          BuildTypeDebug,
		"release":        BuildTypeRelease,
		"RELWITHDEBINFO": BuildTypeRelWithDebInfo,
		"MinSizeRel":     BuildTypeMinSizeRel,
		"profile":        BuildTypeProfile,
		"Coverage":       BuildTypeUnknown,
		"":               BuildTypeUnknown,
	}
	for in, want := range tests {
		if got := BuildTypeFromString(in); got != want {
			t.Errorf("BuildTypeFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestBuildTypeFromCache(t *testing.T) {
	single := cmakeconfig.NewStore(cmakeconfig.NewItem(cmakeconfig.BuildTypeKey, cmakeconfig.String, "Release"))
	if got := BuildTypeFromCache(single, "Debug"); got != BuildTypeRelease {
		t.Errorf("single-config = %v, want Release", got)
	}
	multi := cmakeconfig.NewStore(cmakeconfig.NewItem(ConfigurationTypesKey, cmakeconfig.String, "Debug;Release"))
	if got := BuildTypeFromCache(multi, "Debug"); got != BuildTypeDebug {
		t.Errorf("multi-config = %v, want Debug", got)
	}
	if got := BuildTypeFromCache(&cmakeconfig.Store{}, "Debug"); got != BuildTypeUnknown {
		t.Errorf("unconfigured = %v, want Unknown", got)
	}
}

func TestCMakeName(t *testing.T) {
	if got := BuildTypeProfile.CMakeName(); got != "RelWithDebInfo" {
		t.Errorf("Profile.CMakeName() = %q", got)
	}
	if got := BuildTypeUnknown.CMakeName(); got != "" {
		t.Errorf("Unknown.CMakeName() = %q", got)
	}
	if got := DefaultQmlDebugging(BuildTypeDebug); got != Enabled {
		t.Errorf("DefaultQmlDebugging(Debug) = %v", got)
	}
	if got := DefaultQmlDebugging(BuildTypeRelease); got != Default {
		t.Errorf("DefaultQmlDebugging(Release) = %v", got)
	}
}

func TestShadowBuildDirectory(t *testing.T) {
	k := &kit.Kit{Name: "Desktop Qt 6.5 (GCC)", Generator: "Ninja"}
	want := filepath.Join("/src", "build", "Desktop_Qt_6.5__GCC_-Debug")
	if got := ShadowBuildDirectory("/src", k, "Debug"); got != want {
		t.Errorf("ShadowBuildDirectory = %q, want %q", got, want)
	}

	k.Generator = "Ninja Multi-Config"
	want = filepath.Join("/src", "build", "Desktop_Qt_6.5__GCC_")
	if got := ShadowBuildDirectory("/src", k, "Debug"); got != want {
		t.Errorf("multi-config ShadowBuildDirectory = %q, want %q", got, want)
	}
	if got := ShadowBuildDirectory("", k, "Debug"); got != "" {
		t.Errorf("ShadowBuildDirectory without project = %q", got)
	}
}
