package kit

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goplus/cmakecfg/pkgs/macro"
)

const kitsHCL = `
kit "Desktop Qt 6.7" {
  generator    = "Ninja"
  make_program = "/usr/bin/ninja"
  config = [
    "CMAKE_CXX_COMPILER:FILEPATH=%%{Compiler:Executable:Cxx}",
    "CMAKE_PREFIX_PATH:PATH=%%{Qt:QT_INSTALL_PREFIX}",
    "QTC_CMAKE_PRESET:INTERNAL=release",
    "broken",
  ]
  additional_configuration = "--log-level=STATUS '-DWITH SPACE=1'"
  sysroot       = "/opt/sysroot-${env.CMAKECFG_KIT_SUFFIX}"
  target_triple = "x86_64-linux-gnu"

  qt {
    version        = "6.7.2"
    install_prefix = "/opt/qt/6.7.2/gcc_64"
    qml_debugging  = true
  }
}

kit "VS" {
  generator = "Visual Studio 17 2022"
  platform  = "ARM64"
  toolset   = "v143"
  target_abi {
    os         = "windows"
    arch       = "arm"
    word_width = 64
  }
}
`

func loadKits(t *testing.T) []*Kit {
	t.Helper()
	t.Setenv("CMAKECFG_KIT_SUFFIX", "x")
	path := filepath.Join(t.TempDir(), "kits.hcl")
	require.NoError(t, os.WriteFile(path, []byte(kitsHCL), 0o644))
	kits, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, kits, 2)
	return kits
}

func TestLoadFile(t *testing.T) {
	kits := loadKits(t)
	desktop, ok := Find(kits, "Desktop Qt 6.7")
	require.True(t, ok)
	require.Equal(t, "/opt/sysroot-x", desktop.Sysroot)
	require.NotNil(t, desktop.Qt)
	require.Equal(t, "6.7.2", desktop.Qt.Version)
	require.Nil(t, desktop.Android)

	vs, ok := Find(kits, "VS")
	require.True(t, ok)
	require.True(t, IsWindowsARM64(vs))
	require.False(t, IsWindowsARM64(desktop))

	_, ok = Find(kits, "missing")
	require.False(t, ok)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`kit "a" { generator = }`), "bad.hcl")
	require.Error(t, err)
	_, err = Parse([]byte(`kit "a" {}
kit "a" {}`), "dup.hcl")
	require.Error(t, err)
	_, err = Parse([]byte(`kit "a" { unknown_attr = 1 }`), "unknown.hcl")
	require.Error(t, err)
}

func TestKitView(t *testing.T) {
	kits := loadKits(t)
	desktop, vs := kits[0], kits[1]

	if got, want := GeneratorArgs(desktop), []string{"-GNinja", "-DCMAKE_MAKE_PROGRAM:FILEPATH=/usr/bin/ninja"}; !reflect.DeepEqual(got, want) {
		t.Errorf("GeneratorArgs = %q, want %q", got, want)
	}
	if got, want := GeneratorArgs(vs), []string{"-GVisual Studio 17 2022", "-AARM64", "-Tv143"}; !reflect.DeepEqual(got, want) {
		t.Errorf("GeneratorArgs(vs) = %q, want %q", got, want)
	}
	if got, want := GeneratorConfig(vs).Keys(), []string{"CMAKE_GENERATOR", "CMAKE_GENERATOR_PLATFORM", "CMAKE_GENERATOR_TOOLSET"}; !reflect.DeepEqual(got, want) {
		t.Errorf("GeneratorConfig keys = %q, want %q", got, want)
	}

	if IsMultiConfig(desktop) || !IsMultiConfig(vs) {
		t.Error("IsMultiConfig mismatch")
	}
	if !IsMultiConfig(&Kit{Generator: "Ninja Multi-Config"}) || !IsMultiConfig(&Kit{Generator: "Xcode"}) {
		t.Error("IsMultiConfig false for multi-config generators")
	}

	want := []string{
		"-DCMAKE_CXX_COMPILER:FILEPATH=%{Compiler:Executable:Cxx}",
		"-DCMAKE_PREFIX_PATH:PATH=%{Qt:QT_INSTALL_PREFIX}",
		"-DQTC_CMAKE_PRESET:INTERNAL=release",
	}
	if got := ToArguments(desktop); !reflect.DeepEqual(got, want) {
		t.Errorf("ToArguments = %q, want %q", got, want)
	}

	marker, ok := PresetConfigItem(desktop)
	if !ok || marker.Value != "release" {
		t.Errorf("PresetConfigItem = %+v, %v", marker, ok)
	}
	if _, ok := PresetConfigItem(vs); ok {
		t.Error("PresetConfigItem(vs) found a marker")
	}

	if got, want := AdditionalArgs(desktop), []string{"--log-level=STATUS", "-DWITH SPACE=1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("AdditionalArgs = %q, want %q", got, want)
	}
}

func TestQtAtLeast(t *testing.T) {
	k := &Kit{Qt: &Qt{Version: "6.1"}}
	tests := []struct {
		v    string
		want bool
	}{
		{"6.0.0", true},
		{"6.1.0", true},
		{"6.8.0", false},
		{"5.15", true},
	}
	for _, tt := range tests {
		if got := QtAtLeast(k, tt.v); got != tt.want {
			t.Errorf("QtAtLeast(6.1, %s) = %v, want %v", tt.v, got, tt.want)
		}
	}
	if QtAtLeast(&Kit{}, "5.0.0") {
		t.Error("QtAtLeast without Qt = true")
	}
}

func TestMacros(t *testing.T) {
	kits := loadKits(t)
	m := macro.New()
	Macros(kits[0], m)
	if got := m.Expand("%{Qt:QT_HOST_PREFIX}|%{Kit:Name}"); got != "/opt/qt/6.7.2/gcc_64|Desktop Qt 6.7" {
		t.Errorf("Expand = %q", got)
	}
}
