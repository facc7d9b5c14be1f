package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()
	require.True(t, s.PackageManagerAutoSetup)
	require.Equal(t, "cmake", s.CMakeExecutable)
	require.NoError(t, s.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
package_manager_auto_setup = false
generate_qmlls_ini_files = true
maintenance_tool_path = "/opt/Qt/MaintenanceTool"
log_level = "debug"
`), 0644))

	s, err := LoadFile(path)
	require.NoError(t, err)
	require.False(t, s.PackageManagerAutoSetup)
	require.True(t, s.GenerateQmllsIniFiles)
	require.Equal(t, "/opt/Qt/MaintenanceTool", s.MaintenanceToolPath)
	require.Equal(t, "debug", s.LogLevel)
	require.Equal(t, "cmake", s.CMakeExecutable, "unset keys keep their defaults")
}

func TestLoadFileInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("log_level = \"loud\"\n"), 0644))
	_, err := LoadFile(bad)
	require.Error(t, err)

	broken := filepath.Join(dir, "broken.toml")
	require.NoError(t, os.WriteFile(broken, []byte("log_level = \n"), 0644))
	_, err = LoadFile(broken)
	require.ErrorContains(t, err, "failed to parse settings file")
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("cmake_executable = \"/usr/bin/cmake\"\n"), 0644))
	t.Setenv("CMAKECFG_CMAKE", "/opt/cmake/bin/cmake")
	t.Setenv("CMAKECFG_PACKAGE_MANAGER_AUTO_SETUP", "false")

	s, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "/opt/cmake/bin/cmake", s.CMakeExecutable)
	require.False(t, s.PackageManagerAutoSetup)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	s, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), s)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	want := Default()
	want.ShowAdvancedOptionsByDefault = true
	require.NoError(t, Save(path, want))

	got, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}
