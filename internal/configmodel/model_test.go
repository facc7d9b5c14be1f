package configmodel

import (
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/goplus/cmakecfg/pkgs/cmakeconfig"
	"github.com/goplus/cmakecfg/pkgs/macro"
)

func currentStore() *cmakeconfig.Store {
	adv := cmakeconfig.NewItem("CMAKE_AR", cmakeconfig.Filepath, "/usr/bin/ar")
	adv.IsAdvanced = true
	return cmakeconfig.NewStore(
		cmakeconfig.NewItem("ZLIB", cmakeconfig.Bool, "ON"),
		cmakeconfig.NewItem("CMAKE_BUILD_TYPE", cmakeconfig.String, "Debug"),
		adv,
		cmakeconfig.NewItem("CMAKE_HOME_DIRECTORY", cmakeconfig.Internal, "/src"),
		cmakeconfig.NewItem("CMAKE_INSTALL_PREFIX", cmakeconfig.Path, "/usr/local"),
	)
}

func initialStore() *cmakeconfig.Store {
	return cmakeconfig.NewStore(
		cmakeconfig.NewItem("CMAKE_BUILD_TYPE", cmakeconfig.String, "Release"),
		cmakeconfig.NewItem("CMAKE_GENERATOR", cmakeconfig.String, "Ninja"),
	)
}

func newModel() *Model {
	m := New()
	m.SetConfiguration(currentStore())
	m.SetInitialParametersConfiguration(initialStore())
	return m
}

func keys(m *Model, idx []int) []string {
	var out []string
	for _, i := range idx {
		out = append(out, m.Row(i).Key)
	}
	return out
}

func find(t *testing.T, m *Model, key string, initial bool) int {
	t.Helper()
	for i := 0; i < m.Len(); i++ {
		if r := m.Row(i); r.Key == key && r.IsInitial == initial {
			return i
		}
	}
	t.Fatalf("row %s (initial=%v) not found", key, initial)
	return -1
}

func TestRowsSortedAndFiltered(t *testing.T) {
	m := newModel()

	current := m.Rows(Initial(false), Advanced(false))
	want := []string{"CMAKE_BUILD_TYPE", "CMAKE_INSTALL_PREFIX", "ZLIB"}
	if diff := cmp.Diff(want, keys(m, current)); diff != "" {
		t.Errorf("current rows mismatch (-want +got):\n%s", diff)
	}

	all := m.Rows(Initial(false), Advanced(true))
	want = []string{"CMAKE_AR", "CMAKE_BUILD_TYPE", "CMAKE_INSTALL_PREFIX", "ZLIB"}
	if diff := cmp.Diff(want, keys(m, all)); diff != "" {
		t.Errorf("advanced rows mismatch (-want +got):\n%s", diff)
	}

	text := m.Rows(Text(regexp.MustCompile("(?i)build")))
	want = []string{"CMAKE_BUILD_TYPE", "CMAKE_BUILD_TYPE"}
	if diff := cmp.Diff(want, keys(m, text)); diff != "" {
		t.Errorf("text rows mismatch (-want +got):\n%s", diff)
	}

	// Filtering never moves rows.
	before := m.Row(current[0])
	m.Rows(Initial(true))
	require.Equal(t, before, m.Row(current[0]))
}

func TestSetValueAndConfigurationForCMake(t *testing.T) {
	m := newModel()
	zlib := find(t, m, "ZLIB", false)
	m.SetValue(zlib, "no")

	r := m.Row(zlib)
	require.True(t, r.IsUserChanged)
	require.Equal(t, "OFF", r.NewValue)
	require.Equal(t, "ON", r.Value)
	require.True(t, m.HasChanges(false))
	require.False(t, m.HasChanges(true))

	changes := m.ConfigurationForCMake()
	require.Len(t, changes, 1)
	require.Equal(t, "OFF", changes[0].Value)

	m.SetValue(zlib, "ON")
	require.False(t, m.Row(zlib).IsUserChanged)
	require.Empty(t, m.ConfigurationForCMake())
}

func TestInitialEditsStayInInitialLayer(t *testing.T) {
	m := newModel()
	m.SetValue(find(t, m, "CMAKE_BUILD_TYPE", true), "MinSizeRel")

	require.Zero(t, m.Changes(false).Len())
	initial := m.Changes(true)
	require.Equal(t, "MinSizeRel", initial.ValueOf("CMAKE_BUILD_TYPE"))
	it, _ := initial.Find("CMAKE_BUILD_TYPE")
	require.True(t, it.IsInitial)
}

func TestAppendAndSetKey(t *testing.T) {
	m := newModel()
	i := m.AppendConfiguration("<UNSET>", "yes", Boolean, true)
	require.True(t, m.SetKey(i, "WITH_TESTS"))
	require.False(t, m.SetKey(find(t, m, "ZLIB", false), "OTHER"))

	r := m.Row(i)
	require.Equal(t, "ON", r.Value)
	require.True(t, r.IsUserNew)
	require.True(t, m.HasChanges(true))

	got := m.Changes(true).Items()
	require.Len(t, got, 1)
	require.Equal(t, "WITH_TESTS", got[0].Key)
	require.Equal(t, cmakeconfig.Bool, got[0].Type)
}

func TestToggleUnset(t *testing.T) {
	m := newModel()
	i := find(t, m, "CMAKE_INSTALL_PREFIX", false)
	m.ToggleUnsetFlag(i)
	require.True(t, m.Row(i).IsUnset)
	require.Equal(t, "/usr/local", m.Row(i).Value)

	args := cmakeconfig.ToArguments(m.Changes(false), nil)
	require.Equal(t, []string{"-UCMAKE_INSTALL_PREFIX"}, args)

	m.ToggleUnsetFlag(i)
	require.False(t, m.HasChanges(false))
}

func TestForceTo(t *testing.T) {
	m := newModel()
	i := find(t, m, "CMAKE_BUILD_TYPE", false)
	require.True(t, m.CanForceTo(i, Boolean))
	require.False(t, m.CanForceTo(i, String))

	m.ForceTo(i, Boolean)
	require.Equal(t, Boolean, m.Row(i).Type)
	require.Equal(t, "OFF", m.Row(i).Value)

	j := m.AppendConfiguration("RAW", "x", Unknown, false)
	require.False(t, m.CanForceTo(j, String))
}

func TestApplyKitAndInitialValue(t *testing.T) {
	m := newModel()
	m.SetConfigurationFromKit(map[string]cmakeconfig.Item{
		"CMAKE_INSTALL_PREFIX": cmakeconfig.NewItem("CMAKE_INSTALL_PREFIX", cmakeconfig.Path, "/opt/kit"),
	})
	i := find(t, m, "CMAKE_INSTALL_PREFIX", false)
	require.Equal(t, "/opt/kit", m.Row(i).KitValue)

	m.ApplyKitValue(i)
	require.Equal(t, "/opt/kit", m.Row(i).NewValue)

	b := find(t, m, "CMAKE_BUILD_TYPE", false)
	require.Equal(t, "Release", m.Row(b).InitialValue)
	m.ApplyInitialValue(b)
	require.True(t, m.Row(b).IsUserChanged)
	require.Equal(t, "Release", m.Row(b).NewValue)

	// Without a kit value nothing happens.
	z := find(t, m, "ZLIB", false)
	m.ApplyKitValue(z)
	require.False(t, m.Row(z).IsUserChanged)
}

func TestResetAllChanges(t *testing.T) {
	m := newModel()
	m.SetValue(find(t, m, "CMAKE_BUILD_TYPE", true), "Debug")
	m.AppendConfiguration("NEW_INITIAL", "1", String, true)
	m.SetValue(find(t, m, "ZLIB", false), "OFF")

	m.ResetAllChanges(true)
	require.False(t, m.HasChanges(true))
	require.True(t, m.HasChanges(false))
	for i := 0; i < m.Len(); i++ {
		require.NotEqual(t, "NEW_INITIAL", m.Row(i).Key)
	}

	m.ResetAllChanges(false)
	require.False(t, m.HasChanges(false))
}

func TestSetBatchEditConfiguration(t *testing.T) {
	m := newModel()
	edits := cmakeconfig.NewStore(
		cmakeconfig.NewItem("ZLIB", cmakeconfig.Bool, "OFF"),
		cmakeconfig.Item{Key: "CMAKE_INSTALL_PREFIX", IsUnset: true},
		cmakeconfig.Item{Key: "CMAKE_BUILD_TYPE", Type: cmakeconfig.String, Value: "RelWithDebInfo", IsInitial: true},
		cmakeconfig.NewItem("BRAND_NEW", cmakeconfig.String, "v"),
		cmakeconfig.Item{Key: "GONE", IsUnset: true},
	)
	m.SetBatchEditConfiguration(edits)

	require.Equal(t, "OFF", m.Row(find(t, m, "ZLIB", false)).NewValue)
	require.True(t, m.Row(find(t, m, "CMAKE_INSTALL_PREFIX", false)).IsUnset)
	require.Equal(t, "RelWithDebInfo", m.Row(find(t, m, "CMAKE_BUILD_TYPE", true)).NewValue)
	require.True(t, m.Row(find(t, m, "BRAND_NEW", false)).IsUserNew)

	current := cmakeconfig.ToArguments(m.Changes(false), nil)
	want := []string{"-UCMAKE_INSTALL_PREFIX", "-DZLIB:BOOL=OFF", "-DBRAND_NEW:STRING=v"}
	if diff := cmp.Diff(want, current); diff != "" {
		t.Errorf("current changes mismatch (-want +got):\n%s", diff)
	}
}

func TestSetConfigurationKeepsEdits(t *testing.T) {
	m := newModel()
	m.SetValue(find(t, m, "ZLIB", false), "OFF")
	m.AppendConfiguration("USER_VAR", "1", String, false)

	// CMake reports the cache again without the edit applied.
	m.SetConfiguration(currentStore())
	require.Equal(t, "OFF", m.Row(find(t, m, "ZLIB", false)).NewValue)
	require.True(t, m.Row(find(t, m, "USER_VAR", false)).IsUserNew)

	// CMake applied the edit.
	applied := currentStore()
	applied.Put(cmakeconfig.NewItem("ZLIB", cmakeconfig.Bool, "OFF"))
	applied.Put(cmakeconfig.NewItem("USER_VAR", cmakeconfig.String, "1"))
	m.SetConfiguration(applied)
	require.False(t, m.HasChanges(false))
}

func TestExpandedValue(t *testing.T) {
	m := New()
	vars := macro.New()
	vars.Set("Kit:Name", "desktop")
	m.SetMacroExpander(vars)
	i := m.AppendConfiguration("NAME", "%{Kit:Name}", String, false)
	require.Equal(t, "desktop", m.ExpandedValue(i))
}
