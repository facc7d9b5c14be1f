package internal

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPrintArgs(t *testing.T) {
	var out bytes.Buffer
	err := printArgs(&out, []string{"-GNinja", "-DFOO:BOOL=yes", "--fresh", "-UBAR"})
	if err != nil {
		t.Fatalf("printArgs: %v", err)
	}
	want := []string{
		"item\tCMAKE_GENERATOR:STRING=Ninja",
		"item\tFOO:BOOL=ON",
		"item\tunset BAR",
		"other\t--fresh",
	}
	got := strings.Split(strings.TrimSpace(out.String()), "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("printArgs() mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintArgsReportsErrors(t *testing.T) {
	var out bytes.Buffer
	err := printArgs(&out, []string{"-DOK=1", "-D"})
	if err == nil {
		t.Fatal("printArgs() should fail on a missing operand")
	}
	if !strings.Contains(out.String(), "OK") {
		t.Errorf("valid items should still be printed, got %q", out.String())
	}
}

func TestPrintCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CMakeCache.txt")
	cache := `// Build type
CMAKE_BUILD_TYPE:STRING=Debug
CMAKE_AR:FILEPATH=/usr/bin/ar
CMAKE_AR-ADVANCED:INTERNAL=1
`
	if err := os.WriteFile(path, []byte(cache), 0644); err != nil {
		t.Fatal(err)
	}

	rootCmd.SetArgs([]string{"cache", path})
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	defer rootCmd.SetOut(nil)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("cache: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "CMAKE_BUILD_TYPE:STRING=Debug\n\tBuild type\n") {
		t.Errorf("cache output misses the build type: %q", got)
	}
	if strings.Contains(got, "CMAKE_AR") {
		t.Errorf("advanced items should be hidden: %q", got)
	}
}
