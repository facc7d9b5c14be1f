package internal

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goplus/cmakecfg/pkgs/outputparser"
)

func TestParseOutput(t *testing.T) {
	log := strings.Join([]string{
		"-- Configuring done",
		"AutoMoc error",
		"-------------",
		`"main.cpp" includes an unknown file`,
		"",
		"=== BUILD TARGET app OF PROJECT app WITH CONFIGURATION Debug ===",
		"** BUILD FAILED **",
		"",
	}, "\n")

	lines := &outputparser.Lines{}
	tasks, fatal, err := parseOutput(strings.NewReader(log), []string{"autogen", "xcodebuild"}, lines)
	if err != nil {
		t.Fatalf("parseOutput: %v", err)
	}
	if fatal != 1 {
		t.Errorf("fatal = %d, want 1", fatal)
	}
	var got []string
	for _, task := range tasks {
		got = append(got, task.Severity.String()+": "+task.Summary)
	}
	want := []string{"error: AutoMoc error", "error: Xcodebuild failed."}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tasks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"-- Configuring done"}, lines.Stdout); diff != "" {
		t.Errorf("stdout mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOutputUnknownParser(t *testing.T) {
	_, _, err := parseOutput(strings.NewReader(""), []string{"gcc"}, nil)
	if err == nil {
		t.Fatal("parseOutput() should reject unknown parsers")
	}
}
