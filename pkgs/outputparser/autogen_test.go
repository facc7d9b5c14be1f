package outputparser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// run feeds input through a formatter holding parsers and returns what
// passed through plus the scheduled tasks.
func run(input string, stream Stream, parsers ...LineParser) (*Lines, []Task, *Formatter) {
	lines := &Lines{}
	tasks := &TaskList{}
	f := NewFormatter(lines, parsers...)
	f.SetTaskSink(tasks)
	f.AppendText(input, stream)
	f.Flush()
	return lines, tasks.Tasks(), f
}

var ignoreID = cmpopts.IgnoreFields(Task{}, "ID")

func TestAutogenParser(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		stream Stream
		stdout []string
		stderr []string
		tasks  []Task
	}{
		{
			name: "pass-through stdout", input: "Sometext", stream: Stdout,
			stdout: []string{"Sometext"},
		},
		{
			name: "pass-through stderr", input: "Sometext", stream: Stderr,
			stderr: []string{"Sometext"},
		},
		{
			name: "AutoMoc error",
			input: "AutoMoc error\n-------------\n\"SRC:/main.cpp\"\n" +
				"contains a \"Q_OBJECT\" macro, but does not include \"main.moc\"!\n\n",
			stream: Stderr,
			tasks: []Task{{
				Kind: CMake, Severity: Error, Summary: "AutoMoc error",
				Details: []string{`"SRC:/main.cpp"`, `contains a "Q_OBJECT" macro, but does not include "main.moc"!`},
			}},
		},
		{
			name:   "AUTOMOC warning without separator",
			input:  "AUTOMOC: warning:   \n/src/device.cpp: The file\nincludes the moc file \"device_p.moc\"",
			stream: Stderr,
			tasks: []Task{{
				Kind: CMake, Severity: Warning, Summary: "AUTOMOC: warning:",
				Details: []string{"/src/device.cpp: The file", `includes the moc file "device_p.moc"`},
			}},
		},
		{
			name:   "AutoUic error then pass-through",
			input:  "AutoUic error\n-------------\n\"SRC:/ui/LiveBoard.h\"\n\nafter\n",
			stream: Stdout,
			stdout: []string{"after"},
			tasks: []Task{{
				Kind: CMake, Severity: Error, Summary: "AutoUic error",
				Details: []string{`"SRC:/ui/LiveBoard.h"`},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, tasks, _ := run(tt.input, tt.stream, NewAutogenParser())
			if diff := cmp.Diff(tt.stdout, lines.Stdout); diff != "" {
				t.Errorf("stdout mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.stderr, lines.Stderr); diff != "" {
				t.Errorf("stderr mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.tasks, tasks, ignoreID, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("tasks mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAutogenPromotesFirstDetail(t *testing.T) {
	p := NewAutogenParser()
	tasks := &TaskList{}
	p.SetSink(tasks)
	p.HandleLine("AutoMoc error", Stderr)
	p.task.Summary = ""
	p.HandleLine("----", Stderr)
	p.HandleLine("first", Stderr)
	p.HandleLine("second", Stderr)
	if got := p.HandleLine("", Stderr).Status; got != Done {
		t.Fatalf("blank line status = %v, want Done", got)
	}
	got := tasks.Tasks()
	if len(got) != 1 || got[0].Summary != "first" || strings.Join(got[0].Details, "|") != "second" {
		t.Errorf("tasks = %+v", got)
	}
	if got[0].ID == "" {
		t.Error("task has no ID")
	}
}

func TestAutogenStatuses(t *testing.T) {
	p := NewAutogenParser()
	want := []Status{NotHandled, InProgress, InProgress, InProgress, Done, NotHandled}
	for i, line := range []string{"noise", "AutoMoc error", "---", "detail", "", "noise"} {
		if got := p.HandleLine(line, Stderr).Status; got != want[i] {
			t.Errorf("line %d %q: status = %v, want %v", i, line, got, want[i])
		}
	}
}
