// Package outputparser classifies build output lines into tasks.
package outputparser

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Severity of a Task.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	}
	return "info"
}

// Kind tells which tool a Task comes from.
type Kind int

const (
	Compile Kind = iota
	BuildSystem
	CMake
)

func (k Kind) String() string {
	switch k {
	case Compile:
		return "compile"
	case BuildSystem:
		return "buildsystem"
	}
	return "cmake"
}

// LinkSpec marks the part of a line that refers to Target.
type LinkSpec struct {
	Start  int
	Length int
	Target string
}

// Task is a classified diagnostic.
type Task struct {
	ID        string
	Kind      Kind
	Severity  Severity
	Summary   string
	Details   []string
	File      string
	Line      int
	Column    int
	LinkSpecs []LinkSpec
}

// NewTask returns a task with a fresh identifier.
func NewTask(kind Kind, severity Severity, summary string) Task {
	return Task{ID: uuid.New().String(), Kind: kind, Severity: severity, Summary: summary}
}

// IsNull reports whether t is the zero task.
func (t Task) IsNull() bool {
	return t.ID == "" && t.Summary == "" && len(t.Details) == 0
}

func (t Task) String() string {
	var b strings.Builder
	b.WriteString(t.Severity.String())
	b.WriteString(": ")
	if t.File != "" {
		b.WriteString(t.File)
		b.WriteString(": ")
	}
	b.WriteString(t.Summary)
	for _, d := range t.Details {
		b.WriteString("\n    ")
		b.WriteString(d)
	}
	return b.String()
}

// TaskSink receives finished tasks. lineCount is the number of output
// lines the task was built from; skippedLines of them are not shown.
type TaskSink interface {
	Schedule(task Task, lineCount, skippedLines int)
}

// TaskList is a TaskSink that keeps tasks in memory. It is safe for
// concurrent use.
type TaskList struct {
	mu    sync.Mutex
	tasks []Task
}

func (l *TaskList) Schedule(task Task, lineCount, skippedLines int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tasks = append(l.tasks, task)
}

// Tasks returns a copy of the scheduled tasks.
func (l *TaskList) Tasks() []Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Task(nil), l.tasks...)
}

// Clear drops all tasks.
func (l *TaskList) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tasks = nil
}
