package outputparser

import (
	"path/filepath"
	"strings"
)

// Stream identifies the output channel a line came from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// Status is the outcome of handling one line.
type Status int

const (
	// Done means the line was consumed.
	Done Status = iota
	// NotHandled passes the line on.
	NotHandled
	// InProgress means the parser wants the following lines too.
	InProgress
)

// Result of LineParser.HandleLine.
type Result struct {
	Status    Status
	LinkSpecs []LinkSpec
}

// LineParser is one stage of the output pipeline.
type LineParser interface {
	HandleLine(line string, stream Stream) Result
	// Flush schedules any task still being collected.
	Flush()
	// HasDetectedRedirection reports that stdout currently carries what is
	// really error output.
	HasDetectedRedirection() bool
	// FatalErrors returns the number of fatal errors seen so far.
	FatalErrors() int
	SetSink(sink TaskSink)
	SetWorkingDirectory(dir string)
}

// Base implements the bookkeeping shared by parsers. Embed it and
// override what differs.
type Base struct {
	sink       TaskSink
	workingDir string
	fatal      int
}

func (b *Base) SetSink(sink TaskSink)          { b.sink = sink }
func (b *Base) SetWorkingDirectory(dir string) { b.workingDir = dir }
func (b *Base) Flush()                         {}
func (b *Base) HasDetectedRedirection() bool   { return false }
func (b *Base) FatalErrors() int               { return b.fatal }

func (b *Base) addFatal() { b.fatal++ }

// Schedule hands task to the sink, if any.
func (b *Base) Schedule(task Task, lineCount, skippedLines int) {
	if b.sink != nil {
		b.sink.Schedule(task, lineCount, skippedLines)
	}
}

// AbsoluteFilePath resolves path against the working directory.
func (b *Base) AbsoluteFilePath(path string) string {
	if path == "" || filepath.IsAbs(path) || b.workingDir == "" {
		return path
	}
	return filepath.Join(b.workingDir, path)
}

func rightTrimmed(s string) string {
	return strings.TrimRight(s, " \t\r\n\f\v")
}
