package outputparser

import (
	"regexp"
	"slices"
	"strings"
)

// XcodebuildState tracks whether output comes from inside an xcodebuild run.
type XcodebuildState int

const (
	InsideXcodebuild XcodebuildState = iota
	OutsideXcodebuild
	UnknownXcodebuildState
)

func (s XcodebuildState) String() string {
	switch s {
	case InsideXcodebuild:
		return "inside"
	case OutsideXcodebuild:
		return "outside"
	}
	return "unknown"
}

var (
	xcodeFailure = regexp.MustCompile(`\*\* BUILD FAILED \*\*$`)
	xcodeSuccess = regexp.MustCompile(`\*\* BUILD SUCCEEDED \*\*$`)
	xcodeBuild   = regexp.MustCompile(`=== BUILD (AGGREGATE )?TARGET (.*) OF PROJECT (.*) WITH .* ===$`)

	xcodeNotes = []string{
		"note: Build preparation complete",
		"note: Building targets in parallel",
		"note: Planning build",
	}
)

const signatureChangeSuffix = ": replacing existing signature"

// XcodebuildParser follows xcodebuild output. While a build is running
// its stdout is treated as error output.
type XcodebuildParser struct {
	Base
	state XcodebuildState
}

// NewXcodebuildParser returns a parser in the Outside state.
func NewXcodebuildParser() *XcodebuildParser {
	return &XcodebuildParser{state: OutsideXcodebuild}
}

// State returns the current state.
func (p *XcodebuildParser) State() XcodebuildState { return p.state }

// SetState overrides the current state.
func (p *XcodebuildParser) SetState(s XcodebuildState) { p.state = s }

func (p *XcodebuildParser) HandleLine(line string, stream Stream) Result {
	lne := rightTrimmed(line)
	if stream == Stdout {
		if xcodeBuild.MatchString(line) || slices.Contains(xcodeNotes, lne) {
			p.state = InsideXcodebuild
			return Result{Status: Done}
		}
		if !xcodeFailure.MatchString(lne) {
			return p.handleStdout(lne)
		}
	}
	if xcodeFailure.MatchString(lne) {
		p.addFatal()
		p.state = UnknownXcodebuildState
		p.Schedule(NewTask(Compile, Error, "Xcodebuild failed."), 1, 0)
	}
	if p.state == OutsideXcodebuild {
		return Result{Status: NotHandled}
	}
	return Result{Status: Done}
}

func (p *XcodebuildParser) handleStdout(lne string) Result {
	if p.state != InsideXcodebuild && p.state != UnknownXcodebuildState {
		return Result{Status: NotHandled}
	}
	if xcodeSuccess.MatchString(lne) {
		p.state = OutsideXcodebuild
		return Result{Status: Done}
	}
	if strings.HasSuffix(lne, signatureChangeSuffix) {
		end := len(lne) - len(signatureChangeSuffix)
		task := NewTask(Compile, Warning, "Replacing signature")
		task.File = p.AbsoluteFilePath(lne[:end])
		links := []LinkSpec{{Start: 0, Length: end, Target: task.File}}
		task.LinkSpecs = links
		p.Schedule(task, 1, 0)
		return Result{Status: Done, LinkSpecs: links}
	}
	return Result{Status: NotHandled}
}

// HasDetectedRedirection reports whether stdout currently belongs to a
// running xcodebuild.
func (p *XcodebuildParser) HasDetectedRedirection() bool {
	return p.state != OutsideXcodebuild
}
