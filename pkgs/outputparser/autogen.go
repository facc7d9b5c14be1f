package outputparser

import "regexp"

var (
	autogenError     = regexp.MustCompile(`^(AutoMoc|AUTOMOC|AutoUic).*error.*$`)
	autogenWarning   = regexp.MustCompile(`^(AutoMoc|AUTOMOC|AutoUic).*warning.*$`)
	autogenSeparator = regexp.MustCompile(`^[-]+$`)
)

type autogenState int

const (
	autogenNone autogenState = iota
	autogenLineSeparator
	autogenLineDescription
)

// AutogenParser turns AUTOMOC/AUTOUIC diagnostics into CMake tasks. A
// diagnostic is a summary line, an optional dashed separator and detail
// lines up to the next blank line.
type AutogenParser struct {
	Base
	state autogenState
	task  Task
	lines int
}

// NewAutogenParser returns a parser in its initial state.
func NewAutogenParser() *AutogenParser {
	return &AutogenParser{}
}

func (p *AutogenParser) HandleLine(line string, _ Stream) Result {
	trimmed := rightTrimmed(line)
	switch p.state {
	case autogenNone:
		severity := Error
		m := autogenError.FindString(trimmed)
		if m == "" {
			severity = Warning
			m = autogenWarning.FindString(trimmed)
		}
		if m == "" {
			return Result{Status: NotHandled}
		}
		p.task = NewTask(CMake, severity, m)
		p.lines = 1
		p.state = autogenLineSeparator
		return Result{Status: InProgress}
	case autogenLineSeparator:
		p.state = autogenLineDescription
		if !autogenSeparator.MatchString(trimmed) {
			p.task.Details = append(p.task.Details, trimmed)
		}
		return Result{Status: InProgress}
	default:
		if trimmed == "" && !p.task.IsNull() {
			p.Flush()
			return Result{Status: Done}
		}
		p.task.Details = append(p.task.Details, trimmed)
		return Result{Status: InProgress}
	}
}

// Flush schedules the pending task and resets the parser.
func (p *AutogenParser) Flush() {
	p.state = autogenNone
	if p.task.IsNull() {
		return
	}
	t := p.task
	p.task = Task{}
	if t.Summary == "" && len(t.Details) > 0 {
		t.Summary, t.Details = t.Details[0], t.Details[1:]
	}
	p.lines += len(t.Details)
	p.Schedule(t, p.lines, 1)
	p.lines = 0
}
