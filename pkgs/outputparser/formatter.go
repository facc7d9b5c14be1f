package outputparser

import (
	"io"
	"strings"
	"sync"
)

// LineSink receives the lines no parser consumed.
type LineSink interface {
	WriteLine(line string, stream Stream)
}

// LineSinkFunc adapts a function to LineSink.
type LineSinkFunc func(line string, stream Stream)

func (f LineSinkFunc) WriteLine(line string, stream Stream) { f(line, stream) }

// Formatter feeds output through a chain of parsers. Lines nobody
// consumes go to the sink; stdout lines are moved to stderr while a parser
// reports redirection. It is safe to feed both streams from different
// goroutines.
type Formatter struct {
	mu       sync.Mutex
	parsers  []LineParser
	sink     LineSink
	pending  [2]strings.Builder
	inFlight LineParser
}

// NewFormatter returns a formatter writing to sink.
func NewFormatter(sink LineSink, parsers ...LineParser) *Formatter {
	return &Formatter{sink: sink, parsers: parsers}
}

// AddParser appends p to the chain.
func (f *Formatter) AddParser(p LineParser) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parsers = append(f.parsers, p)
}

// SetTaskSink connects every parser to sink.
func (f *Formatter) SetTaskSink(sink TaskSink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.parsers {
		p.SetSink(sink)
	}
}

// SetWorkingDirectory sets the directory relative paths are resolved in.
func (f *Formatter) SetWorkingDirectory(dir string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.parsers {
		p.SetWorkingDirectory(dir)
	}
}

// AppendText feeds a chunk of output. Incomplete trailing lines are kept
// until the rest arrives or Flush is called.
func (f *Formatter) AppendText(text string, stream Stream) {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := &f.pending[stream]
	buf.WriteString(text)
	data := buf.String()
	last := strings.LastIndexByte(data, '\n')
	if last < 0 {
		return
	}
	buf.Reset()
	buf.WriteString(data[last+1:])
	for _, line := range strings.Split(data[:last], "\n") {
		f.handleLine(strings.TrimSuffix(line, "\r"), stream)
	}
}

// HandleLine feeds one complete line.
func (f *Formatter) HandleLine(line string, stream Stream) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handleLine(line, stream)
}

func (f *Formatter) handleLine(line string, stream Stream) {
	if f.inFlight != nil {
		switch f.inFlight.HandleLine(line, stream).Status {
		case InProgress:
			return
		case Done:
			f.inFlight = nil
			return
		}
		f.inFlight = nil
	}
	for _, p := range f.parsers {
		switch p.HandleLine(line, stream).Status {
		case Done:
			return
		case InProgress:
			f.inFlight = p
			return
		}
	}
	if stream == Stdout && f.redirected() {
		stream = Stderr
	}
	if f.sink != nil {
		f.sink.WriteLine(line, stream)
	}
}

func (f *Formatter) redirected() bool {
	for _, p := range f.parsers {
		if p.HasDetectedRedirection() {
			return true
		}
	}
	return false
}

// Flush feeds any incomplete lines and finalizes pending tasks.
func (f *Formatter) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range f.pending {
		if rest := f.pending[s].String(); rest != "" {
			f.pending[s].Reset()
			f.handleLine(strings.TrimSuffix(rest, "\r"), Stream(s))
		}
	}
	for _, p := range f.parsers {
		p.Flush()
	}
	f.inFlight = nil
}

// FatalErrors sums the fatal error counts of all parsers.
func (f *Formatter) FatalErrors() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.parsers {
		n += p.FatalErrors()
	}
	return n
}

// Writer returns an io.Writer feeding stream, suitable for exec.Cmd.
func (f *Formatter) Writer(stream Stream) io.Writer {
	return streamWriter{f: f, stream: stream}
}

type streamWriter struct {
	f      *Formatter
	stream Stream
}

func (w streamWriter) Write(p []byte) (int, error) {
	w.f.AppendText(string(p), w.stream)
	return len(p), nil
}

// Lines is a LineSink that records lines per stream.
type Lines struct {
	mu     sync.Mutex
	Stdout []string
	Stderr []string
}

func (l *Lines) WriteLine(line string, stream Stream) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if stream == Stderr {
		l.Stderr = append(l.Stderr, line)
		return
	}
	l.Stdout = append(l.Stdout, line)
}
