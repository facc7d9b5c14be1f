// Package macro resolves %{Name} placeholders in user-supplied values.
//
// The host registers variables (for example "Qt:QT_INSTALL_PREFIX" or
// "BuildConfig:BuildDirectory:NativeFilePath") and prefix providers such as
// "Env:" on a Map; engine code only sees the Expander interface.
package macro

import (
	"sort"
	"strings"
)

// Expander expands %{...} placeholders in a string.
type Expander interface {
	Expand(s string) string
}

// Func adapts a plain function to the Expander interface.
type Func func(s string) string

func (f Func) Expand(s string) string { return f(s) }

// maxDepth bounds re-expansion of values that themselves contain placeholders.
const maxDepth = 8

type variable struct {
	description string
	value       func() string
}

// Map is an Expander backed by registered variables.
type Map struct {
	vars     map[string]variable
	prefixes map[string]func(name string) (string, bool)
	parent   Expander
}

// New returns an empty Map.
func New() *Map {
	return &Map{
		vars:     make(map[string]variable),
		prefixes: make(map[string]func(string) (string, bool)),
	}
}

// Register adds a variable whose value is computed on every expansion.
func (m *Map) Register(name, description string, value func() string) {
	m.vars[name] = variable{description: description, value: value}
}

// Set registers a variable with a fixed value.
func (m *Map) Set(name, value string) {
	m.Register(name, "", func() string { return value })
}

// RegisterPrefix adds a provider for all names starting with prefix+":".
func (m *Map) RegisterPrefix(prefix string, lookup func(name string) (string, bool)) {
	m.prefixes[prefix] = lookup
}

// SetParent sets the expander consulted for names this Map does not know.
func (m *Map) SetParent(parent Expander) {
	m.parent = parent
}

// Has reports whether name resolves through this Map (parents excluded).
func (m *Map) Has(name string) bool {
	_, ok := m.lookup(name)
	return ok
}

// Description returns the registered description of name.
func (m *Map) Description(name string) string {
	return m.vars[name].description
}

// Names returns the registered variable names, sorted.
func (m *Map) Names() []string {
	names := make([]string, 0, len(m.vars))
	for name := range m.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Map) lookup(name string) (string, bool) {
	if v, ok := m.vars[name]; ok {
		return v.value(), true
	}
	if prefix, rest, ok := strings.Cut(name, ":"); ok {
		if fn, ok := m.prefixes[prefix]; ok {
			return fn(rest)
		}
	}
	return "", false
}

// Expand replaces every known %{Name} in s. Unknown placeholders are kept
// verbatim unless a parent expander resolves them.
func (m *Map) Expand(s string) string {
	for depth := 0; depth < maxDepth; depth++ {
		out := m.expandOnce(s)
		if out == s || !strings.Contains(out, "%{") {
			return out
		}
		s = out
	}
	return s
}

func (m *Map) expandOnce(s string) string {
	var b strings.Builder
	for {
		open := strings.Index(s, "%{")
		if open < 0 {
			b.WriteString(s)
			break
		}
		end := strings.IndexByte(s[open+2:], '}')
		if end < 0 {
			b.WriteString(s)
			break
		}
		name := s[open+2 : open+2+end]
		b.WriteString(s[:open])
		placeholder := s[open : open+3+end]
		if v, ok := m.lookup(name); ok {
			b.WriteString(v)
		} else if m.parent != nil {
			b.WriteString(m.parent.Expand(placeholder))
		} else {
			b.WriteString(placeholder)
		}
		s = s[open+3+end:]
	}
	return b.String()
}

// IsPlaceholder reports whether s starts with a %{...} placeholder.
func IsPlaceholder(s string) bool {
	return strings.HasPrefix(s, "%{")
}
