// Package environment provides the process environment model used for
// configure runs: a key/value map with list-aware edits and change items.
package environment

import (
	"os"
	"runtime"
	"sort"
	"strings"
)

// PathListSeparator separates entries of PATH-like variables on the host.
var PathListSeparator = string(os.PathListSeparator)

// Environment is a string map of variables. The zero value is empty and
// ready to use.
type Environment struct {
	vars map[string]string
}

// New builds an environment from KEY=VALUE pairs.
func New(kvs []string) *Environment {
	e := &Environment{vars: make(map[string]string, len(kvs))}
	for _, kv := range kvs {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			e.vars[k] = v
		}
	}
	return e
}

// System returns a snapshot of the current process environment.
func System() *Environment {
	return New(os.Environ())
}

// FromMap copies m into a new environment.
func FromMap(m map[string]string) *Environment {
	e := &Environment{vars: make(map[string]string, len(m))}
	for k, v := range m {
		e.vars[k] = v
	}
	return e
}

func (e *Environment) key(name string) string {
	if runtime.GOOS != "windows" {
		return name
	}
	for k := range e.vars {
		if strings.EqualFold(k, name) {
			return k
		}
	}
	return name
}

// Value returns the value of name.
func (e *Environment) Value(name string) (string, bool) {
	if e == nil {
		return "", false
	}
	v, ok := e.vars[e.key(name)]
	return v, ok
}

// Has reports whether name is set.
func (e *Environment) Has(name string) bool {
	_, ok := e.Value(name)
	return ok
}

// Set assigns value to name.
func (e *Environment) Set(name, value string) {
	if e.vars == nil {
		e.vars = make(map[string]string)
	}
	e.vars[e.key(name)] = value
}

// Unset removes name.
func (e *Environment) Unset(name string) {
	delete(e.vars, e.key(name))
}

// AppendOrSet appends value to name, separated by sep, or sets it when
// name is unset or empty. A value already present as a list entry is not
// added again.
func (e *Environment) AppendOrSet(name, value, sep string) {
	old, ok := e.Value(name)
	switch {
	case !ok || old == "":
		e.Set(name, value)
	case sep != "" && containsEntry(old, value, sep):
	default:
		e.Set(name, old+sep+value)
	}
}

// PrependOrSet is AppendOrSet at the front of the list.
func (e *Environment) PrependOrSet(name, value, sep string) {
	old, ok := e.Value(name)
	switch {
	case !ok || old == "":
		e.Set(name, value)
	case sep != "" && containsEntry(old, value, sep):
	default:
		e.Set(name, value+sep+old)
	}
}

func containsEntry(list, value, sep string) bool {
	for _, entry := range strings.Split(list, sep) {
		if entry == value {
			return true
		}
	}
	return false
}

// ExpandVariables replaces $NAME and ${NAME} references with values from e.
// Unknown names expand to the empty string.
func (e *Environment) ExpandVariables(s string) string {
	return os.Expand(s, func(name string) string {
		v, _ := e.Value(name)
		return v
	})
}

// ExpandedValueForKey returns the value of name with references to other
// variables expanded.
func (e *Environment) ExpandedValueForKey(name string) string {
	v, _ := e.Value(name)
	return e.ExpandVariables(v)
}

// Keys returns the variable names, sorted.
func (e *Environment) Keys() []string {
	if e == nil {
		return nil
	}
	keys := make([]string, 0, len(e.vars))
	for k := range e.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToStringList returns KEY=VALUE pairs sorted by key, suitable for
// exec.Cmd.Env.
func (e *Environment) ToStringList() []string {
	keys := e.Keys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+e.vars[k])
	}
	return out
}

// Clone returns an independent copy of e.
func (e *Environment) Clone() *Environment {
	if e == nil {
		return &Environment{}
	}
	return FromMap(e.vars)
}

// Modify applies items in order.
func (e *Environment) Modify(items []Item) {
	for _, it := range items {
		it.Apply(e)
	}
}

// Diff returns the items that turn e into other.
func (e *Environment) Diff(other *Environment) []Item {
	var items []Item
	for _, k := range e.Keys() {
		if !other.Has(k) {
			items = append(items, Item{Name: k, Op: Unset})
		}
	}
	for _, k := range other.Keys() {
		v, _ := other.Value(k)
		if old, ok := e.Value(k); !ok || old != v {
			items = append(items, Item{Name: k, Value: v, Op: Set})
		}
	}
	return items
}
