package environment

import (
	"fmt"
	"strings"
)

// Op is the operation an Item performs.
type Op int

const (
	Set Op = iota
	Unset
	Append
	Prepend
)

var opNames = [...]string{"set", "unset", "append", "prepend"}

func (op Op) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return fmt.Sprintf("Op(%d)", int(op))
	}
	return opNames[op]
}

// MarshalText implements encoding.TextMarshaler.
func (op Op) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (op *Op) UnmarshalText(b []byte) error {
	for i, name := range opNames {
		if strings.EqualFold(name, string(b)) {
			*op = Op(i)
			return nil
		}
	}
	return fmt.Errorf("unknown environment operation %q", b)
}

// Item is one change to an environment. Append and Prepend concatenate
// Value as is; the separator, if any, is part of Value.
type Item struct {
	Name  string `yaml:"name" validate:"required"`
	Value string `yaml:"value,omitempty"`
	Op    Op     `yaml:"op"`
}

// Apply performs the change on e.
func (it Item) Apply(e *Environment) {
	switch it.Op {
	case Set:
		e.Set(it.Name, it.Value)
	case Unset:
		e.Unset(it.Name)
	case Append:
		old, _ := e.Value(it.Name)
		e.Set(it.Name, old+it.Value)
	case Prepend:
		old, _ := e.Value(it.Name)
		e.Set(it.Name, it.Value+old)
	}
}

func (it Item) String() string {
	switch it.Op {
	case Unset:
		return "-" + it.Name
	case Append:
		return it.Name + "+=" + it.Value
	case Prepend:
		return it.Name + "=+" + it.Value
	}
	return it.Name + "=" + it.Value
}
