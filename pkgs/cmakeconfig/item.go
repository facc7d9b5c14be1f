// Package cmakeconfig models CMake cache entries and their argument form.
package cmakeconfig

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goplus/cmakecfg/pkgs/macro"
)

// Type is the CMake cache type of an Item.
type Type int

const (
	Filepath Type = iota
	Path
	Bool
	String
	Internal
	Static
	Uninitialized
)

var typeNames = [...]string{
	Filepath:      "FILEPATH",
	Path:          "PATH",
	Bool:          "BOOL",
	String:        "STRING",
	Internal:      "INTERNAL",
	Static:        "STATIC",
	Uninitialized: "UNINITIALIZED",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return typeNames[Uninitialized]
	}
	return typeNames[t]
}

// ParseType maps a CMake type name to a Type. Unknown or empty names
// map to Uninitialized.
func ParseType(s string) Type {
	s = strings.ToUpper(strings.TrimSpace(s))
	for t, name := range typeNames {
		if name == s {
			return Type(t)
		}
	}
	return Uninitialized
}

// Item is one CMake cache entry.
type Item struct {
	Key           string
	Type          Type
	Value         string
	Documentation string
	Values        []string

	IsAdvanced   bool
	IsInitial    bool
	IsUnset      bool
	InCMakeCache bool
}

// NewItem returns an item with its value canonicalized for the given type.
// BOOL values that are %{...} placeholders are kept until expansion.
func NewItem(key string, t Type, value string) Item {
	if t == Bool && !macro.IsPlaceholder(value) {
		value = NormalizeBool(value)
	}
	return Item{Key: key, Type: t, Value: value}
}

// IsNull reports whether the item is the zero item.
func (i Item) IsNull() bool {
	return i.Key == ""
}

// ExpandedValue returns the value with %{...} placeholders resolved.
func (i Item) ExpandedValue(exp macro.Expander) string {
	if exp == nil {
		return i.Value
	}
	return exp.Expand(i.Value)
}

// String returns KEY:TYPE=VALUE, or the -U form for unset items.
func (i Item) String() string {
	if i.IsUnset {
		return "unset " + i.Key
	}
	return i.Key + ":" + i.Type.String() + "=" + i.Value
}

// ToBool interprets v the way CMake's if() does for constants. ok is false
// when v is neither a true nor a false constant.
func ToBool(v string) (value, ok bool) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "1", "ON", "YES", "TRUE", "Y":
		return true, true
	case "0", "OFF", "NO", "FALSE", "N", "IGNORE", "NOTFOUND", "":
		return false, true
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
		return n != 0, true
	}
	if strings.HasSuffix(strings.ToUpper(v), "-NOTFOUND") {
		return false, true
	}
	return false, false
}

// NormalizeBool canonicalizes a BOOL value to ON or OFF.
func NormalizeBool(v string) string {
	if b, _ := ToBool(v); b {
		return "ON"
	}
	return "OFF"
}

var (
	// ErrEmptyKey is reported for definitions without a key.
	ErrEmptyKey = errors.New("empty key")
	// ErrNoAssignment is reported for definitions without '='.
	ErrNoAssignment = errors.New("missing '='")
	// ErrMissingOperand is reported for a trailing -D/-U/-G/-A/-T.
	ErrMissingOperand = errors.New("missing operand")
)

// ParseError describes a rejected argument or cache line.
type ParseError struct {
	Line   int // 1-based line for cache files, 0 for arguments
	Input  string
	Reason error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %q: %v", e.Line, e.Input, e.Reason)
	}
	return fmt.Sprintf("%q: %v", e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Reason
}

// ParseItem parses KEY[:TYPE]=VALUE. Everything after the first '=' is
// the value.
func ParseItem(s string) (Item, error) {
	lhs, value, ok := strings.Cut(s, "=")
	if !ok {
		return Item{}, ErrNoAssignment
	}
	key, typeName, hasType := strings.Cut(lhs, ":")
	if key == "" {
		return Item{}, ErrEmptyKey
	}
	t := Uninitialized
	if hasType {
		t = ParseType(typeName)
	}
	return NewItem(key, t, value), nil
}
