package cmakeconfig

import (
	"errors"
	"strings"

	"github.com/goplus/cmakecfg/pkgs/macro"
)

// Keys written by the generator selection flags.
const (
	GeneratorKey         = "CMAKE_GENERATOR"
	GeneratorPlatformKey = "CMAKE_GENERATOR_PLATFORM"
	GeneratorToolsetKey  = "CMAKE_GENERATOR_TOOLSET"
)

var generatorFlags = map[byte]string{
	'G': GeneratorKey,
	'A': GeneratorPlatformKey,
	'T': GeneratorToolsetKey,
}

func isConfigFlag(c byte) bool {
	return c == 'D' || c == 'U' || generatorFlags[c] != ""
}

// ParseArguments classifies a CMake command line. Definitions, unsets and
// generator selections become items; everything else is returned verbatim
// in unknown. Rejected items are reported as joined *ParseError values and
// do not stop the parse.
func ParseArguments(args []string) (store *Store, unknown []string, err error) {
	store = &Store{}
	var errs []error
	add := func(it Item) {
		if prev, ok := store.Find(it.Key); ok {
			store.Put(join(prev, it))
			return
		}
		store.Put(it)
	}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) < 2 || arg[0] != '-' || !isConfigFlag(arg[1]) {
			unknown = append(unknown, arg)
			continue
		}
		flag, operand := arg[1], arg[2:]
		if operand == "" {
			if i+1 >= len(args) {
				errs = append(errs, &ParseError{Input: arg, Reason: ErrMissingOperand})
				continue
			}
			i++
			operand = args[i]
		}
		switch flag {
		case 'D':
			it, perr := ParseItem(operand)
			if perr != nil {
				errs = append(errs, &ParseError{Input: arg, Reason: perr})
				continue
			}
			add(it)
		case 'U':
			if operand == "" {
				errs = append(errs, &ParseError{Input: arg, Reason: ErrEmptyKey})
				continue
			}
			add(Item{Key: operand, Type: Static, IsUnset: true})
		default:
			add(NewItem(generatorFlags[flag], String, operand))
		}
	}
	return store, unknown, errors.Join(errs...)
}

// FromArguments parses args into an initial-layer store.
func FromArguments(args []string) (*Store, []string, error) {
	store, unknown, err := ParseArguments(args)
	for i := range store.items {
		store.items[i].IsInitial = true
	}
	return store, unknown, err
}

// ToArgument renders it as -U<key> or -D<key>:<type>=<value>. The value is
// expanded when exp is not nil.
func ToArgument(it Item, exp macro.Expander) string {
	if it.IsUnset {
		return "-U" + it.Key
	}
	value := it.ExpandedValue(exp)
	if it.Type == Bool && !macro.IsPlaceholder(value) {
		value = NormalizeBool(value)
	}
	return "-D" + it.Key + ":" + it.Type.String() + "=" + value
}

// ToArguments renders every item of s in order.
func ToArguments(s *Store, exp macro.Expander) []string {
	items := s.Items()
	args := make([]string, 0, len(items))
	for _, it := range items {
		args = append(args, ToArgument(it, exp))
	}
	return args
}

// RewriteGeneratorFlags folds separated "-G" "<name>" pairs (and -A, -T)
// into the single-argument form so that every argument stands alone.
func RewriteGeneratorFlags(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) == 2 && arg[0] == '-' && generatorFlags[arg[1]] != "" && i+1 < len(args) {
			i++
			out = append(out, arg+args[i])
			continue
		}
		out = append(out, arg)
	}
	return out
}

// SplitArgs splits a command line the way a POSIX shell splits words,
// honouring single quotes, double quotes and backslash escapes.
func SplitArgs(s string) []string {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   byte
		escaped bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			cur.WriteByte(c)
			escaped = false
		case quote == '\'':
			if c == '\'' {
				quote = 0
			} else {
				cur.WriteByte(c)
			}
		case quote == '"':
			switch {
			case c == '"':
				quote = 0
			case c == '\\' && i+1 < len(s) && strings.IndexByte("\"\\$`", s[i+1]) >= 0:
				i++
				cur.WriteByte(s[i])
			default:
				cur.WriteByte(c)
			}
		case c == '\\':
			escaped, inWord = true, true
		case c == '\'' || c == '"':
			quote, inWord = c, true
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteByte(c)
			inWord = true
		}
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args
}

const shellSpecial = " \t\n\r'\"\\$`|&;<>()*?[]{}#~!"

// QuoteArg quotes arg for a POSIX shell when needed.
func QuoteArg(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, shellSpecial) {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

// JoinArgs is the inverse of SplitArgs.
func JoinArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = QuoteArg(a)
	}
	return strings.Join(quoted, " ")
}
