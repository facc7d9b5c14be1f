package cmakeconfig

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// CMakeCacheFile is the name of the cache CMake writes into a build tree.
const CMakeCacheFile = "CMakeCache.txt"

// BuildTypeKey is the single-config build type cache variable.
const BuildTypeKey = "CMAKE_BUILD_TYPE"

var defaultBuildTypes = []string{"", "Debug", "Release", "MinSizeRel", "RelWithDebInfo"}

// FromFile reads a CMakeCache.txt file.
func FromFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()
	return ParseCache(f)
}

// ParseCache reads cache entries from r. Malformed lines are skipped and
// reported as joined *ParseError values; the returned store is usable even
// when err is not nil.
func ParseCache(r io.Reader) (*Store, error) {
	store := &Store{}
	advanced := map[string]bool{}
	choices := map[string][]string{}
	var (
		doc    []string
		errs   []error
		lineNo int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lineNo++
		line := strings.TrimLeft(strings.TrimRight(sc.Text(), "\r"), " \t")
		switch {
		case line == "":
			doc = nil
			continue
		case strings.HasPrefix(line, "//"):
			doc = append(doc, strings.TrimSpace(line[2:]))
			continue
		case strings.HasPrefix(line, "#"):
			continue
		}

		key, typeName, value, err := parseCacheLine(line)
		if err != nil {
			errs = append(errs, &ParseError{Line: lineNo, Input: line, Reason: err})
			doc = nil
			continue
		}
		switch {
		case strings.HasSuffix(key, "-ADVANCED"):
			if b, _ := ToBool(value); b {
				advanced[strings.TrimSuffix(key, "-ADVANCED")] = true
			}
		case strings.HasSuffix(key, "-STRINGS"):
			choices[strings.TrimSuffix(key, "-STRINGS")] = SplitValue(value)
		case strings.HasSuffix(key, "-MODIFIED"):
		default:
			it := NewItem(key, ParseType(typeName), value)
			it.Documentation = strings.Join(doc, "\n")
			it.InCMakeCache = true
			store.Put(it)
		}
		doc = nil
	}
	if err := sc.Err(); err != nil {
		errs = append(errs, fmt.Errorf("failed to read cache: %w", err))
	}

	for i := range store.items {
		it := &store.items[i]
		it.IsAdvanced = advanced[it.Key]
		if vs, ok := choices[it.Key]; ok {
			it.Values = vs
		} else if it.Key == BuildTypeKey {
			it.Values = append([]string(nil), defaultBuildTypes...)
		}
	}
	return store, errors.Join(errs...)
}

// parseCacheLine splits KEY:TYPE=VALUE. The key may be double-quoted.
func parseCacheLine(line string) (key, typeName, value string, err error) {
	rest := line
	if strings.HasPrefix(line, `"`) {
		end := strings.IndexByte(line[1:], '"')
		if end < 0 {
			return "", "", "", errors.New("unterminated quoted key")
		}
		key, rest = line[1:1+end], line[2+end:]
		if !strings.HasPrefix(rest, ":") {
			return "", "", "", errors.New("missing type")
		}
		rest = rest[1:]
	} else {
		var ok bool
		key, rest, ok = strings.Cut(line, ":")
		if !ok {
			return "", "", "", errors.New("missing type")
		}
	}
	typeName, value, ok := strings.Cut(rest, "=")
	if !ok {
		return "", "", "", ErrNoAssignment
	}
	if key == "" {
		return "", "", "", ErrEmptyKey
	}
	return key, typeName, value, nil
}

// SplitValue splits a CMake list on ';'. Escaped separators (\;) and
// separators inside [...] are kept in the element.
func SplitValue(v string) []string {
	if v == "" {
		return nil
	}
	var (
		out   []string
		cur   strings.Builder
		depth int
	)
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case c == '\\' && i+1 < len(v) && v[i+1] == ';':
			cur.WriteByte(';')
			i++
		case c == '[':
			depth++
			cur.WriteByte(c)
		case c == ']' && depth > 0:
			depth--
			cur.WriteByte(c)
		case c == ';' && depth == 0:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(out, cur.String())
}
