package buildconfig

import (
	"fmt"
	"slices"
	"strings"

	"github.com/goplus/cmakecfg/pkgs/cmakeconfig"
)

// TriState is a setting that may be left at the project default.
type TriState int

const (
	Default TriState = iota
	Enabled
	Disabled
)

var triStateNames = [...]string{"default", "enabled", "disabled"}

func (t TriState) String() string {
	if t < 0 || int(t) >= len(triStateNames) {
		return triStateNames[Default]
	}
	return triStateNames[t]
}

func (t TriState) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TriState) UnmarshalText(b []byte) error {
	s := strings.ToLower(string(b))
	for i, name := range triStateNames {
		if s == name {
			*t = TriState(i)
			return nil
		}
	}
	return fmt.Errorf("invalid tri-state value %q", b)
}

// QmlDebugParam is the define that turns on the QML debugger.
const QmlDebugParam = "-DQT_QML_DEBUG"

// Compiler flag variables.
const (
	CxxFlagsKey               = "CMAKE_CXX_FLAGS"
	CxxFlagsInitKey           = "CMAKE_CXX_FLAGS_INIT"
	CxxFlagsDebugKey          = "CMAKE_CXX_FLAGS_DEBUG"
	CxxFlagsRelWithDebInfoKey = "CMAKE_CXX_FLAGS_RELWITHDEBINFO"
)

// qmlDebugKeys receive the define when QML debugging is turned on.
var qmlDebugKeys = []string{CxxFlagsInitKey, CxxFlagsKey}

// qmlDebugHistoricKeys may carry the define from older setups and are
// cleaned when QML debugging is turned off.
var qmlDebugHistoricKeys = []string{CxxFlagsKey, CxxFlagsDebugKey, CxxFlagsRelWithDebInfoKey, CxxFlagsInitKey}

// HasQmlDebugging reports whether both CMAKE_CXX_FLAGS_INIT and
// CMAKE_CXX_FLAGS of config contain the QML debug define.
func HasQmlDebugging(config *cmakeconfig.Store) bool {
	return strings.Contains(config.StringValueOf(CxxFlagsInitKey), QmlDebugParam) &&
		strings.Contains(config.StringValueOf(CxxFlagsKey), QmlDebugParam)
}

// QmlDebugFlagsDelta returns the flag variables of current that have to
// change so that the QML debug define matches state. Enabling only touches
// an already configured tree (cacheExists); a fresh tree gets the define
// from its initial CMAKE_CXX_FLAGS_INIT.
func QmlDebugFlagsDelta(state TriState, current *cmakeconfig.Store, cacheExists bool) *cmakeconfig.Store {
	delta := &cmakeconfig.Store{}
	switch state {
	case Enabled:
		if !cacheExists {
			return delta
		}
		for _, it := range current.Items() {
			if !slices.Contains(qmlDebugKeys, it.Key) || strings.Contains(it.Value, QmlDebugParam) {
				continue
			}
			it.Value = strings.TrimSpace(it.Value + " " + QmlDebugParam)
			delta.Put(it)
		}
	case Disabled:
		for _, it := range current.Items() {
			if !slices.Contains(qmlDebugHistoricKeys, it.Key) {
				continue
			}
			idx := strings.Index(it.Value, QmlDebugParam)
			if idx < 0 {
				continue
			}
			it.Value = strings.TrimSpace(it.Value[:idx] + it.Value[idx+len(QmlDebugParam):])
			delta.Put(it)
		}
	}
	return delta
}
