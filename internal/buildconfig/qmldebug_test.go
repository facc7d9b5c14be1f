package buildconfig

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goplus/cmakecfg/pkgs/cmakeconfig"
)

func flags(kv ...string) *cmakeconfig.Store {
	s := &cmakeconfig.Store{}
	for i := 0; i+1 < len(kv); i += 2 {
		s.Put(cmakeconfig.NewItem(kv[i], cmakeconfig.String, kv[i+1]))
	}
	return s
}

func TestHasQmlDebugging(t *testing.T) {
	tests := []struct {
		name   string
		config *cmakeconfig.Store
		want   bool
	}{
		{"both", flags(CxxFlagsInitKey, "-DQT_QML_DEBUG", CxxFlagsKey, "-O2 -DQT_QML_DEBUG"), true},
		{"init only", flags(CxxFlagsInitKey, "-DQT_QML_DEBUG", CxxFlagsKey, "-O2"), false},
		{"flags only", flags(CxxFlagsKey, "-DQT_QML_DEBUG"), false},
		{"empty", &cmakeconfig.Store{}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		if got := HasQmlDebugging(tt.config); got != tt.want {
			t.Errorf("%s: HasQmlDebugging = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestQmlDebugFlagsDelta(t *testing.T) {
	tests := []struct {
		name        string
		state       TriState
		current     *cmakeconfig.Store
		cacheExists bool
		want        []string
	}{
		{
			name:        "enable",
			state:       Enabled,
			current:     flags(CxxFlagsKey, "-O2", CxxFlagsInitKey, "-DQT_QML_DEBUG", CxxFlagsDebugKey, "-g"),
			cacheExists: true,
			want:        []string{"-DCMAKE_CXX_FLAGS:STRING=-O2 -DQT_QML_DEBUG"},
		},
		{
			name:    "enable without cache",
			state:   Enabled,
			current: flags(CxxFlagsKey, "-O2"),
			want:    []string{},
		},
		{
			name:        "disable",
			state:       Disabled,
			current:     flags(CxxFlagsKey, "-O2 -DQT_QML_DEBUG", CxxFlagsDebugKey, "-DQT_QML_DEBUG -g", CxxFlagsInitKey, "-Wall", "OTHER", "-DQT_QML_DEBUG"),
			cacheExists: true,
			want:        []string{"-DCMAKE_CXX_FLAGS:STRING=-O2", "-DCMAKE_CXX_FLAGS_DEBUG:STRING=-g"},
		},
		{
			name:        "default",
			state:       Default,
			current:     flags(CxxFlagsKey, "-DQT_QML_DEBUG"),
			cacheExists: true,
			want:        []string{},
		},
	}
	for _, tt := range tests {
		got := cmakeconfig.ToArguments(QmlDebugFlagsDelta(tt.state, tt.current, tt.cacheExists), nil)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%s: QmlDebugFlagsDelta mismatch (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestTriStateText(t *testing.T) {
	for _, want := range []TriState{Default, Enabled, Disabled} {
		text, err := want.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", want, err)
		}
		var got TriState
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", text, err)
		}
		if got != want {
			t.Errorf("round trip of %v = %v", want, got)
		}
	}
	var ts TriState
	if err := ts.UnmarshalText([]byte("sometimes")); err == nil {
		t.Error("UnmarshalText accepted an invalid value")
	}
}
