package cmake

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/goplus/cmakecfg/internal/events"
	"github.com/goplus/cmakecfg/pkgs/environment"
	"github.com/goplus/cmakecfg/pkgs/outputparser"
)

const fakeCMake = `#!/bin/sh
build=
while [ $# -gt 0 ]; do
	case "$1" in
	-B) shift; build="$1" ;;
	--sleep) exec sleep 30 ;;
	esac
	shift
done
echo "-- Configuring done"
echo "CMake Warning: unused variable" >&2
[ -n "$build" ] && printf '// doc\nFOO:BOOL=ON\nCMAKE_BUILD_TYPE:STRING=Debug\n' > "$build/CMakeCache.txt"
exit ${FAKE_CMAKE_EXIT:-0}
`

func writeFakeCMake(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake cmake is a shell script")
	}
	path := filepath.Join(t.TempDir(), "cmake")
	if err := os.WriteFile(path, []byte(fakeCMake), 0o755); err != nil {
		t.Fatalf("write fake cmake: %v", err)
	}
	return path
}

type recorder struct {
	started  int
	finished []events.ParseResult
}

func record(bus *events.Bus) *recorder {
	r := &recorder{}
	bus.ParsingStarted.Subscribe(func(struct{}) { r.started++ })
	bus.ParsingFinished.Subscribe(func(res events.ParseResult) { r.finished = append(r.finished, res) })
	return r
}

func TestRunCMake(t *testing.T) {
	exe := writeFakeCMake(t)
	buildDir := filepath.Join(t.TempDir(), "build")
	c := New(exe, t.TempDir(), buildDir, nil)
	rec := record(c.Bus)

	lines := &outputparser.Lines{}
	c.Output = outputparser.NewFormatter(lines)

	if err := c.RunCMake(context.Background(), []string{"-DFOO:BOOL=ON"}, nil); err != nil {
		t.Fatalf("RunCMake: %v", err)
	}
	if rec.started != 1 || len(rec.finished) != 1 {
		t.Fatalf("events: started=%d finished=%d", rec.started, len(rec.finished))
	}
	res := rec.finished[0]
	if !res.OK() {
		t.Fatalf("result error: %v", res.Err)
	}
	if got := res.Configuration.ValueOf("FOO"); got != "ON" {
		t.Errorf("FOO = %q, want ON", got)
	}
	if len(lines.Stdout) != 1 || lines.Stdout[0] != "-- Configuring done" {
		t.Errorf("stdout = %q", lines.Stdout)
	}
	if len(lines.Stderr) != 1 || !strings.HasPrefix(lines.Stderr[0], "CMake Warning") {
		t.Errorf("stderr = %q", lines.Stderr)
	}
	if c.IsRunning() {
		t.Error("IsRunning() after RunCMake returned")
	}
}

func TestRunCMakeFailure(t *testing.T) {
	exe := writeFakeCMake(t)
	c := New(exe, t.TempDir(), filepath.Join(t.TempDir(), "build"), nil)
	c.Output = outputparser.NewFormatter(&outputparser.Lines{})
	rec := record(c.Bus)

	env := environment.System()
	env.Set("FAKE_CMAKE_EXIT", "1")
	err := c.RunCMake(context.Background(), nil, env)
	if err == nil {
		t.Fatal("RunCMake succeeded, want error")
	}
	if len(rec.finished) != 1 || rec.finished[0].OK() {
		t.Fatalf("parsingFinished = %+v, want one failed result", rec.finished)
	}
	if rec.finished[0].Configuration != nil {
		t.Error("failed result carries a configuration")
	}
}

func TestStop(t *testing.T) {
	exe := writeFakeCMake(t)
	c := New(exe, t.TempDir(), filepath.Join(t.TempDir(), "build"), nil)
	c.Output = outputparser.NewFormatter(&outputparser.Lines{})

	done := make(chan error, 1)
	started := make(chan struct{})
	c.Bus.ParsingStarted.Subscribe(func(struct{}) { close(started) })
	go func() { done <- c.RunCMake(context.Background(), []string{"--sleep"}, nil) }()

	<-started
	if err := c.RunCMake(context.Background(), nil, nil); !errors.Is(err, ErrRunning) {
		t.Errorf("second RunCMake = %v, want ErrRunning", err)
	}
	c.Stop()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunCMake after Stop = %v, want context.Canceled", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("RunCMake did not return after Stop")
	}
}

func TestBuild(t *testing.T) {
	exe := writeFakeCMake(t)
	buildDir := t.TempDir()
	c := New(exe, t.TempDir(), buildDir, nil)
	c.Output = outputparser.NewFormatter(&outputparser.Lines{})
	if err := c.Build(context.Background(), []string{"--target", "all"}, nil); err != nil {
		t.Fatalf("Build: %v", err)
	}
}
