package cmake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/qiniu/x/log"
	"golang.org/x/sys/execabs"

	"github.com/goplus/cmakecfg/internal/events"
	"github.com/goplus/cmakecfg/pkgs/buildsys"
	"github.com/goplus/cmakecfg/pkgs/cmakeconfig"
	"github.com/goplus/cmakecfg/pkgs/environment"
	"github.com/goplus/cmakecfg/pkgs/outputparser"
)

// ErrRunning is returned when a configure step is started while another
// one is still running.
var ErrRunning = errors.New("cmake is already running")

// waitDelay bounds how long output copying may outlive a stopped process.
const waitDelay = 2 * time.Second

// CMake runs cmake for one source and build directory.
type CMake struct {
	Executable string
	SourceDir  string
	BuildDir   string

	// Output receives the process output when set; otherwise it goes to
	// os.Stdout and os.Stderr.
	Output *outputparser.Formatter
	Bus    *events.Bus

	mu     sync.Mutex
	cancel context.CancelFunc
}

var _ buildsys.Controller = (*CMake)(nil)

// New creates a controller for cmake at executable ("cmake" when empty).
func New(executable, sourceDir, buildDir string, bus *events.Bus) *CMake {
	if executable == "" {
		executable = "cmake"
	}
	if bus == nil {
		bus = events.NewBus()
	}
	return &CMake{
		Executable: executable,
		SourceDir:  sourceDir,
		BuildDir:   buildDir,
		Bus:        bus,
	}
}

// IsRunning reports whether a cmake process is active.
func (c *CMake) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Stop terminates the running cmake process, if any.
func (c *CMake) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		log.Debug("cmake: stopping")
		cancel()
	}
}

func (c *CMake) start(ctx context.Context) (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return nil, ErrRunning
	}
	ctx, c.cancel = context.WithCancel(ctx)
	return ctx, nil
}

func (c *CMake) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// RunCMake configures BuildDir from SourceDir. parsingStarted is published
// before the process starts and parsingFinished once it exited; on success
// the result carries the CMakeCache.txt contents.
func (c *CMake) RunCMake(ctx context.Context, args []string, env *environment.Environment) error {
	ctx, err := c.start(ctx)
	if err != nil {
		return err
	}
	defer c.finish()

	c.Bus.ParsingStarted.Publish(struct{}{})
	if err := os.MkdirAll(c.BuildDir, 0755); err != nil {
		return c.fail(fmt.Errorf("failed to create build directory: %w", err))
	}

	cmakeArgs := append([]string{"-S", c.SourceDir, "-B", c.BuildDir}, args...)
	if err := c.run(ctx, cmakeArgs, env); err != nil {
		return c.fail(err)
	}

	config, err := cmakeconfig.FromFile(filepath.Join(c.BuildDir, cmakeconfig.CMakeCacheFile))
	if err != nil {
		return c.fail(fmt.Errorf("failed to read cmake cache: %w", err))
	}
	c.Bus.ParsingFinished.Publish(events.ParseResult{Configuration: config})
	return nil
}

// Build runs "cmake --build" in BuildDir.
func (c *CMake) Build(ctx context.Context, args []string, env *environment.Environment) error {
	ctx, err := c.start(ctx)
	if err != nil {
		return err
	}
	defer c.finish()
	return c.run(ctx, append([]string{"--build", c.BuildDir}, args...), env)
}

// fail reports err through parsingFinished; subscribers own the error
// state of the build configuration.
func (c *CMake) fail(err error) error {
	c.Bus.ParsingFinished.Publish(events.ParseResult{Err: err})
	return err
}

func (c *CMake) run(ctx context.Context, args []string, env *environment.Environment) error {
	log.Debugf("cmake: %s %v", c.Executable, args)
	cmd := execabs.CommandContext(ctx, c.Executable, args...)
	cmd.WaitDelay = waitDelay
	if env != nil {
		cmd.Env = env.ToStringList()
	}
	var stdout, stderr io.Writer = os.Stdout, os.Stderr
	if c.Output != nil {
		c.Output.SetWorkingDirectory(c.BuildDir)
		stdout = c.Output.Writer(outputparser.Stdout)
		stderr = c.Output.Writer(outputparser.Stderr)
		defer c.Output.Flush()
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("cmake was stopped: %w", ctx.Err())
		}
		return fmt.Errorf("failed to run cmake: %w", err)
	}
	return nil
}
