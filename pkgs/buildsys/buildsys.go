package buildsys

import (
	"context"

	"github.com/goplus/cmakecfg/pkgs/environment"
)

// Controller runs the build system's configure step on behalf of a build
// configuration. Implementations report progress through their own event
// channels; RunCMake returns once the process has exited.
type Controller interface {
	// RunCMake configures the build directory with args.
	RunCMake(ctx context.Context, args []string, env *environment.Environment) error

	// Stop asks a running configure step to terminate.
	Stop()

	IsRunning() bool
}
