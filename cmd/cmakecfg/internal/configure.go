package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/goplus/cmakecfg/internal/buildconfig"
	"github.com/goplus/cmakecfg/internal/events"
	"github.com/goplus/cmakecfg/pkgs/buildsys/cmake"
	"github.com/goplus/cmakecfg/pkgs/outputparser"
)

var (
	configureFlags   projectFlags
	configureFresh   bool
	configureChanges []string
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Run the configure step of a build directory",
	Long: `Configure runs cmake for a build directory. The first run uses the initial
command; later runs pass the configuration changes and the additional options.
The state of the build configuration is saved in the build directory.`,
	Args: cobra.NoArgs,
	RunE: runConfigure,
}

func init() {
	configureFlags.register(configureCmd)
	configureCmd.Flags().BoolVar(&configureFresh, "fresh", false, "Clear the CMake cache and configure from the initial arguments")
	configureCmd.Flags().StringArrayVarP(&configureChanges, "change", "D", nil, "Configuration change in KEY[:TYPE]=VALUE form")
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bus := events.NewBus()
	tasks := &outputparser.TaskList{}
	bc, err := newBuildConfig(&configureFlags, bus, tasks)
	if err != nil {
		return err
	}
	if err := restoreOrInitialize(bc, &configureFlags, cmd.Flags().Changed("build-type")); err != nil {
		return err
	}

	ctl := cmake.New(bc.Settings.CMakeExecutable, bc.Project.SourceDir, bc.Project.BuildDir, bus)
	ctl.Output = outputparser.NewFormatter(consoleSink(cmd.OutOrStdout(), cmd.ErrOrStderr()),
		outputparser.NewAutogenParser(), outputparser.NewXcodebuildParser())
	ctl.Output.SetTaskSink(tasks)
	bc.Controller = ctl

	bus.ErrorOccurred.Subscribe(func(msg string) { log.Debugf("configure: error: %s", msg) })
	for _, change := range configureChanges {
		bus.ConfigurationChanged.Publish([]string{"-D" + change})
	}

	if configureFresh {
		err = bc.Reconfigure(ctx)
	} else {
		err = bc.RunCMakeWithExtraArguments(ctx)
	}
	printTasks(cmd.ErrOrStderr(), tasks.Tasks())
	fmt.Fprintf(cmd.ErrOrStderr(), "%d fatal error(s)\n", ctl.Output.FatalErrors())
	if serr := bc.Save(); serr != nil {
		log.Warnf("configure: %v", serr)
	}
	return err
}

// restoreOrInitialize loads the saved state of the build directory or,
// when there is none, starts from the initial command.
func restoreOrInitialize(bc *buildconfig.BuildConfig, f *projectFlags, buildTypeChanged bool) error {
	err := bc.Load()
	switch {
	case err == nil:
		log.Debugf("configure: restored %s", buildconfig.StatePath(bc.Project.BuildDir))
		if buildTypeChanged {
			bc.SetCMakeBuildType(f.buildType)
		}
		return nil
	case !errors.Is(err, os.ErrNotExist):
		return err
	}
	bc.SetCMakeBuildType(f.buildType)
	bc.SetQmlDebugging(buildconfig.DefaultQmlDebugging(buildconfig.BuildTypeFromString(f.buildType)))
	bc.SetInitialCMakeArguments(bc.InitialCommand())
	return nil
}

func consoleSink(stdout, stderr io.Writer) outputparser.LineSink {
	return outputparser.LineSinkFunc(func(line string, stream outputparser.Stream) {
		w := stdout
		if stream == outputparser.Stderr {
			w = stderr
		}
		fmt.Fprintln(w, line)
	})
}

func printTasks(w io.Writer, tasks []outputparser.Task) {
	for _, t := range tasks {
		fmt.Fprintln(w, t)
	}
}
