package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/goplus/cmakecfg/internal/buildconfig"
	"github.com/goplus/cmakecfg/internal/events"
	"github.com/goplus/cmakecfg/internal/platform"
	"github.com/goplus/cmakecfg/pkgs/kit"
	"github.com/goplus/cmakecfg/pkgs/outputparser"
	"github.com/goplus/cmakecfg/pkgs/presets"
)

// projectFlags select the kit, project and presets of a build
// configuration.
type projectFlags struct {
	kitsFile   string
	kitName    string
	sourceDir  string
	buildDir   string
	presetFile string
	buildType  string
}

func (f *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.kitsFile, "kit", "k", "kits.hcl", "HCL file defining the kits")
	cmd.Flags().StringVar(&f.kitName, "kit-name", "", "Name of the kit to use")
	cmd.Flags().StringVarP(&f.sourceDir, "source", "s", ".", "Project source directory")
	cmd.Flags().StringVarP(&f.buildDir, "build", "b", "", "Build directory (default: shadow build directory)")
	cmd.Flags().StringVar(&f.presetFile, "preset-file", "", "CMake presets file (default: presets of the source directory)")
	cmd.Flags().StringVar(&f.buildType, "build-type", "Debug", "CMake build type")
	cmd.MarkFlagRequired("kit-name")
}

var initialFlags projectFlags

var initialCmd = &cobra.Command{
	Use:   "initial",
	Short: "Print the initial CMake command of a build directory",
	Long: `Initial merges the kit, the user settings, the platform specific arguments
and the kit's configure preset into the command of the first cmake run.`,
	Args: cobra.NoArgs,
	RunE: runInitial,
}

func init() {
	initialFlags.register(initialCmd)
	rootCmd.AddCommand(initialCmd)
}

func runInitial(cmd *cobra.Command, args []string) error {
	tasks := &outputparser.TaskList{}
	bc, err := newBuildConfig(&initialFlags, nil, tasks)
	if err != nil {
		return err
	}
	bc.SetCMakeBuildType(initialFlags.buildType)
	out := cmd.OutOrStdout()
	for _, arg := range bc.InitialCommand() {
		fmt.Fprintln(out, arg)
	}
	printTasks(cmd.ErrOrStderr(), tasks.Tasks())
	return nil
}

// newBuildConfig creates the build configuration selected by f.
func newBuildConfig(f *projectFlags, bus *events.Bus, tasks outputparser.TaskSink) (*buildconfig.BuildConfig, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}
	kits, err := kit.LoadFile(f.kitsFile)
	if err != nil {
		return nil, err
	}
	k, ok := kit.Find(kits, f.kitName)
	if !ok {
		return nil, fmt.Errorf("kit %q not found in %s", f.kitName, f.kitsFile)
	}
	if k.CMake != "" {
		s.CMakeExecutable = k.CMake
	}

	sourceDir, err := filepath.Abs(f.sourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source directory: %w", err)
	}
	buildDir := f.buildDir
	if buildDir == "" {
		buildDir = buildconfig.ShadowBuildDirectory(sourceDir, k, f.buildType)
	}
	if buildDir, err = filepath.Abs(buildDir); err != nil {
		return nil, fmt.Errorf("failed to resolve build directory: %w", err)
	}
	log.Debugf("kit %s: source %s, build %s", k.Name, sourceDir, buildDir)

	bc := buildconfig.New(k, platform.Project{SourceDir: sourceDir, BuildDir: buildDir}, s, bus)
	bc.Tasks = tasks
	if bc.Presets, err = loadPresets(f.presetFile, sourceDir); err != nil {
		return nil, err
	}
	return bc, nil
}

func loadPresets(file, sourceDir string) (*presets.Data, error) {
	if file != "" {
		return presets.LoadFile(file)
	}
	data, err := presets.Load(sourceDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}
