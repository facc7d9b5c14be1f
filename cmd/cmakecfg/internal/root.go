package internal

import (
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/goplus/cmakecfg/internal/settings"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "cmakecfg",
	Short: "cmakecfg assembles and runs CMake configure steps",
	Long: `cmakecfg computes the initial CMake command of a build directory from a kit,
CMake presets and user settings, runs cmake and classifies its output.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetOutputLevel(log.Ldebug)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal(err)
	}
}

// loadSettings reads the user's settings and applies their log level
// unless --verbose asked for more.
func loadSettings() (settings.Settings, error) {
	s, err := settings.Load()
	if err != nil {
		return s, err
	}
	if !verbose {
		log.SetOutputLevel(logLevel(s.LogLevel))
	}
	return s, nil
}

func logLevel(name string) int {
	switch name {
	case "debug":
		return log.Ldebug
	case "warn":
		return log.Lwarn
	case "error":
		return log.Lerror
	}
	return log.Linfo
}
