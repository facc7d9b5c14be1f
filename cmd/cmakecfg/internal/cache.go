package internal

import (
	"fmt"
	"io"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/goplus/cmakecfg/pkgs/cmakeconfig"
)

var cacheAdvanced bool

var cacheCmd = &cobra.Command{
	Use:   "cache <CMakeCache.txt>",
	Short: "Dump the items of a CMake cache file",
	Long:  `Cache prints the items of a CMakeCache.txt, hiding advanced ones unless --advanced is given.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCache,
}

func init() {
	cacheCmd.Flags().BoolVarP(&cacheAdvanced, "advanced", "a", false, "Include advanced items")
	rootCmd.AddCommand(cacheCmd)
}

func runCache(cmd *cobra.Command, args []string) error {
	config, err := cmakeconfig.FromFile(args[0])
	if config == nil {
		return err
	}
	if err != nil {
		log.Warnf("cache: %v", err)
	}
	printCache(cmd.OutOrStdout(), config, cacheAdvanced)
	return nil
}

func printCache(w io.Writer, config *cmakeconfig.Store, advanced bool) {
	for _, it := range config.Items() {
		if it.IsAdvanced && !advanced {
			continue
		}
		fmt.Fprintln(w, it)
		if it.Documentation != "" {
			fmt.Fprintf(w, "\t%s\n", it.Documentation)
		}
	}
}
