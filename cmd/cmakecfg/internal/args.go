package internal

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/goplus/cmakecfg/pkgs/cmakeconfig"
)

var argsCmd = &cobra.Command{
	Use:   "args [args...]",
	Short: "Classify CMake arguments",
	Long: `Args splits CMake arguments into cache definitions and the remaining
arguments, the way initial arguments of a build configuration are stored.`,
	DisableFlagParsing: true,
	RunE:               runArgs,
}

func init() {
	rootCmd.AddCommand(argsCmd)
}

func runArgs(cmd *cobra.Command, args []string) error {
	return printArgs(cmd.OutOrStdout(), args)
}

func printArgs(w io.Writer, args []string) error {
	store, unknown, err := cmakeconfig.ParseArguments(args)
	for _, it := range store.Items() {
		fmt.Fprintf(w, "item\t%s\n", it)
	}
	for _, arg := range unknown {
		fmt.Fprintf(w, "other\t%s\n", arg)
	}
	return err
}
