package internal

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/goplus/cmakecfg/pkgs/outputparser"
)

var parseOutputParsers []string

var parseOutputCmd = &cobra.Command{
	Use:   "parse-output [log]",
	Short: "Classify the diagnostics of a build log",
	Long: `Parse-output runs the output parsers over a log, read from standard input
when no file is given, and prints the resulting tasks.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParseOutput,
}

func init() {
	parseOutputCmd.Flags().StringSliceVarP(&parseOutputParsers, "parser", "p", []string{"autogen", "xcodebuild"}, "Parsers to run (autogen, xcodebuild)")
	rootCmd.AddCommand(parseOutputCmd)
}

func runParseOutput(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open log: %w", err)
		}
		defer f.Close()
		in = f
	}
	tasks, fatal, err := parseOutput(in, parseOutputParsers, nil)
	if err != nil {
		return err
	}
	printTasks(cmd.OutOrStdout(), tasks)
	fmt.Fprintf(cmd.ErrOrStderr(), "%d fatal error(s)\n", fatal)
	return nil
}

func newParser(name string) (outputparser.LineParser, error) {
	switch name {
	case "autogen":
		return outputparser.NewAutogenParser(), nil
	case "xcodebuild":
		return outputparser.NewXcodebuildParser(), nil
	}
	return nil, fmt.Errorf("unknown parser %q", name)
}

// parseOutput feeds r as standard output through the named parsers.
// Lines no parser consumed go to sink.
func parseOutput(r io.Reader, names []string, sink outputparser.LineSink) ([]outputparser.Task, int, error) {
	f := outputparser.NewFormatter(sink)
	for _, name := range names {
		p, err := newParser(name)
		if err != nil {
			return nil, 0, err
		}
		f.AddParser(p)
	}
	tasks := &outputparser.TaskList{}
	f.SetTaskSink(tasks)
	if _, err := io.Copy(f.Writer(outputparser.Stdout), r); err != nil {
		return nil, 0, fmt.Errorf("failed to read log: %w", err)
	}
	f.Flush()
	return tasks.Tasks(), f.FatalErrors(), nil
}
