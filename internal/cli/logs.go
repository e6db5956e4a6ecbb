package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/go-cleanscript/internal/config"
	"github.com/alnah/go-cleanscript/internal/logging"
)

const defaultLogLines = 50

// LogsCmd creates the logs command.
func LogsCmd(env *Env) *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the processing log",
		Long: `Print the end of the log file written by rewrite runs.

Every line carries the run_id of the run that wrote it.`,
		Example: `  cleanscript logs
  cleanscript logs -n 200
  cleanscript logs -n 0 | grep run_id=...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(env, lines)
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", defaultLogLines, "Number of lines to show (0 = all)")
	return cmd
}

// runLogs prints the last n log lines to stdout.
func runLogs(env *Env, n int) error {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}

	path, err := config.LogPath(cfg)
	if err != nil {
		return err
	}

	lines, err := logging.ReadTail(path, n)
	if err != nil {
		if errors.Is(err, logging.ErrNoLogFile) {
			fmt.Fprintf(env.Stderr, "No log yet (%s).\n", path)
			return nil
		}
		return err
	}

	for _, l := range lines {
		fmt.Fprintln(env.Stdout, l)
	}
	return nil
}
