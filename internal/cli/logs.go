package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/lookout/internal/config"
	"github.com/five82/lookout/internal/logtail"
)

// LogsResult is the output of the logs command.
type LogsResult struct {
	Path  string   `json:"path"`
	Lines []string `json:"lines"`
}

// NewLogsCommand creates the logs command.
func NewLogsCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		filePath string
		lines    int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the end of lookout's own diagnostics log",
		Long: `Print the last lines of the file lookout writes its diagnostics to.

The terminal UI owns the screen while it runs, so warnings and listener errors
go to the log file named by log_file in the config.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter{format: rootOpts.Format, w: cmd.OutOrStdout()}

			path := filePath
			if path == "" {
				cfg, err := config.Load(rootOpts.ConfigPath)
				if err != nil {
					return f.failure(WrapExitError(ExitCommandError, "load config", err))
				}
				path = cfg.LogFile
			}

			tail, err := logtail.Read(path, lines)
			if err != nil {
				return f.failure(WrapExitError(ExitFailure, "read log", err))
			}
			if tail == nil {
				tail = []string{}
			}

			result := LogsResult{Path: path, Lines: tail}
			return f.success(result, result.writeText)
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "log file (default from config)")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines to print (0 for all)")

	return cmd
}

func (r LogsResult) writeText(w io.Writer) error {
	if len(r.Lines) == 0 {
		_, err := fmt.Fprintf(w, "%s is empty\n", r.Path)
		return err
	}
	_, err := io.WriteString(w, strings.Join(r.Lines, "\n")+"\n")
	return err
}
