package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/five82/lookout/internal/archive"
	"github.com/five82/lookout/internal/config"
	"github.com/five82/lookout/internal/logs"
)

// ArchiveResult is the output of the archive command.
type ArchiveResult struct {
	Logger  string       `json:"logger"`
	Total   int          `json:"total"`
	Entries []logs.Entry `json:"entries"`
}

// NewArchiveCommand creates the archive command.
func NewArchiveCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "archive <logger>",
		Short: "Print the newest archived entries of a logger",
		Long: `Print entries that sessions wrote to the SQLite archive.

The archive path comes from the config file unless --db is given.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter{format: rootOpts.Format, w: cmd.OutOrStdout()}
			if limit <= 0 {
				return f.failure(&ExitError{Code: ExitCommandError, Message: "--limit must be positive"})
			}

			path := dbPath
			if path == "" {
				cfg, err := config.Load(rootOpts.ConfigPath)
				if err != nil {
					return f.failure(WrapExitError(ExitCommandError, "load config", err))
				}
				path = cfg.ArchivePath
			}
			if path == "" {
				return f.failure(&ExitError{Code: ExitCommandError, Message: "the archive is disabled"})
			}

			a, err := archive.Open(path)
			if err != nil {
				return f.failure(WrapExitError(ExitCommandError, "open archive", err))
			}
			defer a.Close()

			ctx := cmd.Context()
			total, err := a.Count(ctx, args[0])
			if err != nil {
				return f.failure(WrapExitError(ExitFailure, "count entries", err))
			}
			entries, err := a.Recent(ctx, args[0], limit)
			if err != nil {
				return f.failure(WrapExitError(ExitFailure, "read entries", err))
			}
			if entries == nil {
				entries = []logs.Entry{}
			}

			result := ArchiveResult{Logger: args[0], Total: total, Entries: entries}
			return f.success(result, result.writeText)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "archive database (default from config)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to print")

	return cmd
}

func (r ArchiveResult) writeText(w io.Writer) error {
	for _, e := range r.Entries {
		if _, err := fmt.Fprintln(w, e.String()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d of %d archived entries of %s\n", len(r.Entries), r.Total, r.Logger)
	return err
}
