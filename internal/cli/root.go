package cli

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/lookout/internal/app"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the lookout command. Without a subcommand it runs
// the terminal UI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	var (
		sessionPath string
		setupPath   string
		prefsPath   string
		poll        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "lookout [session-file]",
		Short: "lookout - network log viewer",
		Long: `Receive log entries from network listeners and browse them in the terminal.

A session groups one log, its providers and its display settings, and can be
saved to and reopened from a session file.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if sessionPath != "" {
					return &ExitError{Code: ExitCommandError, Message: "session given twice"}
				}
				sessionPath = args[0]
			}
			if sessionPath != "" && setupPath != "" {
				return &ExitError{Code: ExitCommandError, Message: "--session and --setup are mutually exclusive"}
			}
			return app.Run(cmd.Context(), app.Options{
				ConfigPath:  opts.ConfigPath,
				PrefsPath:   prefsPath,
				SessionPath: sessionPath,
				SetupPath:   setupPath,
				PollEvery:   poll,
			})
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/lookout/config.toml)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.Flags().StringVarP(&sessionPath, "session", "s", "", "session file to open")
	cmd.Flags().StringVar(&setupPath, "setup", "", "TOML or YAML setup file for a new session")
	cmd.Flags().StringVar(&prefsPath, "prefs", "", "preferences file (default from config)")
	cmd.Flags().DurationVar(&poll, "poll", 0, "archive statistics refresh interval")

	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewArchiveCommand(opts))
	cmd.AddCommand(NewLogsCommand(opts))

	return cmd
}
