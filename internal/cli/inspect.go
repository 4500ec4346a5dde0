package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/lookout/internal/codec"
)

// InspectResult describes a decoded session file.
type InspectResult struct {
	Path     string           `json:"path"`
	Session  *SessionSummary  `json:"session,omitempty"`
	Services []ServiceSummary `json:"services"`
}

// SessionSummary is the envelope record of a session file.
type SessionSummary struct {
	Name      string            `json:"name"`
	Views     []string          `json:"views"`
	Providers []ProviderSummary `json:"providers"`
}

// ProviderSummary is one persisted provider configuration.
type ProviderSummary struct {
	Identifier string `json:"identifier"`
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	Address    string `json:"address"`
}

// ServiceSummary is one persisted service record.
type ServiceSummary struct {
	Kind       string `json:"kind"`
	Capability string `json:"capability"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <session-file>",
		Short: "Decode a session file and list its records",
		Long: `Decode a session file without starting it.

Every record is checked the same way opening the session would check it: an
unknown record kind or a malformed record fails the command with exit code 1.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter{format: rootOpts.Format, w: cmd.OutOrStdout()}
			result, err := inspect(args[0])
			if err != nil {
				return f.failure(err)
			}
			return f.success(result, result.writeText)
		},
	}
}

func inspect(path string) (InspectResult, *ExitError) {
	data, err := os.ReadFile(path)
	if err != nil {
		return InspectResult{}, WrapExitError(ExitCommandError, "read session", err)
	}
	records, err := codec.DecodeStream(data)
	if err != nil {
		return InspectResult{}, WrapExitError(ExitFailure, "decode "+path, err)
	}

	result := InspectResult{Path: path, Services: []ServiceSummary{}}
	for _, rec := range records {
		switch r := rec.(type) {
		case *codec.SessionRecord:
			s := &SessionSummary{Name: r.Name, Views: r.Views, Providers: []ProviderSummary{}}
			if s.Views == nil {
				s.Views = []string{}
			}
			for _, p := range r.Providers {
				s.Providers = append(s.Providers, ProviderSummary{
					Identifier: p.Info.Identifier,
					Kind:       p.Settings.Kind(),
					Name:       p.Settings.InstanceName(),
					Address:    p.Settings.Address(),
				})
			}
			result.Session = s
		case *codec.ServiceRecord:
			result.Services = append(result.Services, ServiceSummary{Kind: r.Kind, Capability: string(r.Capability)})
		}
	}
	return result, nil
}

func (r InspectResult) writeText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.Path)
	if r.Session == nil {
		b.WriteString("  session: (no envelope)\n")
	} else {
		fmt.Fprintf(&b, "  session:  %s\n", r.Session.Name)
		if len(r.Session.Views) > 0 {
			fmt.Fprintf(&b, "  views:    %s\n", strings.Join(r.Session.Views, ", "))
		}
		for _, p := range r.Session.Providers {
			fmt.Fprintf(&b, "  provider: %s %s (%s)\n", p.Name, p.Address, p.Kind)
		}
	}
	for _, s := range r.Services {
		fmt.Fprintf(&b, "  service:  %-22s %s\n", s.Kind, s.Capability)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
