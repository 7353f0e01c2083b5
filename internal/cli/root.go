// Package cli implements the taccctl command tree.
package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// ErrUnbalanced is returned by check when the journal does not balance.
// The report has already been written; callers only set the exit code.
var ErrUnbalanced = errors.New("journal is unbalanced")

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format  string // "json" | "text"
	EnvFile string
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the taccctl root command.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "taccctl",
		Short:         "Inspect T-account journals",
		Long:          "Check posting files for balance, net T-accounts and issue API tokens.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "load settings from this .env file")

	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewReduceCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}
