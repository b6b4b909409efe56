package cli

import (
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	DB      string // catalog path
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Catalog path resolution: --db, then $FETCHXML_DB, then DefaultDB.
const (
	EnvDB     = "FETCHXML_DB"
	DefaultDB = "fetchxml.db"
)

// NewRootCommand creates the root command for the fetchxml CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "fetchxml",
		Short: "Build and render FetchXML queries",
		Long: `Build FetchXML queries from flags or declarative definitions.

Definitions are YAML files or CUE packages. Rendered queries can be saved
to a SQLite catalog by name.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			opts.DB = resolveDB(opts.DB)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "catalog database path (default $"+EnvDB+" or "+DefaultDB+")")

	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewSaveCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return lo.Contains(ValidFormats, format)
}

func resolveDB(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvDB); env != "" {
		return env
	}
	return DefaultDB
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}
