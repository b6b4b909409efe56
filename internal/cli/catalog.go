package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/roach88/fetchxml/internal/catalog"
)

// SaveOptions holds flags for the save command.
type SaveOptions struct {
	*RootOptions
	Query QueryFlags
}

// SavedQuery is the JSON form of a catalog record.
type SavedQuery struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Entity      string `json:"entity,omitempty"`
	Fingerprint string `json:"fingerprint"`
	XML         string `json:"xml"`
	Seq         int64  `json:"seq"`

	// SameAs names other saved queries with the same fingerprint.
	// Only set by save.
	SameAs []string `json:"same_as,omitempty"`
}

func toSavedQuery(r catalog.Record) SavedQuery {
	return SavedQuery{
		ID:          r.ID,
		Name:        r.Name,
		Entity:      r.Entity,
		Fingerprint: r.Fingerprint,
		XML:         r.XML,
		Seq:         r.Seq,
	}
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Render a query and save it to the catalog",
		Long: `Render a query built from a YAML definition and/or flags and store it
in the catalog under name. Saving an existing name replaces it.

Examples:
  fetchxml save contacts -f contacts.yaml
  fetchxml save top-accounts --entity account --attr name --count 10 --db ./queries.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(opts, args[0], cmd)
		},
	}

	opts.Query.Register(cmd.Flags())

	return cmd
}

func runSave(opts *SaveOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	q, err := opts.Query.Build(cmd.Flags())
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}

	return withCatalog(opts.RootOptions, formatter, func(ctx context.Context, cat *catalog.Catalog) error {
		rec, err := cat.Save(ctx, name, q)
		if err != nil {
			return err
		}
		formatter.VerboseLog("Saved %s to %s", rec.Name, opts.DB)

		same, err := cat.FindByFingerprint(ctx, rec.Fingerprint)
		if err != nil {
			return err
		}
		saved := toSavedQuery(rec)
		saved.SameAs = lo.FilterMap(same, func(r catalog.Record, _ int) (string, bool) {
			return r.Name, r.Name != rec.Name
		})

		if formatter.Format == "json" {
			return formatter.Success(saved)
		}
		fmt.Fprintf(formatter.Writer, "✓ Saved %s (%s)\n", rec.Name, rec.Fingerprint)
		if len(saved.SameAs) > 0 {
			fmt.Fprintf(formatter.Writer, "  same query as: %s\n", strings.Join(saved.SameAs, ", "))
		}
		return nil
	})
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <name>",
		Short:         "Print a saved query",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			return withCatalog(rootOpts, formatter, func(ctx context.Context, cat *catalog.Catalog) error {
				rec, err := cat.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if formatter.Format == "json" {
					return formatter.Success(toSavedQuery(rec))
				}
				fmt.Fprintln(formatter.Writer, rec.XML)
				return nil
			})
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List saved queries",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			return withCatalog(rootOpts, formatter, func(ctx context.Context, cat *catalog.Catalog) error {
				recs, err := cat.List(ctx)
				if err != nil {
					return err
				}
				if formatter.Format == "json" {
					return formatter.Success(lo.Map(recs, func(r catalog.Record, _ int) SavedQuery {
						return toSavedQuery(r)
					}))
				}
				if len(recs) == 0 {
					fmt.Fprintln(formatter.Writer, "No saved queries.")
					return nil
				}
				tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tENTITY\tFINGERPRINT")
				for _, r := range recs {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, lo.Ternary(r.Entity == "", "-", r.Entity), r.Fingerprint[:12])
				}
				return tw.Flush()
			})
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <name>",
		Short:         "Delete a saved query",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			return withCatalog(rootOpts, formatter, func(ctx context.Context, cat *catalog.Catalog) error {
				if err := cat.Delete(ctx, args[0]); err != nil {
					return err
				}
				if formatter.Format == "json" {
					return formatter.Success(map[string]string{"deleted": args[0]})
				}
				fmt.Fprintf(formatter.Writer, "✓ Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

// withCatalog opens the catalog at opts.DB, runs fn and closes it. Errors
// from fn are reported with catalog error codes.
func withCatalog(opts *RootOptions, formatter *OutputFormatter, fn func(context.Context, *catalog.Catalog) error) error {
	cat, err := catalog.Open(opts.DB, catalog.WithLogger(formatter.componentLogger("catalog")))
	if err != nil {
		return failCatalog(formatter, err)
	}
	defer cat.Close()

	if err := fn(context.Background(), cat); err != nil {
		return failCatalog(formatter, err)
	}
	return nil
}

func failCatalog(formatter *OutputFormatter, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	code := ErrorCode(err)
	if code == ErrCodeGeneric {
		code = ErrCodeCatalog
	}
	exitCode := ExitCommandError
	if code == ErrCodeQueryNotFound || code == ErrCodeInvalidArgument {
		exitCode = ExitFailure
	}
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(exitCode, code, err)
}
