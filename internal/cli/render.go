package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Query  QueryFlags
	Indent int
}

// RenderResult is the JSON payload of a rendered query.
type RenderResult struct {
	Name        string `json:"name,omitempty"`
	Entity      string `json:"entity,omitempty"`
	XML         string `json:"xml"`
	Fingerprint string `json:"fingerprint"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a query to FetchXML",
		Long: `Render a query built from a YAML definition and/or flags.

Flags override values from --file. Attributes from --attr are added after
the definition's attributes; an existing name is replaced in place.

Examples:
  fetchxml render --entity contact --attr firstname --attr lastname=surname
  fetchxml render -f contacts.yaml --count 10 --indent 2
  fetchxml render -f contacts.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, cmd)
		},
	}

	opts.Query.Register(cmd.Flags())
	cmd.Flags().IntVar(&opts.Indent, "indent", 0, "indent nested elements by this many spaces")

	return cmd
}

func runRender(opts *RenderOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Indent < 0 {
		return formatter.Fail(ExitCommandError, fmt.Errorf("--indent must be non-negative, got %d", opts.Indent))
	}

	q, err := opts.Query.Build(cmd.Flags())
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}

	xml, err := q.RenderIndent(opts.Indent)
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}
	fingerprint, err := q.Fingerprint()
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}

	entity, _ := q.Entity()
	formatter.VerboseLog("Rendered query for entity %q (fingerprint %s)", entity, fingerprint)

	if formatter.Format == "json" {
		return formatter.Success(RenderResult{Entity: entity, XML: xml, Fingerprint: fingerprint})
	}
	fmt.Fprintln(formatter.Writer, xml)
	return nil
}
