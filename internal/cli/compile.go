package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/fetchxml"
	"github.com/roach88/fetchxml/internal/definition"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
	Indent int
}

// CompilationResult holds the rendered definitions in declaration order.
type CompilationResult struct {
	Queries []RenderResult `json:"queries"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <definitions-dir>",
		Short: "Render every CUE definition in a directory",
		Long: `Render every query defined under fetch: in a CUE package.

Each field of fetch is one definition, named by its label:

  fetch: contacts: {
      entity: "contact"
      attributes: ["firstname", {lastname: "surname"}]
  }

All definition errors are reported before exiting.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the JSON result to this file")
	cmd.Flags().IntVar(&opts.Indent, "indent", 0, "indent nested elements by this many spaces")

	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	defs, loadErrors := definition.LoadCUE(dir)
	if len(defs) == 0 && len(loadErrors) == 1 {
		if err := loadErrors[0]; !isDefinitionError(err) {
			return formatter.Fail(ExitCommandError, err)
		}
	}

	result := &CompilationResult{Queries: make([]RenderResult, 0, len(defs))}
	errs := loadErrors
	for _, def := range defs {
		formatter.VerboseLog("Compiling definition: %s", def.Name)

		rendered, err := renderDefinition(def, opts.Indent)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		result.Queries = append(result.Queries, rendered)
	}

	if len(errs) > 0 {
		return outputCompileErrors(formatter, errs)
	}

	if opts.Output != "" {
		if err := writeResultToFile(result, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, ErrCodeWriteFailed, err)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

func renderDefinition(def *definition.Definition, indent int) (RenderResult, error) {
	q, err := definition.Build(def)
	if err != nil {
		return RenderResult{}, err
	}
	xml, err := q.RenderIndent(indent)
	if err != nil {
		return RenderResult{}, err
	}
	fingerprint, err := q.Fingerprint()
	if err != nil {
		return RenderResult{}, err
	}
	entity, _ := q.Entity()
	return RenderResult{Name: def.Name, Entity: entity, XML: xml, Fingerprint: fingerprint}, nil
}

// isDefinitionError reports whether err describes definition content rather
// than a failure to read the definitions.
func isDefinitionError(err error) bool {
	return errors.Is(err, definition.ErrInvalidDefinition) || fetchxml.IsInvalidArgument(err)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d definition(s)\n\n", len(result.Queries))
	for _, q := range result.Queries {
		fmt.Fprintf(formatter.Writer, "%s:\n%s\n\n", q.Name, q.XML)
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote queries to %s\n", outputFile)
	}
	return nil
}

// outputCompileErrors outputs every definition error.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := toCLIErrors(errs)
		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	writeErrorList(formatter, errs)

	return NewExitError(ExitFailure, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// toCLIErrors converts errors to CLIError values, with the source position
// as details when known.
func toCLIErrors(errs []error) []CLIError {
	cliErrors := make([]CLIError, len(errs))
	for i, err := range errs {
		cliErrors[i] = CLIError{
			Code:    ErrorCode(err),
			Message: err.Error(),
		}
		if pos, ok := positionOf(err); ok {
			cliErrors[i].Details = map[string]any{
				"file":   pos.File,
				"line":   pos.Line,
				"column": pos.Column,
			}
		}
	}
	return cliErrors
}

func writeErrorList(formatter *OutputFormatter, errs []error) {
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", ErrorCode(err), err.Error())
	}
	fmt.Fprintln(formatter.Writer)
}

// writeResultToFile writes the compilation result as indented JSON.
func writeResultToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
