package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/fetchxml/internal/definition"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool       `json:"valid"`
	Definitions int        `json:"definitions"`
	Errors      []CLIError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file-or-dir>",
		Short: "Validate definitions without rendering",
		Long: `Validate query definitions without printing queries.

Accepts a single YAML file or a directory. In a directory, every .yaml and
.yml file is one definition and the .cue files form one CUE package.

Exit codes:
  0 - All definitions valid
  1 - One or more definitions invalid
  2 - Command error (invalid path, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	info, err := os.Stat(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, fmt.Errorf("definitions path: %w", err))
	}

	var defs []*definition.Definition
	var errs []error
	if info.IsDir() {
		defs, errs, err = loadDirectory(path, formatter)
		if err != nil {
			return formatter.Fail(ExitCommandError, err)
		}
	} else {
		def, err := definition.LoadFile(path)
		if err != nil {
			errs = append(errs, err)
		} else {
			defs = append(defs, def)
		}
	}

	for _, def := range defs {
		formatter.VerboseLog("Validating definition: %s", def.Name)
		if _, err := definition.Build(def); err != nil {
			errs = append(errs, err)
		}
	}

	total := len(defs)
	if len(errs) > 0 {
		return outputValidationErrors(formatter, total, errs)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Definitions: total})
	}
	fmt.Fprintf(formatter.Writer, "✓ All %d definition(s) valid\n", total)
	return nil
}

// loadDirectory decodes the YAML files and the CUE package of dir.
// Definition errors are collected; the returned error reports scan failures.
func loadDirectory(dir string, formatter *OutputFormatter) ([]*definition.Definition, []error, error) {
	var defs []*definition.Definition
	var errs []error

	yamlFiles, err := findYAMLFiles(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	for _, file := range yamlFiles {
		formatter.VerboseLog("Loading %s", file)
		def, err := definition.LoadFile(file)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		defs = append(defs, def)
	}

	cueDefs, cueErrs := definition.LoadCUE(dir)
	if len(cueErrs) == 1 && errors.Is(cueErrs[0], definition.ErrNoFiles) {
		cueErrs = nil
	}
	defs = append(defs, cueDefs...)
	errs = append(errs, cueErrs...)

	if len(yamlFiles) == 0 && len(cueDefs) == 0 && len(cueErrs) == 0 {
		return nil, nil, fmt.Errorf("%w: no definition files found in %s", definition.ErrNoFiles, dir)
	}
	return defs, errs, nil
}

func findYAMLFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// outputValidationErrors outputs validation errors.
func outputValidationErrors(formatter *OutputFormatter, total int, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := toCLIErrors(errs)
		if err := formatter.Success(ValidationResult{Valid: false, Definitions: total, Errors: cliErrors}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	writeErrorList(formatter, errs)

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
