package cli

import (
	"errors"
	"os"

	"github.com/roach88/fetchxml"
	"github.com/roach88/fetchxml/internal/catalog"
	"github.com/roach88/fetchxml/internal/definition"
)

// Error codes for CLI output.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No definition files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // Query could not be rendered
	ErrCodeWriteFailed = "E007" // File write error

	// Query errors
	ErrCodeInvalidArgument   = "E101" // Builder rejected an argument
	ErrCodeInvalidDefinition = "E102" // Malformed definition

	// Catalog errors
	ErrCodeCatalog       = "E201" // Catalog open/read/write failure
	ErrCodeQueryNotFound = "E202" // No query saved under the name
)

// ErrorCode maps an error to its CLI code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, fetchxml.ErrInvalidArgument):
		return ErrCodeInvalidArgument
	case errors.Is(err, definition.ErrInvalidDefinition):
		return ErrCodeInvalidDefinition
	case errors.Is(err, definition.ErrNoFiles):
		return ErrCodeNoFiles
	case errors.Is(err, definition.ErrLoadFailed):
		return ErrCodeLoadFailed
	case errors.Is(err, catalog.ErrNotFound):
		return ErrCodeQueryNotFound
	case errors.Is(err, catalog.ErrInvalidName):
		return ErrCodeCatalog
	case errors.Is(err, os.ErrNotExist):
		return ErrCodeNotFound
	default:
		return ErrCodeGeneric
	}
}

// positionOf returns the source position of a definition error, if any.
func positionOf(err error) (definition.Position, bool) {
	var defErr *definition.Error
	if errors.As(err, &defErr) && defErr.Pos.IsValid() {
		return defErr.Pos, true
	}
	return definition.Position{}, false
}
