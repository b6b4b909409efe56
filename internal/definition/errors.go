package definition

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDefinition is matched by structural definition errors.
var ErrInvalidDefinition = errors.New("invalid definition")

// Position locates a value in a definition source.
type Position struct {
	File   string
	Line   int
	Column int
}

// IsValid reports whether the position carries a line.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// String formats the position as file:line:column.
func (p Position) String() string {
	switch {
	case !p.IsValid():
		return p.File
	case p.File == "":
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	default:
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
}

// Error reports a problem with one field of a definition.
type Error struct {
	Definition string   // definition name, if known
	Field      string   // dotted field path, e.g. "order.attribute"
	Pos        Position // source location, if known
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	field := e.Field
	if e.Definition != "" {
		field = strings.TrimSuffix(e.Definition+"."+field, ".")
	}
	msg := e.Err.Error()
	if field != "" {
		msg = field + ": " + msg
	}
	if loc := e.Pos.String(); loc != "" {
		msg = loc + ": " + msg
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func shapeError(field string, pos Position, format string, args ...any) *Error {
	return &Error{
		Field: field,
		Pos:   pos,
		Err:   fmt.Errorf("%w: %s", ErrInvalidDefinition, fmt.Sprintf(format, args...)),
	}
}
