// Package definition decodes declarative query definitions and builds
// fetchxml queries from them.
//
// A definition names the same settings the Query builder exposes:
//
//	name: contacts
//	entity: contact
//	distinct: true
//	count: 3
//	attributes:
//	  - firstname
//	  - lastname: surname
//	order:
//	  attribute: lastname
//	  descending: false
//
// Definitions come from YAML files (ParseYAML, LoadFile) or from a directory
// of CUE files where every field under the top-level "fetch" struct is one
// definition (LoadCUE).
//
// # Untyped values
//
// Decoded values keep their source type until Build applies them. Build
// performs the checks a typed Go caller gets from the compiler: flags must
// be booleans, count an integer or null, order.attribute a non-blank string.
// Those failures are *fetchxml.ArgumentError values wrapped in *Error, so
// errors.Is(err, fetchxml.ErrInvalidArgument) holds. Structural problems
// (unknown keys, nested values where a scalar belongs) match
// ErrInvalidDefinition instead.
//
// # Attribute entries
//
// The attributes field accepts three shapes:
//   - a scalar: one attribute, no alias
//   - a sequence: scalar items are positional (name only); single-key
//     mapping items are keyed, the key is the name and the value the alias
//   - a mapping: every entry is keyed
//
// A keyed entry whose value is null or not a string has no alias.
package definition
