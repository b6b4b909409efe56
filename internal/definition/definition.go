package definition

import (
	"errors"
	"fmt"

	"github.com/roach88/fetchxml"
)

// Null marks a field explicitly set to null, as opposed to an absent one.
type Null struct{}

// Definition is a decoded, not yet validated query definition.
//
// Scalar fields hold nil when absent, Null when null, and otherwise the
// decoded value: string, bool, int64 or float64.
type Definition struct {
	Name string

	Entity        any
	Distinct      any
	AllAttributes any
	Attributes    []Entry
	Count         any

	// Order is nil, Null or *OrderSpec.
	Order any

	positions map[string]Position
}

// Entry is one attribute selection.
type Entry struct {
	Name string

	// Alias is nil for positional entries and for keyed entries whose value
	// is not a string.
	Alias *string
}

// OrderSpec is the decoded order field.
type OrderSpec struct {
	Attribute  any
	Descending any
}

// Pos returns the source position recorded for field.
func (d *Definition) Pos(field string) Position {
	return d.positions[field]
}

func (d *Definition) setPos(field string, pos Position) {
	if d.positions == nil {
		d.positions = make(map[string]Position)
	}
	d.positions[field] = pos
}

// Specs converts the attribute entries to builder input.
func (d *Definition) Specs() []fetchxml.AttributeSpec {
	specs := make([]fetchxml.AttributeSpec, len(d.Attributes))
	for i, e := range d.Attributes {
		if e.Alias != nil {
			specs[i] = fetchxml.As(e.Name, *e.Alias)
		} else {
			specs[i] = fetchxml.Name(e.Name)
		}
	}
	return specs
}

// Build applies the definition to a new query.
// Every invalid field is reported; no query is returned when any fails.
func Build(d *Definition) (*fetchxml.Query, error) {
	b := &builder{def: d, q: fetchxml.New()}
	b.entity()
	b.flag("distinct", "SetDistinct", d.Distinct, b.q.SetDistinct)
	b.flag("all_attributes", "SetAllAttributes", d.AllAttributes, b.q.SetAllAttributes)
	b.q.AddAttributes(d.Specs()...)
	b.count()
	b.order()

	// Name and Aliased specs cannot fail, so the query only records
	// SetOrder rejections.
	if err := b.q.Err(); err != nil {
		b.fail("order.attribute", err)
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	return b.q, nil
}

type builder struct {
	def  *Definition
	q    *fetchxml.Query
	errs []error
}

func (b *builder) fail(field string, err error) {
	b.errs = append(b.errs, &Error{
		Definition: b.def.Name,
		Field:      field,
		Pos:        b.def.Pos(field),
		Err:        err,
	})
}

// entity accepts any scalar; the name is not validated.
func (b *builder) entity() {
	switch v := b.def.Entity.(type) {
	case nil, Null:
	case string:
		b.q.SetEntity(v)
	default:
		b.q.SetEntity(fmt.Sprint(v))
	}
}

func (b *builder) flag(field, op string, value any, set func(bool) *fetchxml.Query) {
	if value == nil {
		return
	}
	v, ok := value.(bool)
	if !ok {
		b.fail(field, fetchxml.InvalidArgument(op, "argument must be boolean, got %s", describe(value)))
		return
	}
	set(v)
}

func (b *builder) count() {
	switch v := b.def.Count.(type) {
	case nil:
	case Null:
		b.q.ClearCount()
	case int64:
		b.q.SetCount(int(v))
	default:
		b.fail("count", fetchxml.InvalidArgument("SetCount", "argument must be an integer or null, got %s", describe(v)))
	}
}

func (b *builder) order() {
	var spec *OrderSpec
	switch v := b.def.Order.(type) {
	case nil:
		return
	case Null:
		b.q.ClearOrder()
		return
	case *OrderSpec:
		spec = v
	default:
		b.fail("order", fmt.Errorf("%w: unsupported order value %T", ErrInvalidDefinition, v))
		return
	}

	var attribute string
	switch v := spec.Attribute.(type) {
	case Null:
		b.q.ClearOrder()
		return
	case string:
		attribute = v
	case nil:
		b.fail("order.attribute", fetchxml.InvalidArgument("SetOrder", "attribute must be a non-empty string"))
		return
	default:
		b.fail("order.attribute", fetchxml.InvalidArgument("SetOrder", "attribute must be a non-empty string, got %s", describe(v)))
		return
	}

	descending := false
	if spec.Descending != nil {
		d, ok := spec.Descending.(bool)
		if !ok {
			b.fail("order.descending", fetchxml.InvalidArgument("SetOrder", "descending argument must be boolean, got %s", describe(spec.Descending)))
			return
		}
		descending = d
	}

	b.q.SetOrder(attribute, descending)
}

func describe(v any) string {
	switch val := v.(type) {
	case Null:
		return "null"
	case string:
		return fmt.Sprintf("string %q", val)
	case int64:
		return fmt.Sprintf("integer %d", val)
	case float64:
		return fmt.Sprintf("number %v", val)
	case bool:
		return fmt.Sprintf("boolean %t", val)
	default:
		return fmt.Sprintf("%T", v)
	}
}
