package fetchxml

import (
	"errors"
	"strings"
)

// Order is the single sort key of a query.
type Order struct {
	Attribute  string
	Descending bool
}

// Query is a FetchXML query builder.
//
// The zero value is an empty query ready for use. Setters mutate the query
// and return it so calls can be chained.
type Query struct {
	entity    string
	hasEntity bool

	distinct      bool
	allAttributes bool

	// attributes keeps insertion order; index maps name -> position.
	attributes []*Attribute
	index      map[string]int

	count    int
	hasCount bool

	order *Order

	errs []error
}

// New creates an empty query.
func New() *Query {
	return &Query{index: make(map[string]int)}
}

// SetEntity sets the entity to fetch. The name is not validated.
func (q *Query) SetEntity(name string) *Query {
	q.entity = name
	q.hasEntity = true
	return q
}

// ClearEntity removes the entity clause.
func (q *Query) ClearEntity() *Query {
	q.entity = ""
	q.hasEntity = false
	return q
}

// SetDistinct specifies whether to retrieve only distinct records.
func (q *Query) SetDistinct(value bool) *Query {
	q.distinct = value
	return q
}

// SetAllAttributes specifies whether to fetch every attribute of the entity.
// While set, explicitly added attributes are kept but not rendered.
func (q *Query) SetAllAttributes(value bool) *Query {
	q.allAttributes = value
	return q
}

// AddAttribute adds an attribute by name. If an alias is given, the first
// one is applied. An attribute already present under the same name is
// replaced.
func (q *Query) AddAttribute(name string, alias ...string) *Query {
	a := NewAttribute(name)
	if len(alias) > 0 {
		a.SetAlias(alias[0])
	}
	q.put(a)
	return q
}

// Add inserts an attribute instance, replacing any attribute with the same
// name. The instance is stored as-is, not copied.
func (q *Query) Add(a *Attribute) *Query {
	if a == nil {
		q.fail(InvalidArgument("Add", "attribute must not be nil"))
		return q
	}
	q.put(a)
	return q
}

// AddAttributes adds a mixed collection of attribute selections.
//
// Name entries carry no alias, Aliased entries name the attribute by Name and
// alias it by Alias, and *Attribute entries are inserted as-is. Later entries
// win over earlier ones with the same name.
func (q *Query) AddAttributes(items ...AttributeSpec) *Query {
	for i, item := range items {
		switch it := item.(type) {
		case Name:
			q.AddAttribute(string(it))
		case Aliased:
			q.AddAttribute(it.Name, it.Alias)
		case *Attribute:
			if it == nil {
				q.fail(InvalidArgument("AddAttributes", "item %d: attribute must not be nil", i))
				continue
			}
			q.put(it)
		default:
			q.fail(InvalidArgument("AddAttributes", "item %d: unsupported attribute spec %T", i, item))
		}
	}
	return q
}

// SetCount limits the result to n records. Any integer is accepted; values
// below one are not rendered.
func (q *Query) SetCount(n int) *Query {
	q.count = n
	q.hasCount = true
	return q
}

// ClearCount removes the row limit.
func (q *Query) ClearCount() *Query {
	q.count = 0
	q.hasCount = false
	return q
}

// SetOrder sorts the result by attribute, ascending unless descending is
// true. Only one sort key is supported; a new call replaces the previous
// one. A blank attribute is rejected and leaves the current order in place.
func (q *Query) SetOrder(attribute string, descending ...bool) *Query {
	if strings.TrimSpace(attribute) == "" {
		q.fail(InvalidArgument("SetOrder", "attribute must be a non-empty string"))
		return q
	}

	desc := false
	if len(descending) > 0 {
		desc = descending[0]
	}

	q.order = &Order{Attribute: attribute, Descending: desc}
	return q
}

// ClearOrder removes the sort key.
func (q *Query) ClearOrder() *Query {
	q.order = nil
	return q
}

// Err returns every argument error recorded by the setters, or nil.
func (q *Query) Err() error {
	return errors.Join(q.errs...)
}

// Entity returns the entity name and whether one is set.
func (q *Query) Entity() (string, bool) {
	return q.entity, q.hasEntity
}

// Distinct reports the distinct flag.
func (q *Query) Distinct() bool {
	return q.distinct
}

// AllAttributes reports the all-attributes flag.
func (q *Query) AllAttributes() bool {
	return q.allAttributes
}

// Attributes returns the added attributes in insertion order.
// The slice is a copy; the attributes are not.
func (q *Query) Attributes() []*Attribute {
	out := make([]*Attribute, len(q.attributes))
	copy(out, q.attributes)
	return out
}

// Attribute looks up an added attribute by name.
func (q *Query) Attribute(name string) (*Attribute, bool) {
	i, ok := q.index[name]
	if !ok {
		return nil, false
	}
	return q.attributes[i], true
}

// Count returns the row limit and whether one is set.
func (q *Query) Count() (int, bool) {
	return q.count, q.hasCount
}

// Order returns the sort key and whether one is set.
func (q *Query) Order() (Order, bool) {
	if q.order == nil {
		return Order{}, false
	}
	return *q.order, true
}

// Clone returns a deep copy of the query, including recorded errors.
func (q *Query) Clone() *Query {
	c := &Query{
		entity:        q.entity,
		hasEntity:     q.hasEntity,
		distinct:      q.distinct,
		allAttributes: q.allAttributes,
		attributes:    make([]*Attribute, len(q.attributes)),
		index:         make(map[string]int, len(q.index)),
		count:         q.count,
		hasCount:      q.hasCount,
		errs:          append([]error(nil), q.errs...),
	}
	for i, a := range q.attributes {
		c.attributes[i] = a.clone()
	}
	for k, v := range q.index {
		c.index[k] = v
	}
	if q.order != nil {
		o := *q.order
		c.order = &o
	}
	return c
}

// put inserts a, overwriting in place when the name already exists.
func (q *Query) put(a *Attribute) {
	if q.index == nil {
		q.index = make(map[string]int)
	}
	if i, ok := q.index[a.name]; ok {
		q.attributes[i] = a
		return
	}
	q.index[a.name] = len(q.attributes)
	q.attributes = append(q.attributes, a)
}

func (q *Query) fail(err error) {
	q.errs = append(q.errs, err)
}
