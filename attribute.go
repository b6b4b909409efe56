package fetchxml

import "github.com/beevik/etree"

// Attribute is one projected field of a fetch entity.
//
// The name is fixed at construction and is the key under which a Query
// stores the attribute. The alias is optional and may be changed or cleared.
type Attribute struct {
	name     string
	alias    string
	hasAlias bool
}

// NewAttribute creates an attribute without an alias.
// The name is stored verbatim; no validation happens here.
func NewAttribute(name string) *Attribute {
	return &Attribute{name: name}
}

// NewAliasedAttribute creates an attribute that is output under alias.
func NewAliasedAttribute(name, alias string) *Attribute {
	return NewAttribute(name).SetAlias(alias)
}

// Name returns the attribute's logical name.
func (a *Attribute) Name() string {
	return a.name
}

// Alias returns the alias and whether one is set.
func (a *Attribute) Alias() (string, bool) {
	return a.alias, a.hasAlias
}

// SetAlias sets the output name. An empty string is a present (empty) alias;
// use ClearAlias to remove it.
func (a *Attribute) SetAlias(alias string) *Attribute {
	a.alias = alias
	a.hasAlias = true
	return a
}

// ClearAlias removes the alias.
func (a *Attribute) ClearAlias() *Attribute {
	a.alias = ""
	a.hasAlias = false
	return a
}

// Fragment builds a detached <attribute> element for the current state.
// Each call returns a new element.
func (a *Attribute) Fragment() *etree.Element {
	el := etree.NewElement("attribute")
	el.CreateAttr("name", a.name)
	if a.hasAlias {
		el.CreateAttr("alias", a.alias)
	}
	return el
}

func (a *Attribute) clone() *Attribute {
	c := *a
	return &c
}

func (*Attribute) attributeSpec() {}
