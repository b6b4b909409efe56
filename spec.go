package fetchxml

// AttributeSpec is one item accepted by Query.AddAttributes.
//
// This is a sealed interface. The implementations are:
//   - Name: a positional entry, the attribute name with no alias
//   - Aliased: a keyed entry, the key is the name and the value the alias
//   - *Attribute: an explicit attribute, inserted as-is
type AttributeSpec interface {
	attributeSpec()
}

// Name selects an attribute by name without an alias.
type Name string

func (Name) attributeSpec() {}

// Aliased selects an attribute and outputs it under Alias.
type Aliased struct {
	Name  string
	Alias string
}

func (Aliased) attributeSpec() {}

// As is shorthand for Aliased{Name: name, Alias: alias}.
func As(name, alias string) Aliased {
	return Aliased{Name: name, Alias: alias}
}
