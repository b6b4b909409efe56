package definition

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition keys. Unknown keys are rejected to catch typos.
const (
	keyName          = "name"
	keyEntity        = "entity"
	keyDistinct      = "distinct"
	keyAllAttributes = "all_attributes"
	keyAttributes    = "attributes"
	keyCount         = "count"
	keyOrder         = "order"

	keyOrderAttribute  = "attribute"
	keyOrderDescending = "descending"
)

// LoadFile reads a YAML definition. Without a name key, the definition is
// named after the file.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}

	def, err := parseYAML(data, path)
	if err != nil {
		return nil, err
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return def, nil
}

// ParseYAML decodes a single YAML definition document.
func ParseYAML(data []byte) (*Definition, error) {
	return parseYAML(data, "")
}

// ParseYAMLNode decodes a definition from an already parsed node, e.g. a
// value embedded in a larger document.
func ParseYAMLNode(node *yaml.Node, file string) (*Definition, error) {
	d := &yamlDecoder{file: file}
	return d.definition(node)
}

func parseYAML(data []byte, file string) (*Definition, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", ErrInvalidDefinition, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidDefinition)
	}
	return ParseYAMLNode(doc.Content[0], file)
}

type yamlDecoder struct {
	file string
	errs []error
}

func (d *yamlDecoder) pos(n *yaml.Node) Position {
	return Position{File: d.file, Line: n.Line, Column: n.Column}
}

func (d *yamlDecoder) fail(err *Error) {
	d.errs = append(d.errs, err)
}

func (d *yamlDecoder) definition(root *yaml.Node) (*Definition, error) {
	root = resolve(root)
	if root.Kind != yaml.MappingNode {
		return nil, shapeError("", d.pos(root), "definition must be a mapping")
	}

	def := &Definition{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], resolve(root.Content[i+1])
		field := key.Value
		def.setPos(field, d.pos(val))

		switch field {
		case keyName:
			if v, ok := d.scalar(field, val).(string); ok {
				def.Name = v
			} else {
				d.fail(shapeError(field, d.pos(val), "name must be a string"))
			}
		case keyEntity:
			def.Entity = d.scalar(field, val)
		case keyDistinct:
			def.Distinct = d.scalar(field, val)
		case keyAllAttributes:
			def.AllAttributes = d.scalar(field, val)
		case keyCount:
			def.Count = d.scalar(field, val)
		case keyAttributes:
			def.Attributes = d.attributes(val)
		case keyOrder:
			def.Order = d.order(def, val)
		default:
			d.fail(shapeError(field, d.pos(key), "unknown field %q", field))
		}
	}

	if len(d.errs) > 0 {
		for _, err := range d.errs {
			var e *Error
			if errors.As(err, &e) {
				e.Definition = def.Name
			}
		}
		return nil, errors.Join(d.errs...)
	}
	return def, nil
}

// scalar converts a scalar node to Null, string, bool, int64 or float64.
// Non-scalar nodes are reported and yield nil.
func (d *yamlDecoder) scalar(field string, n *yaml.Node) any {
	if n.Kind != yaml.ScalarNode {
		d.fail(shapeError(field, d.pos(n), "expected a scalar value"))
		return nil
	}

	switch n.ShortTag() {
	case "!!null":
		return Null{}
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			d.fail(shapeError(field, d.pos(n), "invalid boolean %q", n.Value))
			return nil
		}
		return b
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			d.fail(shapeError(field, d.pos(n), "invalid integer %q", n.Value))
			return nil
		}
		return i
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			d.fail(shapeError(field, d.pos(n), "invalid number %q", n.Value))
			return nil
		}
		return f
	default:
		return n.Value
	}
}

// text returns the textual form of a scalar used as an attribute name.
func (d *yamlDecoder) text(field string, n *yaml.Node) (string, bool) {
	if n.Kind != yaml.ScalarNode {
		d.fail(shapeError(field, d.pos(n), "expected a scalar value"))
		return "", false
	}
	return n.Value, true
}

// itemName returns the attribute name of a positional entry. Typed scalars
// are formatted and null is the empty name.
func (d *yamlDecoder) itemName(field string, n *yaml.Node) (string, bool) {
	switch v := d.scalar(field, n).(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case Null:
		return "", true
	default:
		return fmt.Sprint(v), true
	}
}

func (d *yamlDecoder) attributes(n *yaml.Node) []Entry {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return nil
		}
		if name, ok := d.itemName(keyAttributes, n); ok {
			return []Entry{{Name: name}}
		}
		return nil
	case yaml.MappingNode:
		return d.keyedEntries(keyAttributes, n)
	case yaml.SequenceNode:
		var entries []Entry
		for i, item := range n.Content {
			item = resolve(item)
			field := fmt.Sprintf("%s[%d]", keyAttributes, i)
			switch item.Kind {
			case yaml.ScalarNode:
				if name, ok := d.itemName(field, item); ok {
					entries = append(entries, Entry{Name: name})
				}
			case yaml.MappingNode:
				if len(item.Content) != 2 {
					d.fail(shapeError(field, d.pos(item), "keyed entry must have exactly one key"))
					continue
				}
				entries = append(entries, d.keyedEntries(field, item)...)
			default:
				d.fail(shapeError(field, d.pos(item), "expected a name or a name: alias entry"))
			}
		}
		return entries
	default:
		d.fail(shapeError(keyAttributes, d.pos(n), "expected a name, a list or a mapping"))
		return nil
	}
}

// keyedEntries reads name: alias pairs in document order.
func (d *yamlDecoder) keyedEntries(field string, n *yaml.Node) []Entry {
	entries := make([]Entry, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		name, ok := d.text(field, n.Content[i])
		if !ok {
			continue
		}
		entry := Entry{Name: name}

		val := resolve(n.Content[i+1])
		if val.Kind != yaml.ScalarNode {
			d.fail(shapeError(field+"."+name, d.pos(val), "alias must be a scalar"))
			continue
		}
		if val.ShortTag() == "!!str" {
			alias := val.Value
			entry.Alias = &alias
		}
		entries = append(entries, entry)
	}
	return entries
}

func (d *yamlDecoder) order(def *Definition, n *yaml.Node) any {
	switch n.Kind {
	case yaml.ScalarNode:
		v := d.scalar(keyOrder, n)
		if _, ok := v.(Null); ok {
			return Null{}
		}
		def.setPos(keyOrder+"."+keyOrderAttribute, d.pos(n))
		return &OrderSpec{Attribute: v}
	case yaml.MappingNode:
		spec := &OrderSpec{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], resolve(n.Content[i+1])
			field := keyOrder + "." + key.Value
			def.setPos(field, d.pos(val))
			switch key.Value {
			case keyOrderAttribute:
				spec.Attribute = d.scalar(field, val)
			case keyOrderDescending:
				spec.Descending = d.scalar(field, val)
			default:
				d.fail(shapeError(field, d.pos(key), "unknown field %q", key.Value))
			}
		}
		return spec
	default:
		d.fail(shapeError(keyOrder, d.pos(n), "expected an attribute name or a mapping"))
		return nil
	}
}

// resolve follows YAML aliases (*anchor) to their target node.
func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}
