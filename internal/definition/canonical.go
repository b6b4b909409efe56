package definition

import "github.com/roach88/fetchxml/internal/canonical"

// Canonical returns the definition as a canonical map. Absent fields are
// omitted. Canonical encoding has no null, so null fields are written as
// {"null": true}.
func (d *Definition) Canonical() map[string]any {
	m := map[string]any{}
	if d.Name != "" {
		m[keyName] = d.Name
	}
	putScalar(m, keyEntity, d.Entity)
	putScalar(m, keyDistinct, d.Distinct)
	putScalar(m, keyAllAttributes, d.AllAttributes)
	putScalar(m, keyCount, d.Count)

	if len(d.Attributes) > 0 {
		attrs := make([]any, len(d.Attributes))
		for i, e := range d.Attributes {
			entry := map[string]any{keyName: e.Name}
			if e.Alias != nil {
				entry["alias"] = *e.Alias
			}
			attrs[i] = entry
		}
		m[keyAttributes] = attrs
	}

	switch o := d.Order.(type) {
	case Null:
		m[keyOrder] = nullMarker()
	case *OrderSpec:
		order := map[string]any{}
		putScalar(order, keyOrderAttribute, o.Attribute)
		putScalar(order, keyOrderDescending, o.Descending)
		m[keyOrder] = order
	}
	return m
}

// Fingerprint hashes the canonical form of the definition.
func (d *Definition) Fingerprint() (string, error) {
	return canonical.Fingerprint(canonical.DomainDefinition, d.Canonical())
}

func putScalar(m map[string]any, key string, v any) {
	switch val := v.(type) {
	case nil:
	case Null:
		m[key] = nullMarker()
	case float64:
		m[key] = describe(val)
	default:
		m[key] = val
	}
}

func nullMarker() map[string]any {
	return map[string]any{"null": true}
}
