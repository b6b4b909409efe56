package fetchxml

import "github.com/roach88/fetchxml/internal/canonical"

// Fingerprint returns a content address for the rendered shape of the query.
//
// Only state that reaches the output is hashed: a non-positive count, the
// projection of an entity-less query and attributes hidden by all-attributes
// do not contribute. Two queries rendering to the same XML share a
// fingerprint.
func (q *Query) Fingerprint() (string, error) {
	return canonical.Fingerprint(canonical.DomainQuery, q.canonicalMap())
}

func (q *Query) canonicalMap() map[string]any {
	m := map[string]any{
		"mapping":  "logical",
		"distinct": q.distinct,
	}
	if q.hasCount && q.count > 0 {
		m["count"] = q.count
	}
	if !q.hasEntity {
		return m
	}

	entity := map[string]any{"name": q.entity}
	switch {
	case q.allAttributes:
		entity["all_attributes"] = true
	case len(q.attributes) > 0:
		attrs := make([]any, len(q.attributes))
		for i, a := range q.attributes {
			attr := map[string]any{"name": a.name}
			if a.hasAlias {
				attr["alias"] = a.alias
			}
			attrs[i] = attr
		}
		entity["attributes"] = attrs
	}
	if q.order != nil {
		entity["order"] = map[string]any{
			"attribute":  q.order.Attribute,
			"descending": q.order.Descending,
		}
	}
	m["entity"] = entity
	return m
}
