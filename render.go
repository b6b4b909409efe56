package fetchxml

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Render returns the FetchXML text of the query.
// If any setter rejected an argument, Render returns those errors instead.
func (q *Query) Render() (string, error) {
	return q.RenderIndent(0)
}

// RenderIndent is like Render but indents nested elements by spaces.
// Zero produces compact output.
func (q *Query) RenderIndent(spaces int) (string, error) {
	if err := q.Err(); err != nil {
		return "", err
	}
	return q.write(spaces)
}

// String renders the current state, ignoring recorded argument errors.
// Rejected arguments never reach the state, so the output is always valid.
func (q *Query) String() string {
	s, err := q.write(0)
	if err != nil {
		return ""
	}
	return s
}

// Element builds the <fetch> element tree for the current state.
//
// Attribute order on <fetch> is mapping, distinct, count. Without an entity
// the tree stops at <fetch>. all-attributes takes precedence over explicit
// attributes; the order element follows the projection.
func (q *Query) Element() *etree.Element {
	fetch := etree.NewElement("fetch")
	fetch.CreateAttr("mapping", "logical")
	fetch.CreateAttr("distinct", strconv.FormatBool(q.distinct))
	if q.hasCount && q.count > 0 {
		fetch.CreateAttr("count", strconv.Itoa(q.count))
	}

	if !q.hasEntity {
		return fetch
	}

	entity := fetch.CreateElement("entity")
	entity.CreateAttr("name", q.entity)

	switch {
	case q.allAttributes:
		entity.CreateElement("all-attributes")
	case len(q.attributes) > 0:
		for _, a := range q.attributes {
			entity.AddChild(a.Fragment())
		}
	}

	if q.order != nil {
		order := entity.CreateElement("order")
		order.CreateAttr("attribute", q.order.Attribute)
		order.CreateAttr("descending", strconv.FormatBool(q.order.Descending))
	}

	return fetch
}

func (q *Query) write(spaces int) (string, error) {
	doc := etree.NewDocument()
	// Whitespace in attribute values is written as character references so
	// parsers do not normalize it to spaces.
	doc.WriteSettings.CanonicalAttrVal = true
	doc.SetRoot(q.Element())
	if spaces > 0 {
		doc.Indent(spaces)
	}
	s, err := doc.WriteToString()
	if err != nil {
		return "", err
	}
	return strings.TrimRight(s, "\n"), nil
}
