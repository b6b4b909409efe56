package testutil

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// CanonicalXML reduces an XML document to a structural outline.
//
// The outline ignores the XML declaration, attribute order, self-closing vs
// explicit end tags and whitespace-only text, so two documents with the same
// element tree produce the same outline.
func CanonicalXML(s string) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(s); err != nil {
		return "", fmt.Errorf("parse xml: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return "", fmt.Errorf("parse xml: no root element")
	}

	var sb strings.Builder
	writeOutline(&sb, root, 0)
	return sb.String(), nil
}

func writeOutline(sb *strings.Builder, el *etree.Element, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(el.FullTag())

	attrs := make([]string, 0, len(el.Attr))
	for _, a := range el.Attr {
		attrs = append(attrs, fmt.Sprintf("%s=%q", a.FullKey(), a.Value))
	}
	sort.Strings(attrs)
	for _, a := range attrs {
		sb.WriteString(" ")
		sb.WriteString(a)
	}
	sb.WriteString("\n")

	if text := strings.TrimSpace(el.Text()); text != "" {
		sb.WriteString(strings.Repeat("  ", depth+1))
		sb.WriteString(fmt.Sprintf("text %q\n", text))
	}

	for _, child := range el.ChildElements() {
		writeOutline(sb, child, depth+1)
	}
}

// EqualXML reports whether two documents have the same element tree.
func EqualXML(expected, actual string) (bool, error) {
	e, err := CanonicalXML(expected)
	if err != nil {
		return false, fmt.Errorf("expected: %w", err)
	}
	a, err := CanonicalXML(actual)
	if err != nil {
		return false, fmt.Errorf("actual: %w", err)
	}
	return e == a, nil
}

// AssertXMLEqual fails the test when the documents differ structurally.
// The failure shows a diff of both outlines.
func AssertXMLEqual(t testing.TB, expected, actual string, msgAndArgs ...any) bool {
	t.Helper()

	e, err := CanonicalXML(expected)
	require.NoError(t, err, "expected xml")
	a, err := CanonicalXML(actual)
	require.NoError(t, err, "actual xml: %s", actual)

	return assert.Equal(t, e, a, msgAndArgs...)
}
