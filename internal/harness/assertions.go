package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// Assertion validates the rendered XML.
type Assertion struct {
	// Type specifies the assertion type:
	// - "element_exists": An element at Path carries Attrs
	// - "element_count": Path matches exactly Count elements
	// - "attribute_order": Projected attribute names equal Names
	Type string `yaml:"type"`

	// Path is an etree path such as "//entity/attribute".
	Path string `yaml:"path,omitempty"`

	// Attrs are expected XML attributes (used by element_exists).
	// Subset match - only specified attributes are validated.
	Attrs map[string]string `yaml:"attrs,omitempty"`

	// Count is the expected number of matches (used by element_count).
	Count int `yaml:"count,omitempty"`

	// Names is the expected projection order (used by attribute_order).
	Names []string `yaml:"names,omitempty"`
}

// AssertionError is returned when an assertion fails.
// It includes the XML to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	XML      string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.XML != "" {
		fmt.Fprintf(&buf, "\nXML:\n  %s\n", e.XML)
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against xml and returns the
// failure messages.
func EvaluateAssertions(xml string, assertions []Assertion) []string {
	if len(assertions) == 0 {
		return nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		return []string{fmt.Sprintf("parse rendered XML: %v", err)}
	}

	var failures []string
	for _, a := range assertions {
		if err := evaluate(doc, xml, a); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func evaluate(doc *etree.Document, xml string, a Assertion) error {
	switch a.Type {
	case AssertElementExists:
		return assertElementExists(doc, xml, a)
	case AssertElementCount:
		return assertElementCount(doc, xml, a)
	case AssertAttributeOrder:
		return assertAttributeOrder(doc, xml, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertElementExists checks that some element at the path carries the
// expected attributes (subset match).
func assertElementExists(doc *etree.Document, xml string, a Assertion) error {
	path, err := etree.CompilePath(a.Path)
	if err != nil {
		return fmt.Errorf("element_exists: invalid path %q: %w", a.Path, err)
	}

	elements := doc.FindElementsPath(path)
	for _, el := range elements {
		if matchAttrs(el, a.Attrs) {
			return nil
		}
	}

	actual := "no element at path"
	if len(elements) > 0 {
		actual = fmt.Sprintf("%d element(s) at path, none with matching attributes", len(elements))
	}
	return &AssertionError{
		Type:     AssertElementExists,
		Expected: fmt.Sprintf("%s with %s", a.Path, formatAttrs(a.Attrs)),
		Actual:   actual,
		XML:      xml,
	}
}

// assertElementCount checks that the path matches exactly Count elements.
func assertElementCount(doc *etree.Document, xml string, a Assertion) error {
	path, err := etree.CompilePath(a.Path)
	if err != nil {
		return fmt.Errorf("element_count: invalid path %q: %w", a.Path, err)
	}

	count := len(doc.FindElementsPath(path))
	if count != a.Count {
		return &AssertionError{
			Type:     AssertElementCount,
			Expected: fmt.Sprintf("%d element(s) at %s", a.Count, a.Path),
			Actual:   fmt.Sprintf("%d element(s)", count),
			XML:      xml,
		}
	}
	return nil
}

// assertAttributeOrder checks the projected names in document order.
func assertAttributeOrder(doc *etree.Document, xml string, a Assertion) error {
	var names []string
	for _, el := range doc.FindElements("//entity/attribute") {
		names = append(names, el.SelectAttrValue("name", ""))
	}

	if strings.Join(names, "\x00") != strings.Join(a.Names, "\x00") || len(names) != len(a.Names) {
		return &AssertionError{
			Type:     AssertAttributeOrder,
			Expected: fmt.Sprintf("%v", a.Names),
			Actual:   fmt.Sprintf("%v", names),
			XML:      xml,
		}
	}
	return nil
}

func matchAttrs(el *etree.Element, want map[string]string) bool {
	for key, value := range want {
		attr := el.SelectAttr(key)
		if attr == nil || attr.Value != value {
			return false
		}
	}
	return true
}

// formatAttrs renders attributes with sorted keys for stable messages.
func formatAttrs(attrs map[string]string) string {
	if len(attrs) == 0 {
		return "(any attributes)"
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%q", k, attrs[k])
	}
	return strings.Join(parts, " ")
}
