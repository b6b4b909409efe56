package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqualXML_IgnoresAttributeOrder(t *testing.T) {
	ok, err := EqualXML(
		`<fetch distinct="false" mapping="logical" />`,
		`<fetch mapping="logical" distinct="false"/>`,
	)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEqualXML_IgnoresDeclarationAndWhitespace(t *testing.T) {
	ok, err := EqualXML(
		`<fetch distinct="false" mapping="logical"><entity name="foobar"/></fetch>`,
		"<?xml version=\"1.0\"?>\n<fetch mapping=\"logical\" distinct=\"false\">\n  <entity name=\"foobar\"></entity>\n</fetch>\n",
	)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEqualXML_DetectsDifferences(t *testing.T) {
	testCases := []struct {
		name     string
		expected string
		actual   string
	}{
		{
			name:     "attribute value",
			expected: `<fetch distinct="false"/>`,
			actual:   `<fetch distinct="true"/>`,
		},
		{
			name:     "missing attribute",
			expected: `<attribute name="a" alias="b"/>`,
			actual:   `<attribute name="a"/>`,
		},
		{
			name:     "child order",
			expected: `<entity><attribute name="a"/><attribute name="b"/></entity>`,
			actual:   `<entity><attribute name="b"/><attribute name="a"/></entity>`,
		},
		{
			name:     "extra child",
			expected: `<fetch/>`,
			actual:   `<fetch><entity name="x"/></fetch>`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := EqualXML(tc.expected, tc.actual)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestCanonicalXML_Invalid(t *testing.T) {
	_, err := CanonicalXML("")
	assert.Error(t, err)

	_, err = CanonicalXML("<fetch mapping=")
	assert.Error(t, err)

	_, err = CanonicalXML("plain text")
	assert.Error(t, err)
}

func TestCanonicalXML_Outline(t *testing.T) {
	out, err := CanonicalXML(`<fetch mapping="logical" distinct="true"><entity name="contact"><all-attributes/></entity></fetch>`)
	require.NoError(t, err)
	assert.Equal(t,
		"fetch distinct=\"true\" mapping=\"logical\"\n"+
			"  entity name=\"contact\"\n"+
			"    all-attributes\n",
		out)
}
