package fetchxml

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/beevik/etree"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contactQuery() *Query {
	return New().
		SetDistinct(true).
		SetCount(3).
		SetEntity("contact").
		AddAttributes(Name("firstname"), As("lastname", "surname"), NewAliasedAttribute("emailaddress1", "email")).
		SetOrder("lastname")
}

func TestRender_Golden(t *testing.T) {
	testCases := []struct {
		name  string
		query *Query
	}{
		{name: "empty", query: New()},
		{name: "entity_only", query: New().SetEntity("foobar")},
		{name: "contact", query: contactQuery()},
		{name: "all_attributes", query: New().SetEntity("account").SetAllAttributes(true).SetOrder("name", true).SetCount(50)},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := tc.query.RenderIndent(2)
			require.NoError(t, err)
			g.Assert(t, tc.name, []byte(out))
		})
	}
}

func TestRender_Compact(t *testing.T) {
	out, err := New().SetEntity("foobar").Render()
	require.NoError(t, err)
	assert.Equal(t, `<fetch mapping="logical" distinct="false"><entity name="foobar"/></fetch>`, out)
}

func TestRender_NoDeclaration(t *testing.T) {
	out, err := contactQuery().Render()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<fetch "), out)
	assert.NotContains(t, out, "<?xml")
	assert.NotContains(t, out, "\n")
}

func TestRender_EscapesAttributeValues(t *testing.T) {
	q := New().
		SetEntity(`a"b<c>&d`).
		AddAttribute("x", `'quoted' & <tagged>`).
		SetOrder(`o"rd`)

	out, err := q.Render()
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(out))

	entity := doc.FindElement("//entity")
	require.NotNil(t, entity)
	assert.Equal(t, `a"b<c>&d`, entity.SelectAttrValue("name", ""))

	attr := doc.FindElement("//entity/attribute")
	require.NotNil(t, attr)
	assert.Equal(t, `'quoted' & <tagged>`, attr.SelectAttrValue("alias", ""))

	order := doc.FindElement("//entity/order")
	require.NotNil(t, order)
	assert.Equal(t, `o"rd`, order.SelectAttrValue("attribute", ""))
}

func TestRender_EscapesWhitespaceInAttributeValues(t *testing.T) {
	q := New().
		SetEntity("a\n\tb").
		AddAttribute("x", "y\r\nz").
		SetOrder("o\trd")

	out, err := q.Render()
	require.NoError(t, err)
	assert.Equal(t,
		`<fetch mapping="logical" distinct="false"><entity name="a&#xA;&#x9;b">`+
			`<attribute name="x" alias="y&#xD;&#xA;z"/><order attribute="o&#x9;rd" descending="false"/></entity></fetch>`,
		out)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(out))
	assert.Equal(t, "a\n\tb", doc.FindElement("//entity").SelectAttrValue("name", ""))
	assert.Equal(t, "y\r\nz", doc.FindElement("//entity/attribute").SelectAttrValue("alias", ""))
	assert.Equal(t, "o\trd", doc.FindElement("//entity/order").SelectAttrValue("attribute", ""))
}

func TestRender_FetchAttributeOrder(t *testing.T) {
	el := New().SetCount(1).SetDistinct(true).Element()

	keys := make([]string, len(el.Attr))
	for i, a := range el.Attr {
		keys[i] = a.Key
	}
	assert.Equal(t, []string{"mapping", "distinct", "count"}, keys)
}

func TestRender_ElementChildOrder(t *testing.T) {
	el := New().
		SetEntity("contact").
		AddAttribute("c").
		AddAttribute("a").
		AddAttribute("b").
		SetOrder("a").
		Element()

	entity := el.SelectElement("entity")
	require.NotNil(t, entity)

	var got []string
	for _, child := range entity.ChildElements() {
		got = append(got, child.Tag+":"+child.SelectAttrValue("name", child.SelectAttrValue("attribute", "")))
	}
	assert.Equal(t, []string{"attribute:c", "attribute:a", "attribute:b", "order:a"}, got)
}

func TestRender_Idempotent(t *testing.T) {
	q := contactQuery()
	first, err := q.Render()
	require.NoError(t, err)
	second, err := q.Render()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRender_ConcurrentDistinctQueries(t *testing.T) {
	const n = 20

	var wg sync.WaitGroup
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q := New().SetEntity(fmt.Sprintf("entity%d", i)).SetCount(i + 1)
			out, err := q.Render()
			assert.NoError(t, err)
			results[i] = out
		}(i)
	}
	wg.Wait()

	for i, out := range results {
		assert.Contains(t, out, fmt.Sprintf(`name="entity%d"`, i))
		assert.Contains(t, out, fmt.Sprintf(`count="%d"`, i+1))
	}
}

func TestRender_Stringer(t *testing.T) {
	assert.Equal(t, `<fetch mapping="logical" distinct="false"/>`, fmt.Sprint(New()))
}
