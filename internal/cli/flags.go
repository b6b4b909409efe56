package cli

import (
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/pflag"

	"github.com/roach88/fetchxml"
	"github.com/roach88/fetchxml/internal/definition"
)

// QueryFlags are the builder flags shared by render and save.
type QueryFlags struct {
	File          string
	Entity        string
	Distinct      bool
	AllAttributes bool
	Attrs         []string
	Count         int
	Order         string
	Descending    bool
}

// Register adds the query flags to fs.
func (f *QueryFlags) Register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.File, "file", "f", "", "YAML definition file")
	fs.StringVarP(&f.Entity, "entity", "e", "", "entity logical name")
	fs.BoolVar(&f.Distinct, "distinct", false, "return distinct rows")
	fs.BoolVar(&f.AllAttributes, "all-attributes", false, "select all attributes")
	fs.StringArrayVarP(&f.Attrs, "attr", "a", nil, "attribute as name or name=alias (repeatable)")
	fs.IntVar(&f.Count, "count", 0, "maximum number of rows (values <= 0 are not rendered)")
	fs.StringVar(&f.Order, "order", "", "attribute to order by")
	fs.BoolVar(&f.Descending, "descending", false, "order descending")
}

// Build creates the query. The definition file is applied first, then every
// flag that was set on the command line, so flags override the file.
func (f *QueryFlags) Build(fs *pflag.FlagSet) (*fetchxml.Query, error) {
	q := fetchxml.New()
	if f.File != "" {
		def, err := definition.LoadFile(f.File)
		if err != nil {
			return nil, err
		}
		q, err = definition.Build(def)
		if err != nil {
			return nil, err
		}
	}

	if fs.Changed("entity") {
		q.SetEntity(f.Entity)
	}
	if fs.Changed("distinct") {
		q.SetDistinct(f.Distinct)
	}
	if fs.Changed("all-attributes") {
		q.SetAllAttributes(f.AllAttributes)
	}
	q.AddAttributes(lo.Map(f.Attrs, func(s string, _ int) fetchxml.AttributeSpec {
		return parseAttr(s)
	})...)
	if fs.Changed("count") {
		q.SetCount(f.Count)
	}
	if fs.Changed("order") || fs.Changed("descending") {
		attribute := f.Order
		if !fs.Changed("order") {
			if o, ok := q.Order(); ok {
				attribute = o.Attribute
			}
		}
		q.SetOrder(attribute, f.Descending)
	}

	if err := q.Err(); err != nil {
		return nil, err
	}
	return q, nil
}

// parseAttr reads name or name=alias. An empty alias after "=" is kept.
func parseAttr(s string) fetchxml.AttributeSpec {
	if name, alias, ok := strings.Cut(s, "="); ok {
		return fetchxml.As(name, alias)
	}
	return fetchxml.Name(s)
}
