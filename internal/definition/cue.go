package definition

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// FetchRoot is the top-level CUE field holding definitions.
const FetchRoot = "fetch"

// LoadCUE loads every definition under fetch: in the CUE package found in
// dir. Definition errors are collected; directory and CUE build errors are
// returned alone with a nil result.
func LoadCUE(dir string) ([]*Definition, []error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("definitions directory: %w", err)}
	}
	if !info.IsDir() {
		return nil, []error{fmt.Errorf("definitions directory: not a directory: %s", dir)}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("scanning %s: %w", dir, err)}
	}
	if len(files) == 0 {
		return nil, []error{fmt.Errorf("%w: no CUE files found in %s", ErrNoFiles, dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{fmt.Errorf("%w: no CUE instances loaded", ErrLoadFailed)}
	}
	if inst := instances[0]; inst.Err != nil {
		return nil, []error{fmt.Errorf("%w: loading CUE files: %v", ErrLoadFailed, inst.Err)}
	}

	value := ctx.BuildInstance(instances[0])
	if err := value.Err(); err != nil {
		return nil, []error{fmt.Errorf("%w: building CUE value: %v", ErrLoadFailed, err)}
	}

	return CompileCUE(value)
}

// CompileString compiles CUE source text and extracts its definitions.
func CompileString(src, filename string) ([]*Definition, []error) {
	ctx := cuecontext.New()
	value := ctx.CompileString(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, []error{fmt.Errorf("%w: compiling CUE: %v", ErrLoadFailed, err)}
	}
	return CompileCUE(value)
}

// CompileCUE extracts the definitions under fetch: from a built CUE value,
// in declaration order.
func CompileCUE(value cue.Value) ([]*Definition, []error) {
	root := value.LookupPath(cue.ParsePath(FetchRoot))
	if !root.Exists() {
		return nil, []error{fmt.Errorf("%w: no %q field", ErrInvalidDefinition, FetchRoot)}
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, []error{fmt.Errorf("%w: iterating %s: %v", ErrInvalidDefinition, FetchRoot, err)}
	}

	var defs []*Definition
	var errs []error
	for iter.Next() {
		def, err := compileDefinition(iter.Label(), iter.Value())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		defs = append(defs, def)
	}
	return defs, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

var (
	// ErrNoFiles is returned when a directory holds no CUE files.
	ErrNoFiles = errors.New("no definition files")

	// ErrLoadFailed is returned when CUE sources cannot be loaded or built.
	ErrLoadFailed = errors.New("load failed")
)

type cueDecoder struct {
	name string
	errs []error
}

func cuePos(p token.Pos) Position {
	if !p.IsValid() {
		return Position{}
	}
	return Position{File: p.Filename(), Line: p.Line(), Column: p.Column()}
}

func (d *cueDecoder) fail(field string, v cue.Value, format string, args ...any) {
	e := shapeError(field, cuePos(v.Pos()), format, args...)
	e.Definition = d.name
	d.errs = append(d.errs, e)
}

func compileDefinition(label string, v cue.Value) (*Definition, error) {
	d := &cueDecoder{name: label}
	def := &Definition{Name: label}

	if v.IncompleteKind() != cue.StructKind {
		d.fail("", v, "definition must be a struct")
		return nil, errors.Join(d.errs...)
	}

	iter, err := v.Fields()
	if err != nil {
		d.fail("", v, "iterating fields: %v", err)
		return nil, errors.Join(d.errs...)
	}

	for iter.Next() {
		field, val := iter.Label(), iter.Value()
		def.setPos(field, cuePos(val.Pos()))

		switch field {
		case keyName:
			if s, ok := d.scalar(field, val).(string); ok {
				def.Name = s
			} else {
				d.fail(field, val, "name must be a string")
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
			d.fail(field, val, "unknown field %q", field)
		}
	}

	if len(d.errs) > 0 {
		return nil, errors.Join(d.errs...)
	}
	return def, nil
}

// scalar converts a concrete CUE scalar to Null, string, bool, int64 or
// float64.
func (d *cueDecoder) scalar(field string, v cue.Value) any {
	if err := v.Err(); err != nil {
		d.fail(field, v, "%v", err)
		return nil
	}

	switch v.Kind() {
	case cue.NullKind:
		return Null{}
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			d.fail(field, v, "%v", err)
			return nil
		}
		return b
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			d.fail(field, v, "integer out of range: %v", err)
			return nil
		}
		return i
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			d.fail(field, v, "%v", err)
			return nil
		}
		return f
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			d.fail(field, v, "%v", err)
			return nil
		}
		return s
	case cue.BottomKind:
		d.fail(field, v, "value is not concrete")
		return nil
	default:
		d.fail(field, v, "expected a scalar value, got %s", v.Kind())
		return nil
	}
}

// text returns the textual form of a scalar used as an attribute name.
func (d *cueDecoder) text(field string, v cue.Value) (string, bool) {
	switch s := d.scalar(field, v).(type) {
	case nil:
		return "", false
	case string:
		return s, true
	case Null:
		return "", true
	default:
		return fmt.Sprint(s), true
	}
}

func (d *cueDecoder) attributes(v cue.Value) []Entry {
	switch v.IncompleteKind() {
	case cue.StructKind:
		return d.keyedEntries(keyAttributes, v)
	case cue.ListKind:
		list, err := v.List()
		if err != nil {
			d.fail(keyAttributes, v, "%v", err)
			return nil
		}
		var entries []Entry
		for i := 0; list.Next(); i++ {
			item := list.Value()
			field := fmt.Sprintf("%s[%d]", keyAttributes, i)
			if item.IncompleteKind() == cue.StructKind {
				keyed := d.keyedEntries(field, item)
				if len(keyed) != 1 {
					d.fail(field, item, "keyed entry must have exactly one key")
					continue
				}
				entries = append(entries, keyed...)
				continue
			}
			if name, ok := d.text(field, item); ok {
				entries = append(entries, Entry{Name: name})
			}
		}
		return entries
	default:
		if v.Kind() == cue.NullKind {
			return nil
		}
		if name, ok := d.text(keyAttributes, v); ok {
			return []Entry{{Name: name}}
		}
		return nil
	}
}

// keyedEntries reads name: alias fields in declaration order.
func (d *cueDecoder) keyedEntries(field string, v cue.Value) []Entry {
	iter, err := v.Fields()
	if err != nil {
		d.fail(field, v, "%v", err)
		return nil
	}

	var entries []Entry
	for iter.Next() {
		entry := Entry{Name: iter.Label()}
		val := iter.Value()
		if k := val.IncompleteKind(); k == cue.StructKind || k == cue.ListKind {
			d.fail(field+"."+entry.Name, val, "alias must be a scalar")
			continue
		}
		if alias, ok := d.scalar(field+"."+entry.Name, val).(string); ok {
			entry.Alias = &alias
		}
		entries = append(entries, entry)
	}
	return entries
}

func (d *cueDecoder) order(def *Definition, v cue.Value) any {
	if v.IncompleteKind() != cue.StructKind {
		val := d.scalar(keyOrder, v)
		if _, ok := val.(Null); ok {
			return Null{}
		}
		def.setPos(keyOrder+"."+keyOrderAttribute, cuePos(v.Pos()))
		return &OrderSpec{Attribute: val}
	}

	iter, err := v.Fields()
	if err != nil {
		d.fail(keyOrder, v, "%v", err)
		return nil
	}

	spec := &OrderSpec{}
	for iter.Next() {
		key, val := iter.Label(), iter.Value()
		field := keyOrder + "." + key
		def.setPos(field, cuePos(val.Pos()))
		switch key {
		case keyOrderAttribute:
			spec.Attribute = d.scalar(field, val)
		case keyOrderDescending:
			spec.Descending = d.scalar(field, val)
		default:
			d.fail(field, val, "unknown field %q", key)
		}
	}
	return spec
}
