package gogen

import (
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/hamba/avro/v2"
	"go.trai.ch/avrogen/internal/core/domain"
)

// Collect returns the named types defined by the given schemas, including
// nested definitions, in definition order. References are not followed.
func Collect(schemas ...avro.Schema) []avro.NamedSchema {
	seen := make(map[string]bool)
	var out []avro.NamedSchema

	var walk func(avro.Schema)
	visit := func(named avro.NamedSchema) bool {
		if seen[named.FullName()] {
			return false
		}
		seen[named.FullName()] = true
		out = append(out, named)
		return true
	}
	walk = func(s avro.Schema) {
		switch t := s.(type) {
		case *avro.RecordSchema:
			if visit(t) {
				for _, f := range t.Fields() {
					walk(f.Type())
				}
			}
		case *avro.EnumSchema:
			visit(t)
		case *avro.FixedSchema:
			visit(t)
		case *avro.ArraySchema:
			walk(t.Items())
		case *avro.MapSchema:
			walk(t.Values())
		case *avro.UnionSchema:
			for _, branch := range t.Types() {
				walk(branch)
			}
		}
	}

	for _, s := range schemas {
		walk(s)
	}
	return out
}

type importSpec struct {
	Alias string
	Path  string
}

// file tracks the package and imports of one generated file.
type file struct {
	opts      domain.CompileOptions
	namespace string
	// imports maps import paths to their explicit alias, or "" for none.
	imports map[string]string
	names   map[string]string
	aliases map[string]string
}

func newFile(namespace string, opts domain.CompileOptions) *file {
	return &file{
		opts:      opts,
		namespace: namespace,
		imports:   make(map[string]string),
		names:     make(map[string]string),
		aliases:   make(map[string]string),
	}
}

// use records an import and returns the name to qualify identifiers with.
func (f *file) use(importPath, alias string) string {
	if name, ok := f.names[importPath]; ok {
		return name
	}
	base := alias
	if base == "" {
		base = path.Base(importPath)
	}
	name := base
	for i := 2; f.aliases[name] != ""; i++ {
		name = base + strconv.Itoa(i)
	}
	f.aliases[name] = importPath
	f.names[importPath] = name
	if alias == "" && name == path.Base(importPath) {
		f.imports[importPath] = ""
	} else {
		f.imports[importPath] = name
	}
	return name
}

func (f *file) importSpecs() []importSpec {
	specs := make([]importSpec, 0, len(f.imports))
	for p, alias := range f.imports {
		specs = append(specs, importSpec{Alias: alias, Path: p})
	}
	slices.SortFunc(specs, func(a, b importSpec) int {
		return strings.Compare(a.Path, b.Path)
	})
	return specs
}

// goType returns the Go type used for a schema within this file.
func (f *file) goType(s avro.Schema) string {
	switch t := s.(type) {
	case *avro.NullSchema:
		return "any"
	case *avro.PrimitiveSchema:
		if logical := t.Logical(); logical != nil {
			if typ, ok := f.logicalType(logical.Type()); ok {
				return typ
			}
		}
		return f.primitive(t.Type())
	case *avro.ArraySchema:
		return "[]" + f.goType(t.Items())
	case *avro.MapSchema:
		return "map[string]" + f.goType(t.Values())
	case *avro.UnionSchema:
		return f.union(t)
	case *avro.RefSchema:
		var target avro.Schema = t.Schema()
		return f.goType(target)
	case *avro.FixedSchema:
		if logical := t.Logical(); logical != nil && logical.Type() == avro.Decimal && f.opts.EnableDecimalLogicalType {
			return "*" + f.use("math/big", "") + ".Rat"
		}
		return f.named(t)
	case *avro.RecordSchema:
		return f.named(t)
	case *avro.EnumSchema:
		return f.named(t)
	default:
		return "any"
	}
}

func (f *file) primitive(typ avro.Type) string {
	switch typ {
	case avro.Boolean:
		return "bool"
	case avro.Int:
		return "int32"
	case avro.Long:
		return "int64"
	case avro.Float:
		return "float32"
	case avro.Double:
		return "float64"
	case avro.Bytes:
		return "[]byte"
	case avro.String:
		if f.opts.StringType == domain.StringTypeUtf8 {
			return "[]byte"
		}
		return "string"
	default:
		return "any"
	}
}

func (f *file) logicalType(typ avro.LogicalType) (string, bool) {
	switch typ {
	case avro.Decimal:
		if !f.opts.EnableDecimalLogicalType {
			return "", false
		}
		return "*" + f.use("math/big", "") + ".Rat", true
	case avro.UUID:
		return "string", true
	case avro.Date, avro.TimestampMillis, avro.TimestampMicros, avro.LocalTimestampMillis, avro.LocalTimestampMicros:
		return f.use("time", "") + ".Time", true
	case avro.TimeMillis, avro.TimeMicros:
		return f.use("time", "") + ".Duration", true
	default:
		return "", false
	}
}

// union maps ["null", T] to a nillable T and every other union to any.
func (f *file) union(u *avro.UnionSchema) string {
	if !u.Nullable() || len(u.Types()) != 2 {
		return "any"
	}
	var inner string
	for _, branch := range u.Types() {
		if branch.Type() != avro.Null {
			inner = f.goType(branch)
		}
	}
	switch {
	case inner == "any", inner == "[]byte":
		return inner
	case len(inner) > 0 && inner[0] == '*':
		return inner
	case len(inner) > 1 && inner[:2] == "[]":
		return inner
	case len(inner) > 3 && inner[:4] == "map[":
		return inner
	default:
		return "*" + inner
	}
}

// named references a generated type, qualifying it when it lives in another package.
func (f *file) named(s avro.NamedSchema) string {
	name := TypeName(s.Name())
	if s.Namespace() == f.namespace {
		return name
	}
	if f.opts.GoImportPath == "" {
		return "any"
	}
	importPath := f.opts.GoImportPath
	if ns := s.Namespace(); ns != "" {
		importPath = path.Join(importPath, strings.ReplaceAll(ns, ".", "/"))
	}
	alias := PackageName(s.Namespace(), f.opts.DefaultPackage)
	return f.use(importPath, alias) + "." + name
}
