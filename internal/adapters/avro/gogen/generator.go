// Package gogen renders Avro named types and protocols as Go source files.
package gogen

import (
	"bytes"
	"embed"
	"go/format"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/hamba/avro/v2"
	"go.trai.ch/avrogen/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	dirPerm  = 0o750
	filePerm = 0o644
)

//go:embed templates/*.go.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"literal": literal,
}).ParseFS(templateFS, "templates/*.go.tmpl"))

// literal renders s as a Go string literal, raw when possible.
func literal(s string) string {
	if strings.ContainsAny(s, "`\r") {
		return strconv.Quote(s)
	}
	return "`" + s + "`"
}

// Generator writes Go files under a destination directory.
type Generator struct {
	dest string
	opts domain.CompileOptions
}

// New creates a Generator writing under dest.
func New(dest string, opts domain.CompileOptions) *Generator {
	return &Generator{dest: dest, opts: opts}
}

// Path returns the output file of a named type.
func (g *Generator) Path(namespace, name string) string {
	return filepath.Join(g.dest, NamespaceDir(namespace), SnakeName(name)+".go")
}

// Types writes one file per named type and returns the written paths.
func (g *Generator) Types(schemas []avro.NamedSchema) ([]string, error) {
	paths := make([]string, 0, len(schemas))
	for _, s := range schemas {
		path, err := g.Type(s)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Type writes the file of a single named type.
func (g *Generator) Type(s avro.NamedSchema) (string, error) {
	f := newFile(s.Namespace(), g.opts)
	data := map[string]any{}
	var tmpl string

	switch t := s.(type) {
	case *avro.RecordSchema:
		tmpl = "record"
		data["Record"] = g.record(f, t)
	case *avro.EnumSchema:
		tmpl = "enum"
		data["Enum"] = g.enum(t)
	case *avro.FixedSchema:
		tmpl = "fixed"
		data["Fixed"] = fixedData{
			Name:        TypeName(t.Name()),
			Size:        t.Size(),
			SchemaConst: unexported(TypeName(t.Name())) + "Schema",
			Schema:      t.String(),
		}
	default:
		return "", zerr.With(zerr.New("unsupported named type"), "type", s.FullName())
	}

	path := g.Path(s.Namespace(), s.Name())
	if err := g.render(path, tmpl, f, data); err != nil {
		return "", zerr.With(err, "type", s.FullName())
	}
	return path, nil
}

type fieldData struct {
	Ident    string
	Accessor string
	AvroName string
	Type     string
	Doc      []string
}

type recordData struct {
	Name        string
	FullName    string
	Doc         []string
	Fields      []fieldData
	IsError     bool
	SchemaConst string
	Schema      string
}

func (g *Generator) record(f *file, rec *avro.RecordSchema) recordData {
	name := TypeName(rec.Name())
	data := recordData{
		Name:        name,
		FullName:    rec.FullName(),
		Doc:         docLines(name, rec.Doc()),
		IsError:     rec.IsError(),
		SchemaConst: unexported(name) + "Schema",
		Schema:      rec.String(),
	}

	if data.IsError {
		f.use("fmt", "")
	}

	idents := fieldIdents(rec)
	for i, field := range rec.Fields() {
		exported := idents[i]
		fd := fieldData{
			Ident:    exported,
			AvroName: field.Name(),
			Type:     f.goType(field.Type()),
		}
		if doc := field.Doc(); doc != "" {
			fd.Doc = strings.Split(doc, "\n")
		}
		switch g.opts.FieldVisibility {
		case domain.VisibilityPrivate:
			fd.Ident = unexported(exported)
			fd.Accessor = exported
		case domain.VisibilityPublicDeprecated:
			fd.Accessor = exported
			if len(fd.Doc) > 0 {
				fd.Doc = append(fd.Doc, "")
			}
			fd.Doc = append(fd.Doc, "Deprecated: use Get"+exported+" and Set"+exported+".")
		}
		data.Fields = append(data.Fields, fd)
	}
	return data
}

type symbolData struct {
	Ident string
	Value string
}

type enumData struct {
	Name        string
	Doc         []string
	Symbols     []symbolData
	SchemaConst string
	Schema      string
}

func (g *Generator) enum(e *avro.EnumSchema) enumData {
	name := TypeName(e.Name())
	data := enumData{
		Name:        name,
		Doc:         docLines(name, e.Doc()),
		SchemaConst: unexported(name) + "Schema",
		Schema:      e.String(),
	}
	seen := make(map[string]int)
	for _, symbol := range e.Symbols() {
		ident := name + TypeName(symbol)
		seen[ident]++
		if n := seen[ident]; n > 1 {
			ident += strconv.Itoa(n)
		}
		data.Symbols = append(data.Symbols, symbolData{Ident: ident, Value: symbol})
	}
	return data
}

type fixedData struct {
	Name        string
	Doc         []string
	Size        int
	SchemaConst string
	Schema      string
}

func (g *Generator) render(path, name string, f *file, data map[string]any) error {
	data["Package"] = PackageName(f.namespace, g.opts.DefaultPackage)
	data["Imports"] = f.importSpecs()

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return zerr.Wrap(err, "failed to render template")
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return zerr.With(zerr.Wrap(err, "generated invalid Go source"), "file", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return domain.NewIOError(filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, src, filePerm); err != nil {
		return domain.NewIOError(path, err)
	}
	return nil
}

// docLines returns the Go doc comment lines for a type. Docs that open with an
// article are rewritten to lead with the type name.
func docLines(name, doc string) []string {
	if doc == "" {
		return nil
	}
	lines := strings.Split(doc, "\n")
	first, _, _ := strings.Cut(lines[0], " ")
	switch first {
	case "A", "An", "The":
		lines[0] = name + " is " + strings.ToLower(first) + lines[0][len(first):]
	}
	return lines
}

// fieldIdents returns the exported Go identifier of every field, made unique.
func fieldIdents(rec *avro.RecordSchema) []string {
	reserved := map[string]bool{"AvroSchema": true}
	if rec.IsError() {
		reserved["Error"] = true
	}
	used := make(map[string]bool)
	idents := make([]string, 0, len(rec.Fields()))
	for _, field := range rec.Fields() {
		base := TypeName(field.Name())
		if reserved[base] {
			base += "Field"
		}
		ident := base
		for i := 2; used[ident]; i++ {
			ident = base + strconv.Itoa(i)
		}
		used[ident] = true
		idents = append(idents, ident)
	}
	return idents
}

// Collisions returns the names of fields whose Go identifier clashes with an
// earlier field of the same record.
func Collisions(rec *avro.RecordSchema) []string {
	seen := make(map[string]bool)
	var clashes []string
	for _, field := range rec.Fields() {
		ident := TypeName(field.Name())
		if seen[ident] {
			clashes = append(clashes, field.Name())
			continue
		}
		seen[ident] = true
	}
	return clashes
}
