package compiler

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/hamba/avro/v2"
	"go.trai.ch/avrogen/internal/adapters/avro/gogen"
	"go.trai.ch/avrogen/internal/core/domain"
	"go.trai.ch/avrogen/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Compiler = (*FlatSchemaCompiler)(nil)

// FlatSchemaCompiler compiles a set of .avsc files as one batch. Files may
// reference each other in any order. A file that fails is reported and
// contributes no types; the rest of the batch still compiles.
type FlatSchemaCompiler struct{}

// NewFlatSchemaCompiler creates a new FlatSchemaCompiler.
func NewFlatSchemaCompiler() *FlatSchemaCompiler {
	return &FlatSchemaCompiler{}
}

// Format implements ports.Compiler.
func (c *FlatSchemaCompiler) Format() domain.Format {
	return domain.FormatFlatSchema
}

type flatSource struct {
	file domain.SchemaFile
	data []byte
}

type flatParsed struct {
	file    domain.SchemaFile
	defined []avro.NamedSchema
}

// Compile implements ports.Compiler. It only returns an error when ctx is done.
func (c *FlatSchemaCompiler) Compile(ctx context.Context, req ports.CompileRequest) (ports.CompileResult, error) {
	var result ports.CompileResult
	fail := func(path string, err error) {
		result.Failures = append(result.Failures, ports.FileFailure{Path: path, Err: err})
	}

	pending := make([]flatSource, 0, len(req.Files))
	for _, file := range req.Files {
		data, err := os.ReadFile(file.Path)
		if err != nil {
			fail(file.Path, domain.NewIOError(file.Path, err))
			continue
		}
		pending = append(pending, flatSource{file: file, data: data})
	}

	// Each pass compiles every file whose references are now resolvable.
	// A pass that makes no progress leaves only genuinely broken files.
	var compiled []flatParsed
	lastErr := make(map[string]error)
	for progress := true; progress && len(pending) > 0; {
		progress = false
		var next []flatSource
		for _, src := range pending {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			defined, retry, err := c.parse(src, req)
			if err != nil {
				if retry {
					lastErr[src.file.Path] = err
					next = append(next, src)
				} else {
					fail(src.file.Path, err)
				}
				continue
			}
			progress = true
			compiled = append(compiled, flatParsed{file: src.file, defined: defined})
		}
		pending = next
	}
	for _, src := range pending {
		fail(src.file.Path, lastErr[src.file.Path])
	}

	gen := gogen.New(req.Destination, req.Options)
	for _, p := range compiled {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		outputs, err := gen.Types(p.defined)
		result.Outputs = append(result.Outputs, outputs...)
		if err != nil {
			fail(p.file.Path, err)
		}
	}
	return result, nil
}

// parse compiles one file against a scratch cache and, on success, adds its
// types to the request's registry. retry reports whether a later pass, with
// more types known, could succeed.
func (c *FlatSchemaCompiler) parse(src flatSource, req ports.CompileRequest) (defined []avro.NamedSchema, retry bool, err error) {
	path := src.file.Path
	s, err := avro.ParseBytesWithCache(src.data, "", req.Types.SchemaCache())
	if err != nil {
		return nil, true, domain.NewParseError(path, err)
	}

	defined, err = definitions(req.Types, gogen.Collect(s))
	if err != nil {
		return nil, false, domain.NewParseError(path, err)
	}
	if req.Options.UseNamespace {
		if err := checkLayout(path, req.SourceRoot, s); err != nil {
			return nil, false, err
		}
	}
	if err := validate(path, req.Types.Flags(), defined); err != nil {
		return nil, false, err
	}
	if err := req.Types.Add(defined...); err != nil {
		return nil, false, domain.NewParseError(path, err)
	}
	return defined, false, nil
}

// checkLayout requires the file's directory, relative to root, to spell out the
// namespace of its top-level types.
func checkLayout(path, root string, s avro.Schema) error {
	dir, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil {
		return domain.NewNamespaceLayoutError(path, "", filepath.Dir(path))
	}
	if dir == "." {
		dir = ""
	}

	var top []avro.Schema
	if union, ok := s.(*avro.UnionSchema); ok {
		top = union.Types()
	} else {
		top = []avro.Schema{s}
	}
	for _, t := range top {
		named, ok := namedOf(t)
		if !ok {
			continue
		}
		if gogen.NamespaceDir(named.Namespace()) != dir {
			return domain.NewNamespaceLayoutError(path, named.Namespace(), dir)
		}
	}
	return nil
}

// validate applies the registry's optional validation rules to newly defined types.
func validate(path string, flags domain.RegistryFlags, defined []avro.NamedSchema) error {
	for _, n := range defined {
		rec, ok := n.(*avro.RecordSchema)
		if !ok {
			continue
		}
		if flags.ValidateNames {
			if clashes := gogen.Collisions(rec); len(clashes) > 0 {
				err := zerr.With(zerr.New("field names collide in generated code"), "record", rec.FullName())
				return domain.NewParseError(path, zerr.With(err, "fields", strings.Join(clashes, ", ")))
			}
		}
		if flags.ValidateDefaults {
			for _, field := range rec.Fields() {
				if !defaultMatchesUnion(field) {
					err := zerr.With(zerr.New("union default does not match the first branch"), "record", rec.FullName())
					return domain.NewParseError(path, zerr.With(err, "field", field.Name()))
				}
			}
		}
	}
	return nil
}

func defaultMatchesUnion(field *avro.Field) bool {
	union, ok := field.Type().(*avro.UnionSchema)
	if !ok || !field.HasDefault() || len(union.Types()) == 0 {
		return true
	}
	firstIsNull := union.Types()[0].Type() == avro.Null
	return firstIsNull == (field.Default() == nil)
}
