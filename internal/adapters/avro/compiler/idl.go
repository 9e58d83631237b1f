package compiler

import (
	"context"
	"errors"
	"os"

	"go.trai.ch/avrogen/internal/adapters/avro/gogen"
	"go.trai.ch/avrogen/internal/adapters/avro/idl"
	"go.trai.ch/avrogen/internal/core/domain"
	"go.trai.ch/avrogen/internal/core/ports"
)

var _ ports.Compiler = (*IDLCompiler)(nil)

// IDLCompiler compiles .avdl files. Any failure aborts the request.
type IDLCompiler struct {
	parser *idl.Compiler
}

// NewIDLCompiler creates a new IDLCompiler.
func NewIDLCompiler() *IDLCompiler {
	return &IDLCompiler{parser: idl.NewCompiler(os.ReadFile)}
}

// Format implements ports.Compiler.
func (c *IDLCompiler) Format() domain.Format {
	return domain.FormatIDL
}

// Compile implements ports.Compiler.
func (c *IDLCompiler) Compile(ctx context.Context, req ports.CompileRequest) (ports.CompileResult, error) {
	var result ports.CompileResult
	gen := gogen.New(req.Destination, req.Options)

	for _, file := range req.Files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		src, err := os.ReadFile(file.Path)
		if err != nil {
			return result, domain.NewIOError(file.Path, err)
		}
		doc, err := c.parser.Compile(file.Path, src)
		if err != nil {
			return result, domain.NewParseError(file.Path, err)
		}

		outputs, err := compileDocument(doc, req.Types, gen)
		result.Outputs = append(result.Outputs, outputs...)
		if err != nil {
			return result, wrapFileError(file.Path, err)
		}
	}
	return result, nil
}

// wrapFileError attributes err to path, keeping I/O failures distinct from parse failures.
func wrapFileError(path string, err error) error {
	if errors.Is(err, domain.ErrIO) {
		return err
	}
	return domain.NewParseError(path, err)
}
