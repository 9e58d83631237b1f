package compiler

import (
	"context"
	"os"

	"go.trai.ch/avrogen/internal/adapters/avro/avpr"
	"go.trai.ch/avrogen/internal/adapters/avro/gogen"
	"go.trai.ch/avrogen/internal/core/domain"
	"go.trai.ch/avrogen/internal/core/ports"
)

var _ ports.Compiler = (*ProtocolCompiler)(nil)

// ProtocolCompiler compiles .avpr documents. Any failure aborts the request.
type ProtocolCompiler struct{}

// NewProtocolCompiler creates a new ProtocolCompiler.
func NewProtocolCompiler() *ProtocolCompiler {
	return &ProtocolCompiler{}
}

// Format implements ports.Compiler.
func (c *ProtocolCompiler) Format() domain.Format {
	return domain.FormatProtocol
}

// Compile implements ports.Compiler.
func (c *ProtocolCompiler) Compile(ctx context.Context, req ports.CompileRequest) (ports.CompileResult, error) {
	var result ports.CompileResult
	gen := gogen.New(req.Destination, req.Options)

	for _, file := range req.Files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		data, err := os.ReadFile(file.Path)
		if err != nil {
			return result, domain.NewIOError(file.Path, err)
		}
		doc, err := avpr.Decode(data)
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
