package ports

import (
	"context"

	"go.trai.ch/avrogen/internal/core/domain"
	"go.trai.ch/avrogen/internal/core/registry"
)

// CompileRequest is the input of one format compiler invocation.
type CompileRequest struct {
	// SourceRoot is the source directory the files were discovered under.
	SourceRoot  string
	Files       []domain.SchemaFile
	Destination string
	Options     domain.CompileOptions
	// Types is the registry snapshot owned by the current run. Compilers may add to it.
	Types *registry.Registry
}

// FileFailure records a source file that could not be compiled.
type FileFailure struct {
	Path string
	Err  error
}

// CompileResult is the output of one format compiler invocation.
type CompileResult struct {
	// Outputs are the generated files, in the order they were written.
	Outputs  []string
	Failures []FileFailure
}

// Compiler translates Avro source files of a single format into Go source.
//
//go:generate go run go.uber.org/mock/mockgen -source=compiler.go -destination=mocks/mock_compiler.go -package=mocks
type Compiler interface {
	// Format returns the source format this compiler handles.
	Format() domain.Format

	// Compile translates the requested files. A returned error aborts the
	// current source directory; per-file failures that the compiler isolates
	// are reported in the result instead.
	Compile(ctx context.Context, req CompileRequest) (CompileResult, error)
}
