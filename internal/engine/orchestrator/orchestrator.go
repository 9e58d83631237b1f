// Package orchestrator compiles one source directory: it scans the directory,
// consults the incremental cache and runs the format compilers in order.
package orchestrator

import (
	"context"

	"go.trai.ch/avrogen/internal/core/domain"
	"go.trai.ch/avrogen/internal/core/ports"
	"go.trai.ch/avrogen/internal/core/registry"
	"go.trai.ch/avrogen/internal/engine/incremental"
	"go.trai.ch/zerr"
)

// Request describes the compilation of one source directory.
type Request struct {
	SourceDir   string
	Destination string
	CacheDir    string
	Staleness   domain.StalenessMode
	Options     domain.CompileOptions
	Force       bool
}

// Result is the outcome of compiling one source directory.
type Result struct {
	SourceDir string
	// Outputs are the generated files in the destination after the run.
	Outputs []string
	// Cached reports that no compiler ran.
	Cached bool
	// Failures are the source files that were skipped.
	Failures []ports.FileFailure
}

// Orchestrator runs the compilation pipeline for source directories.
type Orchestrator struct {
	scanner   ports.Scanner
	cache     *incremental.Cache
	compilers map[domain.Format]ports.Compiler
	types     *registry.Shared
	logger    ports.Logger
	metrics   ports.Metrics
	tracer    ports.Tracer
}

// New creates a new Orchestrator. Compilers are dispatched by their format.
func New(
	scanner ports.Scanner,
	cache *incremental.Cache,
	compilers []ports.Compiler,
	types *registry.Shared,
	logger ports.Logger,
	metrics ports.Metrics,
	tracer ports.Tracer,
) *Orchestrator {
	byFormat := make(map[domain.Format]ports.Compiler, len(compilers))
	for _, c := range compilers {
		byFormat[c.Format()] = c
	}
	return &Orchestrator{
		scanner:   scanner,
		cache:     cache,
		compilers: byFormat,
		types:     types,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
	}
}

// Registry returns the shared type registry compilations take snapshots of.
func (o *Orchestrator) Registry() *registry.Shared {
	return o.types
}

// CompileDir compiles every Avro source under req.SourceDir unless the
// recorded cache entry is still valid.
func (o *Orchestrator) CompileDir(ctx context.Context, req Request) (Result, error) {
	ctx, span := o.tracer.Start(ctx, "compile "+req.SourceDir)
	defer span.End()
	span.SetAttribute("source_dir", req.SourceDir)

	scan := o.scanner.Scan(req.SourceDir)
	files := scan.All()
	inputs := make([]string, 0, len(files))
	for _, f := range files {
		inputs = append(inputs, f.Path)
	}

	// Snapshot once so the cache key describes exactly the types compiled against.
	types := o.types.Snapshot()

	var failures []ports.FileFailure
	res, err := o.cache.Compile(ctx, incremental.Request{
		SourceDir:   req.SourceDir,
		Inputs:      inputs,
		Destination: req.Destination,
		CacheDir:    req.CacheDir,
		Staleness:   req.Staleness,
		Options:     req.Options,
		Flags:       types.Flags(),
		Types:       types.Digest(),
		Force:       req.Force,
	}, func(ctx context.Context) (incremental.Build, error) {
		produced, failed, err := o.build(ctx, req, scan, types)
		if err != nil {
			return incremental.Build{}, err
		}
		failures = failed
		out := incremental.Build{Produced: produced}
		for _, f := range failed {
			out.Failed = append(out.Failed, f.Path)
		}
		return out, nil
	})
	if err != nil {
		span.RecordError(err)
		return Result{}, zerr.With(err, "source_dir", req.SourceDir)
	}
	o.metrics.CacheLookup(res.Hit)
	span.SetAttribute("inputs", len(inputs))
	span.SetAttribute("cached", res.Hit)
	span.SetAttribute("outputs", len(res.Outputs))

	return Result{
		SourceDir: req.SourceDir,
		Outputs:   res.Outputs,
		Cached:    res.Hit,
		Failures:  failures,
	}, nil
}

func (o *Orchestrator) build(
	ctx context.Context,
	req Request,
	scan domain.ScanResult,
	types *registry.Registry,
) ([]string, []ports.FileFailure, error) {
	var (
		produced []string
		failures []ports.FileFailure
	)
	for _, format := range domain.CompileOrder {
		files := scan.Files(format)
		if len(files) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		compiler, ok := o.compilers[format]
		if !ok {
			return nil, nil, zerr.With(domain.ErrUnsupportedFormat, "format", format.String())
		}

		o.metrics.CompilerInvoked(format)
		out, err := o.compile(ctx, compiler, ports.CompileRequest{
			SourceRoot:  req.SourceDir,
			Files:       files,
			Destination: req.Destination,
			Options:     req.Options,
			Types:       types,
		})
		if err != nil {
			return nil, nil, err
		}

		for _, failure := range out.Failures {
			o.metrics.FileFailed(format)
			o.logger.Error(zerr.With(failure.Err, "source_dir", req.SourceDir))
		}
		failures = append(failures, out.Failures...)
		produced = append(produced, out.Outputs...)
	}
	return produced, failures, nil
}

func (o *Orchestrator) compile(ctx context.Context, c ports.Compiler, req ports.CompileRequest) (ports.CompileResult, error) {
	ctx, span := o.tracer.Start(ctx, "compile."+c.Format().String())
	defer span.End()
	span.SetAttribute("files", len(req.Files))

	out, err := c.Compile(ctx, req)
	if err != nil {
		span.RecordError(err)
		return out, err
	}
	span.SetAttribute("outputs", len(out.Outputs))
	span.SetAttribute("failures", len(out.Failures))
	return out, nil
}
