// Package app implements the application layer for avrogen.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"go.trai.ch/avrogen/internal/adapters/watcher"
	"go.trai.ch/avrogen/internal/core/domain"
	"go.trai.ch/avrogen/internal/core/ports"
	"go.trai.ch/avrogen/internal/core/registry"
	"go.trai.ch/avrogen/internal/engine/orchestrator"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader   ports.ConfigLoader
	orchestrator   *orchestrator.Orchestrator
	importer       ports.Compiler
	resolver       ports.InputResolver
	store          ports.CacheStore
	watcher        ports.Watcher
	logger         ports.Logger
	metrics        ports.Metrics
	debounceWindow time.Duration
}

// New creates a new App instance. Import schemas are compiled with the
// flat-schema compiler from compilers.
func New(
	loader ports.ConfigLoader,
	orch *orchestrator.Orchestrator,
	compilers []ports.Compiler,
	resolver ports.InputResolver,
	store ports.CacheStore,
	w ports.Watcher,
	log ports.Logger,
	m ports.Metrics,
) *App {
	a := &App{
		configLoader:   loader,
		orchestrator:   orch,
		resolver:       resolver,
		store:          store,
		watcher:        w,
		logger:         log,
		metrics:        m,
		debounceWindow: watcher.DefaultDebounceWindow,
	}
	for _, c := range compilers {
		if c.Format() == domain.FormatFlatSchema {
			a.importer = c
		}
	}
	return a
}

// WithDebounceWindow sets how long watch mode waits for changes to settle.
func (a *App) WithDebounceWindow(d time.Duration) *App {
	a.debounceWindow = d
	return a
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	// ConfigPath is the configuration file. Empty searches upwards from the working directory.
	ConfigPath string
	// Force recompiles every source directory regardless of the cache.
	Force bool
}

// Summary describes one build over all source directories.
type Summary struct {
	Dirs []DirSummary `json:"dirs"`
	// Outputs are the generated files of every directory, sorted.
	Outputs []string `json:"outputs"`
}

// DirSummary is the outcome for one source directory.
type DirSummary struct {
	SourceDir string    `json:"sourceDir"`
	Cached    bool      `json:"cached"`
	Outputs   int       `json:"outputs"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Failure is a source file that was skipped.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// FailureCount returns the number of skipped files over all directories.
func (s *Summary) FailureCount() int {
	n := 0
	for _, d := range s.Dirs {
		n += len(d.Failures)
	}
	return n
}

// Run compiles every configured source directory and returns what was generated.
// A directory that fails does not stop the others; their errors are joined.
func (a *App) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	cfg, err := a.load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if _, err := a.prepare(ctx, cfg); err != nil {
		return nil, err
	}

	return a.build(ctx, cfg, opts.Force)
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	ConfigPath string
	// All also removes the destination directory.
	All bool
}

// Clean resets the type registry and removes the cache store.
func (a *App) Clean(_ context.Context, opts CleanOptions) error {
	cfg, err := a.load(opts.ConfigPath)
	if err != nil {
		return err
	}

	a.orchestrator.Registry().Reset()

	var errs error
	a.logger.Info("removing cache store...")
	if err := a.store.Clear(cfg.CacheDir); err != nil {
		errs = errors.Join(errs, err)
	} else {
		a.logger.Info("removed cache store")
	}

	if opts.All {
		a.logger.Info("removing generated sources...")
		if err := os.RemoveAll(cfg.Destination); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "failed to remove destination"), "path", cfg.Destination))
		} else {
			a.logger.Info("removed generated sources")
		}
	}

	return errs
}

// WatchOptions configuration for the Watch method.
type WatchOptions struct {
	ConfigPath string
}

// Watch builds once, then rebuilds whenever an Avro source under a source
// directory or an import changes. report receives the outcome of every build.
// A change to an import resets the registry, republishes the imports and
// recompiles every directory. Watch returns when ctx is cancelled.
func (a *App) Watch(ctx context.Context, opts WatchOptions, report func(*Summary, error)) error {
	cfg, err := a.load(opts.ConfigPath)
	if err != nil {
		return err
	}

	imports, err := a.prepare(ctx, cfg)
	if err != nil {
		return err
	}
	report(a.build(ctx, cfg, false))

	roots := slices.Clone(cfg.SourceDirs)
	for _, path := range imports {
		roots = append(roots, filepath.Dir(path))
	}
	slices.Sort(roots)
	roots = slices.Compact(roots)

	if err := a.watcher.Start(ctx, roots...); err != nil {
		return err
	}

	batches := make(chan []string)
	debouncer := watcher.NewDebouncer(a.debounceWindow, func(paths []string) {
		select {
		case batches <- paths:
		case <-ctx.Done():
		}
	})

	var wg sync.WaitGroup
	wg.Go(func() {
		for event := range a.watcher.Events() {
			if domain.FormatFromPath(event.Path) != domain.FormatUnknown {
				debouncer.Add(event.Path)
			}
		}
	})
	defer func() {
		// Events ends once the watcher is stopped.
		if err := a.watcher.Stop(); err != nil {
			a.logger.Warn("failed to stop file watcher: " + err.Error())
		}
		wg.Wait()
		debouncer.Stop()
	}()

	a.logger.Info(fmt.Sprintf("watching %d directories for changes", len(roots)))
	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-batches:
			force := false
			if touchesImports(cfg, imports, paths) {
				a.logger.Info("imports changed, republishing types")
				next, err := a.prepare(ctx, cfg)
				if err != nil {
					report(nil, err)
					continue
				}
				imports = next
				force = true
			}
			report(a.build(ctx, cfg, force))
		}
	}
}

func (a *App) load(path string) (*domain.Config, error) {
	cfg, err := a.configLoader.Load(path)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return cfg, nil
}

// prepare resets the registry with the configured flags and publishes the
// types of every import schema. It returns the resolved import paths.
func (a *App) prepare(ctx context.Context, cfg *domain.Config) ([]string, error) {
	shared := a.orchestrator.Registry()
	shared.ResetWithFlags(cfg.Flags)
	if len(cfg.Imports) == 0 {
		return nil, nil
	}

	paths, err := a.resolver.ResolveInputs(cfg.Imports, cfg.Root)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve imports")
	}
	files := make([]domain.SchemaFile, 0, len(paths))
	for _, path := range paths {
		file := domain.NewSchemaFile(path)
		if file.Format != domain.FormatFlatSchema {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "imports must be flat schemas"), "path", path)
		}
		files = append(files, file)
	}
	if a.importer == nil {
		return nil, zerr.With(domain.ErrUnsupportedFormat, "format", domain.FormatFlatSchema.String())
	}

	// Imports live outside the source directories, so their layout is not checked.
	opts := cfg.Options
	opts.UseNamespace = false

	types := registry.New(cfg.Flags)
	a.metrics.CompilerInvoked(domain.FormatFlatSchema)
	res, err := a.importer.Compile(ctx, ports.CompileRequest{
		SourceRoot:  cfg.Root,
		Files:       files,
		Destination: cfg.Destination,
		Options:     opts,
		Types:       types,
	})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to compile imports")
	}
	for _, failure := range res.Failures {
		a.metrics.FileFailed(domain.FormatFlatSchema)
		a.logger.Error(zerr.Wrap(failure.Err, "import skipped"))
	}

	published := make([]string, 0, types.Len())
	for _, name := range types.Names() {
		schema, _ := types.Lookup(name)
		if err := shared.Publish(schema); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to publish import"), "type", name)
		}
		published = append(published, name)
	}
	a.logger.Info(fmt.Sprintf("published %d imported types", len(published)))
	return paths, nil
}

// build compiles the source directories with bounded parallelism and writes
// the metrics textfile when one is configured.
func (a *App) build(ctx context.Context, cfg *domain.Config, force bool) (*Summary, error) {
	results := make([]orchestrator.Result, len(cfg.SourceDirs))
	errs := make([]error, len(cfg.SourceDirs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Parallelism, 1))
	for i, dir := range cfg.SourceDirs {
		g.Go(func() error {
			results[i], errs[i] = a.orchestrator.CompileDir(ctx, orchestrator.Request{
				SourceDir:   dir,
				Destination: cfg.Destination,
				CacheDir:    cfg.CacheDir,
				Staleness:   cfg.Staleness,
				Options:     cfg.Options,
				Force:       force,
			})
			return nil
		})
	}
	_ = g.Wait()

	summary := &Summary{}
	for i, res := range results {
		if errs[i] != nil {
			continue
		}
		dir := DirSummary{SourceDir: res.SourceDir, Cached: res.Cached, Outputs: len(res.Outputs)}
		for _, f := range res.Failures {
			dir.Failures = append(dir.Failures, Failure{Path: f.Path, Error: f.Err.Error()})
		}
		summary.Dirs = append(summary.Dirs, dir)
		summary.Outputs = append(summary.Outputs, res.Outputs...)
	}
	slices.Sort(summary.Outputs)
	summary.Outputs = slices.Compact(summary.Outputs)

	if cfg.MetricsFile != "" {
		if err := a.metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			a.logger.Warn("failed to write metrics: " + err.Error())
		}
	}

	return summary, errors.Join(errs...)
}

// touchesImports reports whether any changed path is, or could become, an import.
func touchesImports(cfg *domain.Config, imports, paths []string) bool {
	for _, path := range paths {
		if slices.Contains(imports, path) {
			return true
		}
		for _, pattern := range cfg.Imports {
			if !filepath.IsAbs(pattern) {
				pattern = filepath.Join(cfg.Root, pattern)
			}
			if ok, _ := filepath.Match(pattern, path); ok {
				return true
			}
		}
	}
	return false
}
