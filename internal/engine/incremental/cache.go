// Package incremental decides whether a source directory must be recompiled.
package incremental

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"time"

	"go.trai.ch/avrogen/internal/core/domain"
	"go.trai.ch/avrogen/internal/core/ports"
	"go.trai.ch/zerr"
)

// Request describes one source directory compilation.
type Request struct {
	SourceDir   string
	Inputs      []string
	Destination string
	CacheDir    string
	Staleness   domain.StalenessMode
	Options     domain.CompileOptions
	Flags       domain.RegistryFlags
	// Types digests the named types visible to the compilation.
	Types string
	// Force skips the staleness check.
	Force bool
}

// Build is what one compilation of a directory wrote.
type Build struct {
	Produced []string
	// Failed are inputs that were skipped. An entry recording any is stale.
	Failed []string
}

// BuildFunc compiles the directory.
type BuildFunc func(ctx context.Context) (Build, error)

// Result is the outcome of Compile.
type Result struct {
	// Outputs are the generated files in the destination.
	Outputs []string
	// Hit reports that the recorded entry was still valid and nothing ran.
	Hit bool
}

// Cache records one entry per source directory and reuses it while the
// directory's inputs, options and outputs are unchanged.
type Cache struct {
	store    ports.CacheStore
	hasher   ports.ContentHasher
	verifier ports.Verifier
	now      func() time.Time
}

// New creates a new Cache.
func New(store ports.CacheStore, hasher ports.ContentHasher, verifier ports.Verifier) *Cache {
	return &Cache{
		store:    store,
		hasher:   hasher,
		verifier: verifier,
		now:      time.Now,
	}
}

// Compile returns the recorded outputs when the entry for req.SourceDir is
// valid. Otherwise it runs build, removes the files the previous build
// produced that this one did not, enumerates the destination and records a
// new entry. When build fails nothing is removed and no entry is written.
func (c *Cache) Compile(ctx context.Context, req Request, build BuildFunc) (Result, error) {
	optionsKey := c.OptionsKey(req.Options, req.Flags, req.Types)

	entry, err := c.store.Get(req.CacheDir, req.SourceDir)
	if err != nil && !errors.Is(err, domain.ErrCacheCorrupt) {
		return Result{}, zerr.With(err, "source_dir", req.SourceDir)
	}

	inputs, err := c.inputStates(req.Inputs, req.Staleness)
	if err != nil {
		return Result{}, err
	}

	if !req.Force && entry != nil {
		fresh, err := c.fresh(entry, inputs, optionsKey, req.Staleness)
		if err != nil {
			return Result{}, err
		}
		if fresh {
			return Result{Outputs: entry.Outputs, Hit: true}, nil
		}
	}

	out, err := build(ctx)
	if err != nil {
		return Result{}, err
	}
	produced := dedupe(out.Produced)

	if entry != nil {
		if err := removeStale(entry.Produced, produced); err != nil {
			return Result{}, err
		}
	}

	outputs, err := c.verifier.ListGenerated(req.Destination)
	if err != nil {
		return Result{}, zerr.With(zerr.Wrap(err, "failed to enumerate generated files"), "destination", req.Destination)
	}

	next := domain.CacheEntry{
		SourceDir:  req.SourceDir,
		Inputs:     inputs,
		OptionsKey: optionsKey,
		Produced:   produced,
		Failed:     dedupe(out.Failed),
		Outputs:    outputs,
		CompiledAt: c.now().UTC(),
	}
	if err := c.store.Put(req.CacheDir, next); err != nil {
		return Result{}, zerr.With(err, "source_dir", req.SourceDir)
	}
	return Result{Outputs: outputs}, nil
}

// OptionsKey digests everything besides the inputs that affects generated code.
func (c *Cache) OptionsKey(opts domain.CompileOptions, flags domain.RegistryFlags, types string) string {
	return c.hasher.HashString(opts.Fingerprint() + "\x00" +
		strconv.FormatBool(flags.ValidateNames) + "\x00" +
		strconv.FormatBool(flags.ValidateDefaults) + "\x00" +
		types)
}

func (c *Cache) inputStates(paths []string, mode domain.StalenessMode) (map[string]domain.InputState, error) {
	states := make(map[string]domain.InputState, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, domain.NewIOError(path, err)
		}
		state := domain.InputState{ModTime: info.ModTime().UnixNano()}
		if mode == domain.StalenessContent {
			digest, err := c.hasher.HashFile(path)
			if err != nil {
				return nil, domain.NewIOError(path, err)
			}
			state.Digest = digest
		}
		states[path] = state
	}
	return states, nil
}

// fresh reports whether entry still describes the directory.
func (c *Cache) fresh(
	entry *domain.CacheEntry,
	inputs map[string]domain.InputState,
	optionsKey string,
	mode domain.StalenessMode,
) (bool, error) {
	if entry.OptionsKey != optionsKey || len(entry.Inputs) != len(inputs) || len(entry.Failed) > 0 {
		return false, nil
	}
	for path, current := range inputs {
		recorded, ok := entry.Inputs[path]
		if !ok || current.ModTime > recorded.ModTime {
			return false, nil
		}
		if mode == domain.StalenessContent && current.Digest != recorded.Digest {
			return false, nil
		}
	}

	ok, err := c.verifier.VerifyOutputs(entry.Outputs)
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to verify outputs"), "source_dir", entry.SourceDir)
	}
	return ok, nil
}

// removeStale deletes the previously produced files that keep is missing.
// keep must be sorted.
func removeStale(previous, keep []string) error {
	for _, path := range previous {
		if _, found := slices.BinarySearch(keep, path); found {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return domain.NewIOError(path, err)
		}
	}
	return nil
}

func dedupe(paths []string) []string {
	out := slices.Clone(paths)
	slices.Sort(out)
	return slices.Compact(out)
}
