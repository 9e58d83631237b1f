package fs

import (
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/avrogen/internal/core/domain"
	"go.trai.ch/avrogen/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.InputResolver = (*Resolver)(nil)

// Resolver expands import patterns with filepath.Glob.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// ResolveInputs expands the patterns into a sorted, de-duplicated list of files.
// Relative patterns are resolved against root and directories among the matches
// are skipped. A pattern matching no file is an invalid configuration, so a
// misspelled import is reported rather than silently ignored.
func (r *Resolver) ResolveInputs(patterns []string, root string) ([]string, error) {
	var paths []string

	for _, pattern := range patterns {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(root, pattern)
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "malformed import pattern"), "pattern", pattern)
		}

		found := false
		for _, match := range matches {
			if info, err := os.Stat(match); err != nil || info.IsDir() {
				continue
			}
			paths = append(paths, match)
			found = true
		}
		if !found {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "import matches no file"), "pattern", pattern)
		}
	}

	slices.Sort(paths)
	return slices.Compact(paths), nil
}
