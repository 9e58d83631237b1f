package domain

import (
	"slices"
	"time"
)

// InputState records what the cache knew about one input file.
type InputState struct {
	ModTime int64  `json:"mod_time"`
	Digest  string `json:"digest,omitempty"`
}

// CacheEntry is the stored result of compiling one source directory.
// Entries are replaced wholesale and never partially updated.
type CacheEntry struct {
	SourceDir  string                `json:"source_dir"`
	Inputs     map[string]InputState `json:"inputs"`
	OptionsKey string                `json:"options_key"`
	// Produced lists the files the compilers reported writing.
	Produced []string `json:"produced"`
	// Failed lists inputs the compilers skipped; they are retried on the next run.
	Failed []string `json:"failed,omitempty"`
	// Outputs lists every generated file found in the destination after compiling.
	Outputs    []string  `json:"outputs"`
	CompiledAt time.Time `json:"compiled_at"`
}

// InputPaths returns the recorded input paths in sorted order.
func (e *CacheEntry) InputPaths() []string {
	paths := make([]string, 0, len(e.Inputs))
	for p := range e.Inputs {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}
