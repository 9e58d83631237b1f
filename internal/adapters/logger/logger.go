// Package logger implements a logging adapter using log/slog.
package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/avrogen/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Logger = (*Logger)(nil)

// ErrorEntry is one link of an error chain as rendered in pretty mode.
type ErrorEntry struct {
	Message  string
	Metadata map[string]any
}

// Logger implements ports.Logger using log/slog.
type Logger struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	jsonMode bool
	output   io.Writer
}

// New creates a new Logger writing pretty output to stderr.
func New() *Logger {
	return &Logger{
		logger: slog.New(NewPrettyHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})),
		output: os.Stderr,
	}
}

// SetOutput updates the logger's output destination, keeping the current mode.
// If w is nil, os.Stderr is used.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	l.output = w
	l.logger = slog.New(l.handler())
}

// SetJSON switches between JSON and pretty logging.
func (l *Logger) SetJSON(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.jsonMode = enable
	l.logger = slog.New(l.handler())
}

func (l *Logger) handler() slog.Handler {
	w := l.output
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if l.jsonMode {
		return slog.NewJSONHandler(w, opts)
	}
	return NewPrettyHandler(w, opts)
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs an error. The innermost "file" and any "source_dir" metadata of
// the chain become the record's location. In pretty mode the rest of the zerr
// chain is rendered as a "Caused by" list with each link's metadata underneath it.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}

	entries := collectErrorEntries(err)
	attrs := liftLocation(entries)

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.jsonMode {
		l.logger.Error("operation failed", append([]any{"error", err}, attrs...)...)
		return
	}

	l.logger.Error(formatErrorEntries(entries), attrs...)
}

// liftLocation removes the location keys from the entries' metadata and
// returns them as slog attributes.
func liftLocation(entries []ErrorEntry) []any {
	var file, sourceDir string
	for i := len(entries) - 1; i >= 0; i-- {
		meta := entries[i].Metadata
		f, hasFile := meta[FileKey]
		d, hasDir := meta[SourceDirKey]
		if !hasFile && !hasDir {
			continue
		}
		if hasFile && file == "" {
			file = fmt.Sprint(f)
		}
		if hasDir && sourceDir == "" {
			sourceDir = fmt.Sprint(d)
		}
		meta = maps.Clone(meta)
		delete(meta, FileKey)
		delete(meta, SourceDirKey)
		entries[i].Metadata = meta
	}

	var attrs []any
	if file != "" {
		attrs = append(attrs, slog.String(FileKey, file))
	}
	if sourceDir != "" {
		attrs = append(attrs, slog.String(SourceDirKey, sourceDir))
	}
	return attrs
}

// collectErrorEntries walks the chain while links are zerr errors. A plain error ends the
// walk with its full text. Links without a message of their own (metadata carriers created
// by zerr.With) contribute their metadata to the next link.
func collectErrorEntries(err error) []ErrorEntry {
	var entries []ErrorEntry
	var pending map[string]any

	for current := err; current != nil; {
		z, ok := current.(*zerr.Error)
		if !ok {
			entries = append(entries, ErrorEntry{Message: current.Error(), Metadata: pending})
			break
		}

		meta := z.Metadata()
		if pending != nil {
			merged := maps.Clone(pending)
			maps.Copy(merged, meta)
			meta = merged
			pending = nil
		}

		if z.Message() == "" {
			pending = meta
		} else {
			entries = append(entries, ErrorEntry{Message: z.Message(), Metadata: meta})
		}
		current = errors.Unwrap(current)
	}

	return entries
}

func formatErrorEntries(entries []ErrorEntry) string {
	var lines []string

	for i, entry := range entries {
		msgLines := strings.Split(entry.Message, "\n")
		lead, indent := "    → ", "      "
		if i == 0 {
			lead, indent = "Error: ", "       "
		} else if i == 1 {
			lines = append(lines, "", "  Caused by:")
		}

		lines = append(lines, lead+msgLines[0])
		for _, line := range msgLines[1:] {
			lines = append(lines, indent+line)
		}
		for _, key := range slices.Sorted(maps.Keys(entry.Metadata)) {
			lines = append(lines, fmt.Sprintf("%s%s: %v", indent, key, entry.Metadata[key]))
		}
	}

	return strings.Join(lines, "\n")
}
