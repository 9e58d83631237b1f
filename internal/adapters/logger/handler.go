package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/avrogen/internal/ui/output"
	"go.trai.ch/avrogen/internal/ui/style"
)

// Attribute keys the pretty handler renders as the location of a record
// instead of as key=value pairs.
const (
	FileKey      = "file"
	SourceDirKey = "source_dir"
)

// fileIndent lines up per-file records with the failure lines of the build summary.
const fileIndent = "    "

// PrettyHandler is a slog.Handler for terminals. Records carrying a file are
// rendered like the skipped-file lines of the build summary, records carrying
// only a source directory are prefixed with it.
type PrettyHandler struct {
	out   *termenv.Output
	level slog.Leveler
	attrs []slog.Attr
	group string
}

// NewPrettyHandler creates a new PrettyHandler writing to w, or stderr when w is nil.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &PrettyHandler{
		out:   output.New(w),
		level: level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes one line per record; multi-line messages keep their own layout.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var (
		loc   location
		extra []string
	)
	add := func(attr slog.Attr) bool {
		if !loc.take(h.group, attr) {
			extra = append(extra, formatAttr(h.group, attr))
		}
		return true
	}
	for _, attr := range h.attrs {
		add(attr)
	}
	r.Attrs(add)

	line := loc.prefix(r.Level) + r.Message
	if len(extra) > 0 {
		line += " " + strings.Join(extra, " ")
	}

	styled := h.out.String(line).Foreground(levelColor(r.Level))
	_, err := h.out.WriteString(styled.String() + "\n")
	return err
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append(make([]slog.Attr, 0, len(h.attrs)+len(attrs)), h.attrs...), attrs...)
	return &next
}

// WithGroup returns a new Handler with the given group name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.group = name
	return &next
}

// location is where a record points in the source tree.
type location struct {
	file      string
	sourceDir string
}

// take records attr when it names a location. Grouped attributes never do.
func (l *location) take(group string, attr slog.Attr) bool {
	if group != "" {
		return false
	}
	switch attr.Key {
	case FileKey:
		l.file = attr.Value.String()
	case SourceDirKey:
		l.sourceDir = attr.Value.String()
	default:
		return false
	}
	return true
}

func (l location) prefix(level slog.Level) string {
	icon := levelIcon(level)
	switch {
	case l.file != "":
		if icon == "" {
			icon = style.Dot
		}
		return fileIndent + icon + " " + l.file + ": "
	case l.sourceDir != "":
		if icon == "" {
			return l.sourceDir + ": "
		}
		return icon + " " + l.sourceDir + ": "
	case icon != "":
		return icon + " "
	default:
		return ""
	}
}

func levelIcon(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return style.Cross
	case level >= slog.LevelWarn:
		return style.Warning
	default:
		return ""
	}
}

func levelColor(level slog.Level) termenv.Color {
	switch {
	case level >= slog.LevelError:
		return termenv.RGBColor(string(style.Red))
	case level >= slog.LevelWarn:
		return termenv.RGBColor(string(style.Yellow))
	default:
		return termenv.RGBColor(string(style.Slate))
	}
}

func formatAttr(group string, attr slog.Attr) string {
	key := attr.Key
	if group != "" {
		key = group + "." + key
	}
	return key + "=" + attr.Value.String()
}
