package commands

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/avrogen/internal/app"
	"go.trai.ch/avrogen/internal/ui/output"
	"go.trai.ch/avrogen/internal/ui/style"
)

func renderer(w io.Writer) *lipgloss.Renderer {
	return lipgloss.NewRenderer(w, termenv.WithProfile(output.ColorProfile()))
}

func printSummary(w io.Writer, s *app.Summary) {
	r := renderer(w)
	success := r.NewStyle().Foreground(style.Green)
	failure := r.NewStyle().Foreground(style.Red)
	muted := r.NewStyle().Foreground(style.Slate)
	title := r.NewStyle().Bold(true).Foreground(style.Iris)

	cached := 0
	for _, d := range s.Dirs {
		icon, note := success.Render(style.Check), ""
		if d.Cached {
			cached++
			icon, note = muted.Render(style.Tilde), muted.Render(" (cached)")
		}
		if len(d.Failures) > 0 {
			icon = failure.Render(style.Cross)
		}
		_, _ = fmt.Fprintf(w, "%s %s %s%s\n", icon, d.SourceDir, muted.Render(plural(d.Outputs, "file")), note)
		for _, f := range d.Failures {
			_, _ = fmt.Fprintf(w, "    %s %s: %s\n", failure.Render(style.Cross), f.Path, f.Error)
		}
	}

	line := fmt.Sprintf("Generated %s from %s", plural(len(s.Outputs), "file"), plural(len(s.Dirs), "directory"))
	if cached > 0 {
		line += fmt.Sprintf(", %d cached", cached)
	}
	if n := s.FailureCount(); n > 0 {
		line += ", " + failure.Render(plural(n, "file")+" skipped")
	}
	_, _ = fmt.Fprintln(w, title.Render(line))
}

func printError(w io.Writer, err error) {
	r := renderer(w)
	_, _ = fmt.Fprintf(w, "%s build failed: %s\n", r.NewStyle().Foreground(style.Red).Render(style.Cross), err)
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	if noun == "directory" {
		return fmt.Sprintf("%d directories", n)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
