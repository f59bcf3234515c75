package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"

	"github.com/macropower/xlclean/pkg/theme"
)

// RenderOptions controls [Render].
type RenderOptions struct {
	OutputPath string
	// OutputSize is the size of the written file in bytes, 0 if unknown.
	OutputSize int64
	// DryRun reports that no output was written.
	DryRun bool
	// Plain disables colors and text styles.
	Plain bool
	// Theme defaults to [theme.Default].
	Theme *theme.Theme
}

type styles struct {
	title   lipgloss.Style
	section lipgloss.Style
	label   lipgloss.Style
	count   lipgloss.Style
	warn    lipgloss.Style
	subtle  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, t *theme.Theme) styles {
	return styles{
		title:   t.TitleStyle.Renderer(r),
		section: t.SectionStyle.Renderer(r),
		label:   t.LabelStyle.Renderer(r),
		count:   t.CountStyle.Renderer(r),
		warn:    t.WarnStyle.Renderer(r),
		subtle:  t.SubtleStyle.Renderer(r),
	}
}

// Render writes a human-readable summary of r to w.
func Render(w io.Writer, r Report, opts RenderOptions) error {
	renderer := lipgloss.NewRenderer(w)
	if opts.Plain {
		renderer.SetColorProfile(termenv.Ascii)
	}

	t := opts.Theme
	if t == nil {
		t = theme.Default
	}

	s := newStyles(renderer, t)
	b := &strings.Builder{}

	if opts.DryRun {
		b.WriteString(s.title.Render("✓ Dry run completed, no file was written."))
	} else {
		b.WriteString(s.title.Render("✓ Cleaning completed successfully!"))
	}

	b.WriteString("\n\n")

	countLine := func(label string, n int) {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			s.label.Render(label),
			s.count.Render(humanize.Comma(int64(n))),
		))
		b.WriteString("\n")
	}

	countLine("Original rows", r.OriginalCount)
	countLine("Rows removed", r.RemovedCount)
	countLine("Remaining rows", r.RemainingCount)

	applied := make([]RuleStat, 0, len(r.Rules))
	for _, rs := range r.Rules {
		if !rs.Skipped {
			applied = append(applied, rs)
		}
	}

	if len(applied) > 0 {
		b.WriteString("\n")
		b.WriteString(s.section.Render("Removed by rule"))
		b.WriteString("\n")

		for _, rs := range applied {
			countLine(fmt.Sprintf("  %s (%s)", rs.Name, rs.Column), rs.Removed)
		}
	}

	if len(r.Diagnostics) > 0 {
		b.WriteString("\n")
		b.WriteString(s.section.Render("Warnings"))
		b.WriteString("\n")

		for _, d := range r.Diagnostics {
			b.WriteString(s.warn.Render("! " + d.String()))
			b.WriteString("\n")
		}
	}

	if opts.OutputPath != "" && !opts.DryRun {
		b.WriteString("\n")
		b.WriteString(s.section.Render("Cleaned file saved to:"))
		b.WriteString("\n    ")
		b.WriteString(opts.OutputPath)

		if opts.OutputSize > 0 {
			//nolint:gosec // G115: file sizes are non-negative.
			b.WriteString(s.subtle.Render(fmt.Sprintf(" (%s)", humanize.Bytes(uint64(opts.OutputSize)))))
		}

		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}
