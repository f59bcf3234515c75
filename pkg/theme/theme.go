// Package theme derives terminal styles from a chroma syntax style, so the
// report, the file picker and highlighted YAML share one palette.
package theme

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Auto selects a light or dark style from the terminal background.
const Auto = "auto"

type Theme struct {
	TitleStyle   lipgloss.Style
	SectionStyle lipgloss.Style
	LabelStyle   lipgloss.Style
	CountStyle   lipgloss.Style
	WarnStyle    lipgloss.Style
	ErrorStyle   lipgloss.Style
	SubtleStyle  lipgloss.Style
	// SelectedStyle marks the focused item in interactive prompts.
	SelectedStyle lipgloss.Style

	ChromaStyle *chroma.Style
}

// Default uses the terminal background to pick a style.
var Default = New(Auto)

// New builds a [Theme] from a chroma style name. "dark", "light" and "auto"
// are shorthands; unknown names fall back to chroma's fallback style.
func New(name string) *Theme {
	cs := newChromaStyle(name)

	return &Theme{
		TitleStyle: lipgloss.NewStyle().
			Foreground(cs.fg(chroma.GenericInserted, chroma.NameTag)).
			Bold(true),
		SectionStyle: lipgloss.NewStyle().
			Foreground(cs.fg(chroma.NameTag)).
			Bold(true).
			MarginLeft(2),
		LabelStyle: lipgloss.NewStyle().
			Width(22).
			MarginLeft(2),
		CountStyle: lipgloss.NewStyle().
			Width(10).
			Align(lipgloss.Right).
			Foreground(cs.fg(chroma.LiteralNumber)),
		WarnStyle: lipgloss.NewStyle().
			Foreground(cs.fg(chroma.GenericEmph, chroma.Keyword)).
			MarginLeft(4),
		ErrorStyle: lipgloss.NewStyle().
			Foreground(cs.fg(chroma.GenericDeleted, chroma.Error)).
			Bold(true),
		SubtleStyle: lipgloss.NewStyle().
			Foreground(cs.fg(chroma.Comment)),
		SelectedStyle: lipgloss.NewStyle().
			Foreground(cs.fg(chroma.NameTag)),

		ChromaStyle: cs.style,
	}
}

// Highlight writes source, tokenized by the named chroma lexer, to w with
// 256-color escapes.
func (t *Theme) Highlight(w io.Writer, source, lexer string) error {
	l := lexers.Get(lexer)
	if l == nil {
		l = lexers.Fallback
	}

	it, err := chroma.Coalesce(l).Tokenise(nil, source)
	if err != nil {
		return fmt.Errorf("tokenise %s: %w", lexer, err)
	}

	err = formatters.TTY256.Format(w, t.ChromaStyle, it)
	if err != nil {
		return fmt.Errorf("format %s: %w", lexer, err)
	}

	return nil
}

type chromaStyle struct {
	style *chroma.Style
}

func newChromaStyle(name string) chromaStyle {
	s := styles.Get(resolve(name))
	if s == nil {
		s = styles.Fallback
	}

	return chromaStyle{style: s}
}

// fg returns the foreground of the first token type the style colors.
func (cs chromaStyle) fg(types ...chroma.TokenType) lipgloss.TerminalColor {
	for _, tt := range types {
		entry := cs.style.Get(tt)
		if entry.Colour.IsSet() { //nolint:misspell // Chroma naming.
			return lipgloss.Color(entry.Colour.String()) //nolint:misspell // Chroma naming.
		}
	}

	return lipgloss.NoColor{}
}

func resolve(name string) string {
	switch name {
	case "dark":
		return "github-dark"
	case "light":
		return "github"
	case Auto, "":
		return detect()
	default:
		return name
	}
}

func detect() string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return "github"
	}
	if termenv.HasDarkBackground() {
		return "github-dark"
	}

	return "github"
}
