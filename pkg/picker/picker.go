// Package picker chooses the workbook to clean, either from a fixed path or
// through an interactive file browser.
package picker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/macropower/xlclean/pkg/sheet"
	"github.com/macropower/xlclean/pkg/theme"
)

var (
	// ErrCancelled indicates that no file was selected.
	ErrCancelled = errors.New("no file selected")
	// ErrNotInteractive indicates that a prompt was needed but stdin is not a
	// terminal.
	ErrNotInteractive = errors.New("not running interactively, pass the file path as an argument")
)

// Provider supplies the path of the workbook to clean.
type Provider interface {
	PickPath(ctx context.Context) (string, error)
}

// Static always returns the same path. An empty path is treated as a
// cancelled selection.
type Static string

func (s Static) PickPath(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrCancelled
	}

	return string(s), nil
}

// Interactive asks the user to pick an .xlsx file in a terminal file browser.
type Interactive struct {
	in        io.Reader
	out       io.Writer
	theme     *theme.Theme
	isTTY     func() bool
	directory string
	title     string
	height    int
}

// Opt configures an [Interactive] picker.
type Opt func(*Interactive)

// WithDirectory sets the starting directory. Empty means the working
// directory.
func WithDirectory(dir string) Opt {
	return func(p *Interactive) {
		p.directory = dir
	}
}

// WithTheme sets the prompt theme.
func WithTheme(t *theme.Theme) Opt {
	return func(p *Interactive) {
		p.theme = t
	}
}

// WithIO replaces the terminal streams. The picker only runs when isTTY
// reports true.
func WithIO(in io.Reader, out io.Writer, isTTY func() bool) Opt {
	return func(p *Interactive) {
		p.in = in
		p.out = out
		p.isTTY = isTTY
	}
}

// NewInteractive creates an [Interactive] picker reading stdin and drawing on
// stderr.
func NewInteractive(opts ...Opt) *Interactive {
	p := &Interactive{
		in:     os.Stdin,
		out:    os.Stderr,
		theme:  theme.Default,
		title:  "Select the Excel file to clean",
		height: 15,
		isTTY: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// PickPath runs the file browser. Aborting with ctrl+c or escape, or
// confirming nothing, returns [ErrCancelled].
func (p *Interactive) PickPath(ctx context.Context) (string, error) {
	if !p.isTTY() {
		return "", ErrNotInteractive
	}

	dir := p.directory
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}

		dir = wd
	}

	var path string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewFilePicker().
				Title(p.title).
				Description("Only "+sheet.Extension+" files are shown.").
				CurrentDirectory(dir).
				AllowedTypes([]string{sheet.Extension, strings.ToUpper(sheet.Extension)}).
				FileAllowed(true).
				DirAllowed(false).
				ShowHidden(false).
				Picking(true).
				Height(p.height).
				Value(&path),
		),
	).
		WithInput(p.in).
		WithOutput(p.out).
		WithShowHelp(true).
		WithTheme(theme.HuhTheme(p.theme))

	err := form.RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return "", ErrCancelled
	}
	if err != nil {
		return "", fmt.Errorf("run file picker: %w", err)
	}

	if strings.TrimSpace(path) == "" {
		return "", ErrCancelled
	}

	return path, nil
}
