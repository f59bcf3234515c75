package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"

	"github.com/macropower/xlclean/pkg/config"
	"github.com/macropower/xlclean/pkg/filter"
	"github.com/macropower/xlclean/pkg/picker"
	"github.com/macropower/xlclean/pkg/sheet"
)

// hints map error kinds to a suggestion printed below the error.
var hints = []struct {
	err  error
	hint string
}{
	{sheet.ErrNotFound, "Check the path and try again."},
	{sheet.ErrPermission, "Close the file in Excel or any other program and try again."},
	{sheet.ErrUnsupportedFormat, "Save the export as an Excel workbook (.xlsx) first."},
	{sheet.ErrOpen, "The file could not be read as a workbook. Re-export it and try again."},
	{sheet.ErrSameAsInput, "Choose a different --output or a non-empty --suffix."},
	{sheet.ErrLocked, "Wait for the other xlclean run to finish."},
	{filter.ErrNoApplicableRules, "None of the watched columns exist. Check that this is the right export."},
	{filter.ErrMissingColumns, "Run without --require-all-columns to skip rules whose column is missing."},
	{picker.ErrNotInteractive, "Pass the file path as an argument."},
	{config.ErrInvalidConfig, "Fix the configuration file, or back it up and regenerate it with --write-config."},
	{errNoInput, "Pass the file path as an argument."},
}

func ErrorHandler(w io.Writer, styles fang.Styles, err error) {
	mustN(fmt.Fprintln(w, styles.ErrorHeader.String()))
	mustN(fmt.Fprintln(w, lipgloss.NewStyle().MarginLeft(2).Render(err.Error())))
	mustN(fmt.Fprintln(w))

	if hint := hintFor(err); hint != "" {
		mustN(fmt.Fprintln(w, styles.ErrorText.UnsetWidth().Render(hint)))
		mustN(fmt.Fprintln(w))
	}

	if isUsageError(err) {
		mustN(fmt.Fprintln(w, lipgloss.JoinHorizontal(
			lipgloss.Left,
			styles.ErrorText.UnsetWidth().Render("Try"),
			styles.Program.Flag.Render("--help"),
			styles.ErrorText.UnsetWidth().UnsetMargins().UnsetTransform().PaddingLeft(1).Render("for usage."),
		)))
		mustN(fmt.Fprintln(w))
	}
}

func hintFor(err error) string {
	for _, h := range hints {
		if errors.Is(err, h.err) {
			return h.hint
		}
	}

	return ""
}

// XXX: this is a hack to detect usage errors.
// See: https://github.com/spf13/cobra/pull/2266
func isUsageError(err error) bool {
	s := err.Error()
	for _, prefix := range []string{
		"flag needs an argument:",
		"unknown flag:",
		"unknown shorthand flag:",
		"unknown command",
		"invalid argument",
		"accepts at most",
	} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}

	return false
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func mustN(_ int, err error) {
	must(err)
}
