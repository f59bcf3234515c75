package theme

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// HuhTheme adapts t for huh forms.
func HuhTheme(t *Theme) *huh.Theme {
	h := huh.ThemeBase()

	accent := t.SelectedStyle.GetForeground()
	subtle := t.SubtleStyle.GetForeground()
	failure := t.ErrorStyle.GetForeground()

	h.Focused.Base = h.Focused.Base.BorderForeground(accent)
	h.Focused.Card = h.Focused.Base
	h.Focused.Title = h.Focused.Title.Foreground(accent).Bold(true)
	h.Focused.Description = h.Focused.Description.Foreground(subtle)
	h.Focused.Directory = h.Focused.Directory.Foreground(accent)
	h.Focused.File = h.Focused.File.Foreground(lipgloss.NoColor{})
	h.Focused.ErrorIndicator = h.Focused.ErrorIndicator.Foreground(failure)
	h.Focused.ErrorMessage = h.Focused.ErrorMessage.Foreground(failure)
	h.Focused.SelectSelector = h.Focused.SelectSelector.Foreground(accent)
	h.Focused.SelectedOption = h.Focused.SelectedOption.Foreground(accent)
	h.Focused.TextInput.Cursor = h.Focused.TextInput.Cursor.Foreground(accent)
	h.Focused.TextInput.Placeholder = h.Focused.TextInput.Placeholder.Foreground(subtle)

	h.Blurred = h.Focused
	h.Blurred.Base = h.Focused.Base.BorderStyle(lipgloss.HiddenBorder())
	h.Blurred.Card = h.Blurred.Base

	h.Group.Title = h.Focused.Title
	h.Group.Description = h.Focused.Description

	return h
}
