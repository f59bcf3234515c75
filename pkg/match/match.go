// Package match tests worksheet cells against sets of literal,
// case-insensitive substring patterns.
//
// Empty cells never match. Patterns have no metacharacters: "M88" matches
// "xM880123y" but not "M8" or "M89".
package match

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/macropower/xlclean/pkg/table"
)

// Set is an immutable set of patterns, lower-cased once at construction.
// A Set is safe for concurrent use.
type Set struct {
	patterns []string // Original spelling, for diagnostics.
	folded   []string
}

// NewSet returns a [Set] for the given patterns. Empty patterns are ignored,
// since the empty string is a substring of every value.
func NewSet(patterns ...string) Set {
	s := Set{
		patterns: make([]string, 0, len(patterns)),
		folded:   make([]string, 0, len(patterns)),
	}
	for _, p := range patterns {
		if p == "" {
			continue
		}

		s.patterns = append(s.patterns, p)
		s.folded = append(s.folded, lower(p))
	}

	return s
}

// Patterns returns a copy of the patterns in their original spelling.
func (s Set) Patterns() []string {
	return append([]string(nil), s.patterns...)
}

// Len returns the number of patterns.
func (s Set) Len() int { return len(s.patterns) }

// Match reports whether the cell's text contains any pattern.
func (s Set) Match(c table.Cell) bool {
	_, ok := s.First(c)
	return ok
}

// First returns the first pattern, in set order, that the cell contains.
func (s Set) First(c table.Cell) (string, bool) {
	text, ok := c.Text()
	if !ok {
		return "", false
	}

	return s.first(text)
}

// MatchString reports whether s contains any pattern.
func (s Set) MatchString(v string) bool {
	_, ok := s.first(v)
	return ok
}

func (s Set) first(v string) (string, bool) {
	if v == "" || len(s.folded) == 0 {
		return "", false
	}

	v = lower(v)
	for i, p := range s.folded {
		if strings.Contains(v, p) {
			return s.patterns[i], true
		}
	}

	return "", false
}

// Matches reports whether the cell contains any of the patterns. It is
// shorthand for NewSet(patterns...).Match(c); build a [Set] once when testing
// many cells.
func Matches(c table.Cell, patterns []string) bool {
	return NewSet(patterns...).Match(c)
}

// lower applies Unicode lower-case mapping. A [cases.Caser] holds state, so a
// new one is made per call.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}
