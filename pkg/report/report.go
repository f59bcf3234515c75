// Package report summarizes a filtering run: how many rows the input had, how
// many were removed and how many remain, plus per-rule statistics and
// diagnostics for rules that could not be applied.
package report

import (
	"errors"
	"fmt"

	"github.com/macropower/xlclean/pkg/table"
)

// ErrInconsistent indicates that a report's counts do not add up.
var ErrInconsistent = errors.New("inconsistent report")

// Kind classifies a [Diagnostic].
type Kind string

// KindMissingColumn means a rule's column is beyond the table width, so the
// rule was skipped.
const KindMissingColumn Kind = "MissingColumn"

// Diagnostic is a non-fatal finding recorded during a run.
type Diagnostic struct {
	Kind   Kind   `json:"kind"`
	Rule   string `json:"rule"`
	Column string `json:"column"`
	Index  int    `json:"index"`
	Width  int    `json:"width"`
}

func (d Diagnostic) String() string {
	switch d.Kind {
	case KindMissingColumn:
		return fmt.Sprintf("%s (Column %s) is missing: the sheet has %d columns", d.Rule, d.Column, d.Width)
	}

	return fmt.Sprintf("%s: %s (Column %s)", d.Kind, d.Rule, d.Column)
}

// RuleStat records how a single rule contributed to a run. Removed counts the
// rows for which this rule was the first, in table order, to match.
type RuleStat struct {
	Name    string `json:"name"`
	Column  string `json:"column"`
	Index   int    `json:"index"`
	Removed int    `json:"removed"`
	Skipped bool   `json:"skipped,omitempty"`
}

// Report is the outcome of one filtering run.
type Report struct {
	Rules          []RuleStat   `json:"rules,omitempty"`
	Diagnostics    []Diagnostic `json:"diagnostics,omitempty"`
	OriginalCount  int          `json:"originalCount"`
	RemovedCount   int          `json:"removedCount"`
	RemainingCount int          `json:"remainingCount"`
}

// Summarize computes the counts for a run that kept the rows of kept out of
// original.
func Summarize(original, kept *table.Table) Report {
	return Report{
		OriginalCount:  original.Len(),
		RemainingCount: kept.Len(),
		RemovedCount:   original.Len() - kept.Len(),
	}
}

// Validate checks the count invariants.
func (r Report) Validate() error {
	if r.OriginalCount < 0 || r.RemovedCount < 0 || r.RemainingCount < 0 {
		return fmt.Errorf("%w: negative count in %s", ErrInconsistent, r.counts())
	}
	if r.RemovedCount != r.OriginalCount-r.RemainingCount {
		return fmt.Errorf("%w: removed != original - remaining in %s", ErrInconsistent, r.counts())
	}

	attributed := 0
	for _, s := range r.Rules {
		attributed += s.Removed
	}
	if len(r.Rules) > 0 && attributed != r.RemovedCount {
		return fmt.Errorf("%w: rules removed %d rows, report says %d", ErrInconsistent, attributed, r.RemovedCount)
	}

	return nil
}

// Skipped returns the rules that were not applied.
func (r Report) Skipped() []RuleStat {
	var out []RuleStat
	for _, s := range r.Rules {
		if s.Skipped {
			out = append(out, s)
		}
	}

	return out
}

func (r Report) counts() string {
	return fmt.Sprintf("{original: %d, removed: %d, remaining: %d}", r.OriginalCount, r.RemovedCount, r.RemainingCount)
}

func (r Report) String() string {
	return r.counts()
}
