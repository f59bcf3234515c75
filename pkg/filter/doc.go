// Package filter applies a [rule.Table] to a worksheet [table.Table].
//
// Each row is kept unless at least one rule matches it. Rule columns are
// resolved once per run against the table width; rules whose columns are
// missing are skipped with a diagnostic, and a run where no rule can apply
// fails with [ErrNoApplicableRules] rather than silently keeping every row.
//
// Rows are independent, so large tables are evaluated in parallel chunks.
// Results are merged by row index and the kept rows always keep their
// original order.
package filter
