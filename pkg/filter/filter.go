package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/macropower/xlclean/pkg/log"
	"github.com/macropower/xlclean/pkg/report"
	"github.com/macropower/xlclean/pkg/rule"
	"github.com/macropower/xlclean/pkg/table"
)

const (
	// DefaultChunkSize is the number of rows evaluated per parallel task.
	DefaultChunkSize = 4096

	// ContextCheckInterval is how often, in rows, a sequential pass checks for
	// cancellation.
	ContextCheckInterval = 1024
)

var (
	// ErrNoApplicableRules indicates that every rule's column is missing
	// from the table, so filtering would have no effect.
	ErrNoApplicableRules = errors.New("no applicable rules")

	// ErrMissingColumns indicates that one or more rule columns are missing
	// while [WithRequireAllColumns] is set.
	ErrMissingColumns = errors.New("required columns are missing")
)

// NoApplicableRulesError lists the columns that were missing.
type NoApplicableRulesError struct {
	Missing []report.Diagnostic
}

func (e *NoApplicableRulesError) Error() string {
	return fmt.Sprintf("%v: none of the rule columns exist in the sheet (%s)",
		ErrNoApplicableRules, describe(e.Missing))
}

func (e *NoApplicableRulesError) Is(target error) bool {
	return target == ErrNoApplicableRules
}

// MissingColumnsError lists the columns that were missing in strict mode.
type MissingColumnsError struct {
	Missing []report.Diagnostic
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingColumns, describe(e.Missing))
}

func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}

func describe(ds []report.Diagnostic) string {
	parts := make([]string, 0, len(ds))
	for _, d := range ds {
		parts = append(parts, fmt.Sprintf("%s (Column %s)", d.Rule, d.Column))
	}

	return strings.Join(parts, ", ")
}

// Result is the output of a filtering run.
type Result struct {
	// Kept contains the surviving rows in their original order.
	Kept   *table.Table
	Report report.Report
}

// Engine applies a rule table to worksheet tables.
type Engine struct {
	tracer     trace.Tracer
	rules      rule.Table
	workers    int
	chunkSize  int
	requireAll bool
}

// Option configures an [Engine].
type Option func(*Engine)

// WithWorkers sets the maximum number of goroutines used to evaluate rows.
// Values below 1 use [runtime.GOMAXPROCS].
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithChunkSize sets how many rows each parallel task evaluates.
func WithChunkSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithRequireAllColumns makes any missing rule column a fatal error instead of
// a diagnostic.
func WithRequireAllColumns(require bool) Option {
	return func(e *Engine) {
		e.requireAll = require
	}
}

// New creates an [Engine] for the given compiled rules.
func New(rules rule.Table, opts ...Option) *Engine {
	e := &Engine{
		tracer:    otel.Tracer("filter"),
		rules:     rules,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.workers < 1 {
		e.workers = runtime.GOMAXPROCS(0)
	}

	return e
}

// Apply is shorthand for New(rules).Apply(ctx, t).
func Apply(ctx context.Context, t *table.Table, rules rule.Table) (*Result, error) {
	return New(rules).Apply(ctx, t)
}

// Apply filters t and returns the kept rows with a [report.Report]. The input
// table is not modified.
//
// A rule whose column is beyond the table width is skipped and recorded as a
// [report.KindMissingColumn] diagnostic. If every rule is skipped, Apply
// returns a [*NoApplicableRulesError], unless the table has no rows, in which
// case there is nothing to filter and the run succeeds.
//
// If ctx is cancelled before the pass completes, Apply returns ctx.Err() and
// no result.
func (e *Engine) Apply(ctx context.Context, t *table.Table) (*Result, error) {
	if t == nil {
		t = table.New(nil, nil)
	}

	ctx, span := e.tracer.Start(ctx, "filter", trace.WithAttributes(
		attribute.Int("rows", t.Len()),
		attribute.Int("columns", t.Width()),
		attribute.Int("rules", len(e.rules)),
	))
	defer span.End()

	logger := log.WithContext(ctx)

	active, stats, diags := e.plan(t.Width())
	for _, d := range diags {
		logger.Warn("rule column missing, skipping rule",
			slog.String("rule", d.Rule),
			slog.String("column", d.Column),
			slog.Int("index", d.Index),
			slog.Int("width", d.Width),
		)
	}

	if e.requireAll && len(diags) > 0 {
		return nil, &MissingColumnsError{Missing: diags}
	}

	if t.Len() == 0 {
		logger.Debug("table has no rows")

		return &Result{
			Kept:   t.Clone(),
			Report: report.Report{Rules: stats, Diagnostics: diags},
		}, nil
	}

	if len(active) == 0 {
		return nil, &NoApplicableRulesError{Missing: diags}
	}

	// hits[i] is the position in active of the first rule matching row i,
	// or -1 if the row is kept.
	hits := make([]int, t.Len())

	var err error
	if e.workers == 1 || t.Len() <= e.chunkSize {
		err = evalRange(ctx, t.Rows, active, hits, 0, t.Len())
	} else {
		err = e.evalParallel(ctx, t, active, hits)
	}
	if err != nil {
		return nil, err
	}

	keep := make([]int, 0, t.Len())
	for i, h := range hits {
		if h < 0 {
			keep = append(keep, i)
			continue
		}

		stats[active[h].stat].Removed++
	}

	kept := t.Subset(keep)

	rpt := report.Summarize(t, kept)
	rpt.Rules = stats
	rpt.Diagnostics = diags

	span.SetAttributes(
		attribute.Int("removed", rpt.RemovedCount),
		attribute.Int("remaining", rpt.RemainingCount),
	)
	logger.Debug("filtered table",
		slog.Int("original", rpt.OriginalCount),
		slog.Int("removed", rpt.RemovedCount),
		slog.Int("remaining", rpt.RemainingCount),
	)

	return &Result{Kept: kept, Report: rpt}, nil
}

type activeRule struct {
	*rule.Rule

	stat int // Index into the report's rule stats.
}

// plan splits the rules into those that apply to a table of the given width
// and diagnostics for those that do not.
func (e *Engine) plan(width int) ([]activeRule, []report.RuleStat, []report.Diagnostic) {
	var (
		active = make([]activeRule, 0, len(e.rules))
		stats  = make([]report.RuleStat, 0, len(e.rules))
		diags  []report.Diagnostic
	)

	for _, r := range e.rules {
		stat := report.RuleStat{
			Name:   r.DisplayName(),
			Column: r.Label(),
			Index:  r.Index(),
		}

		if r.Index() >= width {
			stat.Skipped = true
			diags = append(diags, report.Diagnostic{
				Kind:   report.KindMissingColumn,
				Rule:   r.DisplayName(),
				Column: r.Label(),
				Index:  r.Index(),
				Width:  width,
			})
		} else {
			active = append(active, activeRule{Rule: r, stat: len(stats)})
		}

		stats = append(stats, stat)
	}

	return active, stats, diags
}

// evalParallel partitions the rows into chunks evaluated concurrently. Each
// chunk writes only its own range of hits, so the merge is by row index.
func (e *Engine) evalParallel(ctx context.Context, t *table.Table, active []activeRule, hits []int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for start := 0; start < t.Len(); start += e.chunkSize {
		if err := gctx.Err(); err != nil {
			break
		}

		end := min(start+e.chunkSize, t.Len())

		g.Go(func() error {
			return evalRange(gctx, t.Rows, active, hits, start, end)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	// A cancellation between chunks stops scheduling without an error from
	// any task.
	return ctx.Err()
}

func evalRange(ctx context.Context, rows []table.Row, active []activeRule, hits []int, start, end int) error {
	for i := start; i < end; i++ {
		if (i-start)%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		hits[i] = decide(rows[i], active)
	}

	return nil
}

// decide returns the position of the first matching rule, or -1 to keep the
// row. The decision is a logical OR across rules.
func decide(row table.Row, active []activeRule) int {
	for i, r := range active {
		if r.Match(row) {
			return i
		}
	}

	return -1
}
