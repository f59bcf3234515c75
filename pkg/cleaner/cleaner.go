// Package cleaner runs one cleaning pass: pick a workbook, load its first
// sheet, drop the rows the rules match and write the rest next to the input.
package cleaner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/xlclean/pkg/config"
	"github.com/macropower/xlclean/pkg/filter"
	"github.com/macropower/xlclean/pkg/log"
	"github.com/macropower/xlclean/pkg/picker"
	"github.com/macropower/xlclean/pkg/report"
	"github.com/macropower/xlclean/pkg/rule"
	"github.com/macropower/xlclean/pkg/sheet"
)

var tracer = otel.Tracer("cleaner")

// Outcome describes a completed run.
type Outcome struct {
	Input     string
	Output    string
	SheetName string
	Report    report.Report
	// OutputSize is the written file size in bytes, 0 for a dry run.
	OutputSize int64
	RunID      uuid.UUID
	DryRun     bool
}

// Cleaner holds everything a run needs. The zero value is not usable; build
// one with [New].
type Cleaner struct {
	provider picker.Provider
	engine   *filter.Engine
	rules    rule.Table
	suffix   string
	output   string
	lockWait time.Duration
	dryRun   bool
}

// Opt configures a [Cleaner].
type Opt func(*Cleaner)

// WithProvider sets where the input path comes from when Run is given none.
func WithProvider(p picker.Provider) Opt {
	return func(c *Cleaner) {
		c.provider = p
	}
}

// WithSuffix sets the output name suffix.
func WithSuffix(s string) Opt {
	return func(c *Cleaner) {
		c.suffix = s
	}
}

// WithOutput writes to path instead of the derived <stem><suffix>.xlsx.
func WithOutput(path string) Opt {
	return func(c *Cleaner) {
		c.output = path
	}
}

// WithLockTimeout waits up to d for another run writing the same output to
// finish. Zero fails immediately.
func WithLockTimeout(d time.Duration) Opt {
	return func(c *Cleaner) {
		c.lockWait = d
	}
}

// WithDryRun filters and reports without writing.
func WithDryRun(dryRun bool) Opt {
	return func(c *Cleaner) {
		c.dryRun = dryRun
	}
}

// WithFilterOptions passes options to the filter engine.
func WithFilterOptions(opts ...filter.Option) Opt {
	return func(c *Cleaner) {
		c.engine = filter.New(c.rules, opts...)
	}
}

// New creates a [Cleaner] for rules. Without [WithProvider], Run requires an
// explicit path.
func New(rules rule.Table, opts ...Opt) *Cleaner {
	c := &Cleaner{
		rules:    rules,
		suffix:   config.DefaultSuffix,
		provider: picker.Static(""),
	}
	c.engine = filter.New(rules)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Run cleans the workbook at input, asking the provider when input is empty.
// Nothing is written unless every step before the write succeeds.
func (c *Cleaner) Run(ctx context.Context, input string) (*Outcome, error) {
	runID := uuid.New()

	ctx, span := tracer.Start(ctx, "run", trace.WithAttributes(
		attribute.String("run_id", runID.String()),
		attribute.Bool("dry_run", c.dryRun),
	))
	defer span.End()

	logger := log.WithContext(ctx).With(slog.String("run_id", runID.String()))
	ctx = log.NewContext(ctx, logger)

	if input == "" {
		picked, err := c.provider.PickPath(ctx)
		if err != nil {
			return nil, fmt.Errorf("select input: %w", err)
		}

		input = picked
	}

	output := c.output
	if output == "" {
		output = sheet.OutputPath(input, c.suffix)
	}

	if sheet.SamePath(input, output) {
		return nil, &sheet.PathError{Op: "write", Path: output, Err: sheet.ErrSameAsInput}
	}

	logger.Info("cleaning workbook", slog.String("input", input), slog.String("output", output))

	doc, err := sheet.Load(ctx, input)
	if err != nil {
		return nil, err
	}

	res, err := c.engine.Apply(ctx, doc.Table)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", input, err)
	}

	err = res.Report.Validate()
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Input:     input,
		Output:    output,
		SheetName: doc.SheetName,
		Report:    res.Report,
		RunID:     runID,
		DryRun:    c.dryRun,
	}

	span.SetAttributes(
		attribute.Int("original", res.Report.OriginalCount),
		attribute.Int("removed", res.Report.RemovedCount),
	)

	if c.dryRun {
		logger.Info("dry run, skipping write", slog.String("output", output))
		return out, nil
	}

	size, err := sheet.Write(ctx, output, doc.SheetName, res.Kept, sheet.WriteOptions{
		Source:      input,
		LockTimeout: c.lockWait,
	})
	if err != nil {
		return nil, err
	}

	out.OutputSize = size

	logger.Info("cleaned workbook",
		slog.String("output", output),
		slog.Int("removed", res.Report.RemovedCount),
		slog.Int("remaining", res.Report.RemainingCount),
	)

	return out, nil
}
