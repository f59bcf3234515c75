// Package sheet reads and writes the single worksheet of an .xlsx workbook as
// a [table.Table].
package sheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/xlclean/pkg/log"
	"github.com/macropower/xlclean/pkg/table"
)

// ContextCheckInterval is how often, in rows, Load and Write check for
// cancellation.
const ContextCheckInterval = 1024

var tracer = otel.Tracer("sheet")

// Document is a loaded worksheet.
type Document struct {
	Table *table.Table
	Path  string
	// SheetName is the name of the worksheet that was read.
	SheetName string
	// Sheets is the number of worksheets in the workbook.
	Sheets int
}

// Load reads the first worksheet of the workbook at path. Row 1 is the
// header; the remaining rows are data, in sheet order.
//
// Numeric cells become [table.KindNumber], booleans [table.KindBool], blank
// cells [table.KindEmpty] and everything else [table.KindText] holding the
// stored value. Formulas are not
// evaluated; their cached results are used.
func Load(ctx context.Context, path string) (*Document, error) {
	ctx, span := tracer.Start(ctx, "load", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	err := CheckInput(path)
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, openError(path, err)
	}

	defer func() {
		if err := f.Close(); err != nil {
			log.WithContext(ctx).Debug("close workbook", slog.Any("err", err))
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &PathError{Op: "load", Path: path, Err: fmt.Errorf("%w: workbook has no worksheets", ErrOpen)}
	}

	name := sheets[0]
	if len(sheets) > 1 {
		log.WithContext(ctx).Info("workbook has several worksheets, only the first is cleaned",
			slog.String("sheet", name),
			slog.Int("sheets", len(sheets)),
		)
	}

	t, err := readTable(ctx, f, name)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		return nil, &PathError{Op: "load", Path: path, Err: fmt.Errorf("%w: %w", ErrOpen, err)}
	}

	span.SetAttributes(
		attribute.String("sheet", name),
		attribute.Int("rows", t.Len()),
		attribute.Int("columns", t.Width()),
	)
	log.WithContext(ctx).Debug("loaded worksheet",
		slog.String("path", path),
		slog.String("sheet", name),
		slog.Int("rows", t.Len()),
		slog.Int("columns", t.Width()),
	)

	return &Document{
		Path:      path,
		SheetName: name,
		Sheets:    len(sheets),
		Table:     t,
	}, nil
}

func openError(path string, err error) error {
	classified := classify("open", path, err)
	if errors.Is(classified, ErrNotFound) || errors.Is(classified, ErrPermission) {
		return classified
	}

	return &PathError{Op: "open", Path: path, Err: fmt.Errorf("%w: %w", ErrOpen, err)}
}

func readTable(ctx context.Context, f *excelize.File, name string) (*table.Table, error) {
	rows, err := f.Rows(name)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	var (
		header table.Row
		data   []table.Row
		n      int
	)

	for rows.Next() {
		if n%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		n++

		values, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", n, err)
		}

		if n == 1 {
			header = make(table.Row, len(values))
			for i, v := range values {
				header[i] = table.TextCell(v)
			}

			continue
		}

		row := make(table.Row, len(values))
		for i, v := range values {
			row[i], err = readCell(f, name, i+1, n, v)
			if err != nil {
				return nil, err
			}
		}

		data = append(data, row)
	}

	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	return table.New(header, data), nil
}

// readCell classifies one raw value. Only values that look numeric need the
// stored cell type, so text such as "00123" keeps its leading zeros.
func readCell(f *excelize.File, sheet string, col, row int, raw string) (table.Cell, error) {
	if raw == "" {
		return table.EmptyCell(), nil
	}

	num, perr := strconv.ParseFloat(raw, 64)
	if perr != nil {
		return table.TextCell(raw), nil
	}

	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return table.Cell{}, fmt.Errorf("cell %d:%d: %w", row, col, err)
	}

	typ, err := f.GetCellType(sheet, ref)
	if err != nil {
		return table.Cell{}, fmt.Errorf("cell %s: %w", ref, err)
	}

	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		return table.NumberCell(num), nil
	case excelize.CellTypeBool:
		return table.BoolCell(num != 0), nil
	}

	return table.TextCell(raw), nil
}
