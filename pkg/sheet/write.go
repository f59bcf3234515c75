package sheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/xlclean/pkg/log"
	"github.com/macropower/xlclean/pkg/table"
)

const (
	defaultSheetName = "Sheet1"
	lockRetryDelay   = 50 * time.Millisecond
)

// ErrLocked indicates that another process holds the output lock.
var ErrLocked = errors.New("output is being written by another process")

// WriteOptions controls [Write].
type WriteOptions struct {
	// Source is the input workbook. Write refuses to replace it.
	Source string
	// LockTimeout bounds how long Write waits for the output lock. Zero
	// tries once.
	LockTimeout time.Duration
	// Perm is the mode of the written file. Zero means 0o644.
	Perm os.FileMode
}

// Write stores t as the only worksheet of a new workbook at path and returns
// the size of the written file.
//
// The workbook is built in a temporary file in the destination directory and
// renamed over path only once it is complete, so path either keeps its old
// content or holds the full new workbook. An advisory lock on path + ".lock"
// keeps concurrent runs from interleaving.
func Write(ctx context.Context, path, sheetName string, t *table.Table, opts WriteOptions) (int64, error) {
	ctx, span := tracer.Start(ctx, "write", trace.WithAttributes(
		attribute.String("path", path),
		attribute.Int("rows", t.Len()),
	))
	defer span.End()

	if opts.Source != "" && SamePath(opts.Source, path) {
		return 0, &PathError{Op: "write", Path: path, Err: ErrSameAsInput}
	}

	unlock, err := lock(ctx, path, opts.LockTimeout)
	if err != nil {
		return 0, err
	}
	defer unlock()

	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".xlclean-*"+Extension)
	if err != nil {
		return 0, classify("write", path, err)
	}

	tmpPath := tmp.Name()
	committed := false

	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	perm := opts.Perm
	if perm == 0 {
		perm = 0o644
	}

	err = tmp.Chmod(perm)
	if err != nil {
		log.WithContext(ctx).Debug("chmod temp file", slog.Any("err", err))
	}

	err = encode(ctx, tmp, sheetName, t)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}

		return 0, &PathError{Op: "write", Path: path, Err: err}
	}

	err = tmp.Sync()
	if err != nil {
		return 0, classify("write", path, err)
	}

	info, err := tmp.Stat()
	if err != nil {
		return 0, classify("write", path, err)
	}

	err = tmp.Close()
	if err != nil {
		return 0, classify("write", path, err)
	}

	err = os.Rename(tmpPath, path)
	if err != nil {
		return 0, classify("write", path, err)
	}

	committed = true

	err = syncDir(dir)
	if err != nil {
		log.WithContext(ctx).Debug("sync output directory", slog.String("dir", dir), slog.Any("err", err))
	}

	span.SetAttributes(attribute.Int64("bytes", info.Size()))
	log.WithContext(ctx).Debug("wrote workbook",
		slog.String("path", path),
		slog.Int("rows", t.Len()),
		slog.Int64("bytes", info.Size()),
	)

	return info.Size(), nil
}

func lock(ctx context.Context, path string, timeout time.Duration) (func(), error) {
	fl := flock.New(path + ".lock")

	var (
		locked bool
		err    error
	)

	if timeout > 0 {
		lctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		locked, err = fl.TryLockContext(lctx, lockRetryDelay)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = nil
		}
	} else {
		locked, err = fl.TryLock()
	}

	if err != nil {
		return nil, classify("lock", path, err)
	}
	if !locked {
		return nil, &PathError{Op: "lock", Path: path, Err: ErrLocked}
	}

	return func() {
		_ = fl.Unlock()
		_ = os.Remove(fl.Path())
	}, nil
}

func encode(ctx context.Context, w io.Writer, sheetName string, t *table.Table) error {
	f := excelize.NewFile()

	defer func() {
		_ = f.Close()
	}()

	if sheetName == "" {
		sheetName = defaultSheetName
	}

	if sheetName != defaultSheetName {
		err := f.SetSheetName(defaultSheetName, sheetName)
		if err != nil {
			return fmt.Errorf("name worksheet %q: %w", sheetName, err)
		}
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	rowNum := 1

	if t.Width() > 0 {
		err = setRow(sw, rowNum, t.Header)
		if err != nil {
			return err
		}

		rowNum++
	}

	for i, row := range t.Rows {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		err = setRow(sw, rowNum, row)
		if err != nil {
			return err
		}

		rowNum++
	}

	err = sw.Flush()
	if err != nil {
		return fmt.Errorf("flush worksheet: %w", err)
	}

	err = f.Write(w)
	if err != nil {
		return fmt.Errorf("encode workbook: %w", err)
	}

	return nil
}

func setRow(sw *excelize.StreamWriter, rowNum int, row table.Row) error {
	values := make([]any, len(row))
	for i, c := range row {
		values[i] = c.Value()
	}

	ref, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("row %d: %w", rowNum, err)
	}

	err = sw.SetRow(ref, values)
	if err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}

	return nil
}
