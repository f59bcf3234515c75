package sheet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Extension is the only accepted workbook extension, compared
// case-insensitively.
const Extension = ".xlsx"

var (
	ErrNotFound          = errors.New("file not found")
	ErrPermission        = errors.New("permission denied, the file may be open in another program")
	ErrUnsupportedFormat = errors.New("unsupported file format, only .xlsx files are supported")
	ErrSameAsInput       = errors.New("output path is the same as the input file")
	ErrOpen              = errors.New("cannot read workbook")
)

// PathError records a failed operation on a workbook path.
type PathError struct {
	Err  error
	Op   string
	Path string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// classify maps an OS error to one of the package sentinels, keeping the
// original as the cause.
func classify(op, path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		err = fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		err = fmt.Errorf("%w: %w", ErrPermission, err)
	}

	return &PathError{Op: op, Path: path, Err: err}
}

// CheckInput reports whether path names an existing, readable-looking .xlsx
// file.
func CheckInput(path string) error {
	if !strings.EqualFold(filepath.Ext(path), Extension) {
		return &PathError{Op: "check", Path: path, Err: ErrUnsupportedFormat}
	}

	info, err := os.Stat(path)
	if err != nil {
		return classify("check", path, err)
	}
	if info.IsDir() {
		return &PathError{Op: "check", Path: path, Err: fmt.Errorf("%w: is a directory", ErrUnsupportedFormat)}
	}

	return nil
}

// OutputPath returns the path of the cleaned workbook for input:
// <dir>/<stem><suffix>.xlsx.
func OutputPath(input, suffix string) string {
	dir, base := filepath.Split(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	return filepath.Join(dir, stem+suffix+Extension)
}

// SamePath reports whether a and b resolve to the same file. Paths that do
// not exist yet are compared after cleaning.
func SamePath(a, b string) bool {
	ai, aerr := os.Stat(a)
	bi, berr := os.Stat(b)
	if aerr == nil && berr == nil {
		return os.SameFile(ai, bi)
	}

	absA, err := filepath.Abs(a)
	if err != nil {
		return false
	}

	absB, err := filepath.Abs(b)
	if err != nil {
		return false
	}

	return absA == absB
}
