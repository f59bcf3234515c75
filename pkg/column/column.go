// Package column converts spreadsheet column labels ("A", "H", "BV") to
// zero-based column indexes and back.
//
// Labels are base-26 numerals with the digits A=1 through Z=26 and no zero
// digit, most significant letter first. The mapping is a pure function of the
// label and does not depend on the width of any particular sheet.
package column

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidLabel indicates that a column label is empty or contains a
// character other than an ASCII letter.
var ErrInvalidLabel = errors.New("invalid column label")

// LabelError records the label that failed to resolve.
type LabelError struct {
	Label  string
	Reason string
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("%v %q: %s", ErrInvalidLabel, e.Label, e.Reason)
}

// Is reports whether target is [ErrInvalidLabel].
func (e *LabelError) Is(target error) bool {
	return target == ErrInvalidLabel
}

// Resolve returns the zero-based index for label.
//
//	Resolve("A")  // 0
//	Resolve("Z")  // 25
//	Resolve("AA") // 26
//	Resolve("BV") // 73
func Resolve(label string) (int, error) {
	if label == "" {
		return 0, &LabelError{Label: label, Reason: "label is empty"}
	}

	n := 0
	for i := range len(label) {
		c := label[i]
		switch {
		case c >= 'A' && c <= 'Z':
			c -= 'A'
		case c >= 'a' && c <= 'z':
			c -= 'a'
		default:
			return 0, &LabelError{
				Label:  label,
				Reason: fmt.Sprintf("unexpected character %q at position %d", rune(c), i),
			}
		}

		if n > (math.MaxInt-int(c)-1)/26 {
			return 0, &LabelError{Label: label, Reason: "label is too long"}
		}

		n = n*26 + int(c) + 1
	}

	return n - 1, nil
}

// Label returns the upper-case label for the zero-based index.
func Label(index int) (string, error) {
	if index < 0 {
		return "", fmt.Errorf("column index %d: must not be negative", index)
	}

	var b []byte

	for n := index + 1; n > 0; n = (n - 1) / 26 {
		b = append(b, byte('A'+(n-1)%26))
	}

	// Digits were produced least significant first.
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}

	return string(b), nil
}

// Normalize returns label in upper case. It does not validate the label.
func Normalize(label string) string {
	return strings.ToUpper(label)
}
