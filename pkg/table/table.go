// Package table holds the in-memory model of a single worksheet: a header row
// and an ordered sequence of data rows whose cells are text, numbers, booleans
// or empty.
package table

import (
	"math"
	"slices"
	"strconv"
)

// Kind identifies which variant a [Cell] holds.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	}

	return "unknown"
}

// Cell is a single worksheet value. The zero value is an empty cell.
type Cell struct {
	text string
	num  float64
	kind Kind
}

// TextCell returns a text cell. An empty string yields an empty cell.
func TextCell(s string) Cell {
	if s == "" {
		return Cell{}
	}

	return Cell{kind: KindText, text: s}
}

// NumberCell returns a numeric cell. NaN yields an empty cell.
func NumberCell(f float64) Cell {
	if math.IsNaN(f) {
		return Cell{}
	}

	return Cell{kind: KindNumber, num: f}
}

// BoolCell returns a boolean cell. Its text is "TRUE" or "FALSE", as a
// spreadsheet displays it.
func BoolCell(b bool) Cell {
	c := Cell{kind: KindBool, text: "FALSE"}
	if b {
		c.text = "TRUE"
		c.num = 1
	}

	return c
}

// EmptyCell returns an empty cell.
func EmptyCell() Cell {
	return Cell{}
}

func (c Cell) Kind() Kind { return c.kind }

func (c Cell) IsEmpty() bool { return c.kind == KindEmpty }

// Number returns the numeric value of a number cell.
func (c Cell) Number() (float64, bool) {
	return c.num, c.kind == KindNumber
}

// Bool returns the value of a boolean cell.
func (c Cell) Bool() (bool, bool) {
	return c.num != 0, c.kind == KindBool
}

// Text returns the textual representation of the cell. Numbers are formatted
// with the shortest decimal that round-trips, so 12345 gives "12345".
// Empty cells return false.
func (c Cell) Text() (string, bool) {
	switch c.kind {
	case KindText, KindBool:
		return c.text, true
	case KindNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64), true
	}

	return "", false
}

// String returns the textual representation, or "" for empty cells.
func (c Cell) String() string {
	s, _ := c.Text()
	return s
}

// Value returns the cell as a value suitable for spreadsheet writers:
// a string, a float64, a bool, or nil.
func (c Cell) Value() any {
	switch c.kind {
	case KindText:
		return c.text
	case KindNumber:
		return c.num
	case KindBool:
		return c.num != 0
	}

	return nil
}

// Row is an ordered sequence of cells.
type Row []Cell

// Table is a header row plus data rows of uniform width.
type Table struct {
	Header Row
	Rows   []Row
	width  int
}

// New returns a table whose header and rows are right-padded with empty cells
// to a common width. The given slices are copied.
func New(header Row, rows []Row) *Table {
	width := len(header)
	for _, r := range rows {
		width = max(width, len(r))
	}

	t := &Table{
		Header: pad(header, width),
		Rows:   make([]Row, len(rows)),
		width:  width,
	}
	for i, r := range rows {
		t.Rows[i] = pad(r, width)
	}

	return t
}

func pad(r Row, width int) Row {
	out := make(Row, width)
	copy(out, r)

	return out
}

// Width returns the column count.
func (t *Table) Width() int {
	if t == nil {
		return 0
	}

	return t.width
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}

	return len(t.Rows)
}

// Cell returns the cell at the zero-based row and column, or an empty cell if
// the position is out of range.
func (t *Table) Cell(row, col int) Cell {
	if row < 0 || row >= t.Len() || col < 0 || col >= t.width {
		return Cell{}
	}

	return t.Rows[row][col]
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}

	out := &Table{
		Header: slices.Clone(t.Header),
		Rows:   make([]Row, len(t.Rows)),
		width:  t.width,
	}
	for i, r := range t.Rows {
		out.Rows[i] = slices.Clone(r)
	}

	return out
}

// Subset returns a new table containing deep copies of the rows at the given
// indexes, in the order given. The header is copied.
func (t *Table) Subset(indexes []int) *Table {
	out := &Table{
		Header: slices.Clone(t.Header),
		Rows:   make([]Row, 0, len(indexes)),
		width:  t.width,
	}
	for _, i := range indexes {
		out.Rows = append(out.Rows, slices.Clone(t.Rows[i]))
	}

	return out
}

// Equal reports whether two tables have identical headers and rows.
func (t *Table) Equal(o *Table) bool {
	if t.Width() != o.Width() || t.Len() != o.Len() {
		return false
	}
	if t == nil || o == nil {
		return t == o || (t.Len() == 0 && o.Len() == 0)
	}
	if !slices.Equal(t.Header, o.Header) {
		return false
	}

	return slices.EqualFunc(t.Rows, o.Rows, func(a, b Row) bool {
		return slices.Equal(a, b)
	})
}
