package sheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Cell is the raw, unformatted value of a worksheet cell. Numbers and
// dates appear as their numeric serial form; blanks are empty.
type Cell string

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool {
	return strings.TrimSpace(string(c)) == ""
}

// Float returns the numeric value of the cell, if it holds one.
func (c Cell) Float() (float64, bool) {
	if c.IsEmpty() {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(string(c)), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Time interprets the cell as a date: a spreadsheet date serial, or an
// ISO-like "2006-01-02" / "2006/01/02" string. The result is in UTC.
func (c Cell) Time() (time.Time, error) {
	if f, ok := c.Float(); ok {
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date serial %v: %w", f, err)
		}
		return t.UTC(), nil
	}

	s := strings.TrimSpace(string(c))
	for _, layout := range []string{"2006-01-02", "2006/01/02", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("not a date: %q", s)
}

// Range is the rectangular used area of a worksheet: leading blank rows and
// columns are dropped, so (0, 0) is the first populated row and column. Every
// coordinate inside the rectangle exists, blank or not.
type Range struct {
	cells [][]Cell
	width int

	// text marks cells stored as strings in the workbook, whatever they
	// contain.
	text map[[2]int]bool
}

// NewRange builds a Range from rows as returned by excelize.
func NewRange(rows [][]string) *Range {
	return newRange(rows, nil)
}

// newRange builds a Range; isText reports, in rows coordinates, whether a
// cell is stored as a string. A nil isText treats every cell as untyped.
func newRange(rows [][]string, isText func(row, col int) bool) *Range {
	first, last := -1, -1
	left, right := math.MaxInt, -1

	for i, row := range rows {
		for j, v := range row {
			if strings.TrimSpace(v) == "" {
				continue
			}
			if first < 0 {
				first = i
			}
			last = i
			left = min(left, j)
			right = max(right, j)
		}
	}

	if first < 0 {
		return &Range{}
	}

	width := right - left + 1
	cells := make([][]Cell, 0, last-first+1)
	text := map[[2]int]bool{}
	for i, row := range rows[first : last+1] {
		line := make([]Cell, width)
		for j := range width {
			if left+j >= len(row) {
				continue
			}
			line[j] = Cell(row[left+j])
			if isText != nil && !line[j].IsEmpty() && isText(first+i, left+j) {
				text[[2]int{i, j}] = true
			}
		}
		cells = append(cells, line)
	}

	return &Range{cells: cells, width: width, text: text}
}

// IsText reports whether the cell at (row, col) is stored as a string.
func (r *Range) IsText(row, col int) bool {
	return r.text[[2]int{row, col}]
}

// Height returns the number of rows in the range.
func (r *Range) Height() int { return len(r.cells) }

// Width returns the number of columns in the range.
func (r *Range) Width() int { return r.width }

// Get returns the cell at (row, col) and whether it lies inside the range.
func (r *Range) Get(row, col int) (Cell, bool) {
	if row < 0 || col < 0 || row >= len(r.cells) || col >= r.width {
		return "", false
	}
	return r.cells[row][col], true
}

// Row returns the cells of a row, or nil when row is outside the range.
func (r *Range) Row(row int) []Cell {
	if row < 0 || row >= len(r.cells) {
		return nil
	}
	return r.cells[row]
}

// ResolveValue returns the numeric value at (row, col). A cell without a
// number inherits the value of the nearest numeric cell below it in the
// same column, as a vertically merged cell displays. Cells stored as
// strings never count as numbers, even when they hold digits. The search
// stops at the bottom of the range; ok is false if no value was found.
func (r *Range) ResolveValue(row, col int) (value float64, ok bool) {
	for ; row < r.Height(); row++ {
		cell, inside := r.Get(row, col)
		if !inside {
			return 0, false
		}
		if r.IsText(row, col) {
			continue
		}
		if f, isNum := cell.Float(); isNum {
			return f, true
		}
	}
	return 0, false
}
