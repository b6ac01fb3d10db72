package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/nhle/case-ingest/internal/source"
)

// Workbook is an opened spreadsheet file.
type Workbook struct {
	file *excelize.File
	name string
}

// Open opens the spreadsheet at path.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &source.FormatError{
			File:    path,
			Message: "unable to open spreadsheet",
			Err:     err,
		}
	}
	return &Workbook{file: f, name: path}, nil
}

// OpenReader reads a spreadsheet from r; name is used in diagnostics.
func OpenReader(r io.Reader, name string) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &source.FormatError{
			File:    name,
			Message: "unable to open spreadsheet",
			Err:     err,
		}
	}
	return &Workbook{file: f, name: name}, nil
}

// Name returns the file name the workbook was opened from.
func (w *Workbook) Name() string { return w.name }

// Close releases the underlying file.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// Sheets lists the worksheet titles in workbook order.
func (w *Workbook) Sheets() []string {
	return w.file.GetSheetList()
}

// Range returns the used area of the named worksheet. A missing worksheet
// is a FormatError.
func (w *Workbook) Range(sheet string) (*Range, error) {
	idx, err := w.file.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, &source.FormatError{
			File:    w.name,
			Sheet:   sheet,
			Message: fmt.Sprintf("unknown or missing worksheet (have %q)", w.Sheets()),
			Err:     err,
		}
	}

	rows, err := w.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &source.FormatError{
			File:    w.name,
			Sheet:   sheet,
			Message: "unable to read worksheet",
			Err:     err,
		}
	}

	var typeErr error
	isText := func(row, col int) bool {
		axis, err := excelize.CoordinatesToCellName(col+1, row+1)
		if err != nil {
			return false
		}
		typ, err := w.file.GetCellType(sheet, axis)
		if err != nil {
			if typeErr == nil {
				typeErr = err
			}
			return false
		}
		return typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString
	}

	rng := newRange(rows, isText)
	if typeErr != nil {
		return nil, &source.FormatError{
			File:    w.name,
			Sheet:   sheet,
			Message: "unable to read cell types",
			Err:     typeErr,
		}
	}

	return rng, nil
}
