package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Sheet is a worksheet to synthesise: Rows are written from A1 downwards,
// nil values leave the cell blank.
type Sheet struct {
	Name string
	Rows [][]any
}

// NewWorkbook writes an .xlsx file containing sheets into a temporary
// directory and returns its path.
func NewWorkbook(t *testing.T, name string, sheets ...Sheet) string {
	t.Helper()

	data := WorkbookBytes(t, sheets...)

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("writing workbook %s: %v", path, err)
	}

	return path
}

// WorkbookBytes renders sheets as an in-memory .xlsx file.
func WorkbookBytes(t *testing.T, sheets ...Sheet) []byte {
	t.Helper()

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				t.Fatalf("renaming sheet to %q: %v", s.Name, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			t.Fatalf("creating sheet %q: %v", s.Name, err)
		}

		for r, row := range s.Rows {
			axis, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name for row %d: %v", r+1, err)
			}
			values := row
			if err := f.SetSheetRow(s.Name, axis, &values); err != nil {
				t.Fatalf("writing %s row %d: %v", s.Name, r+1, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("rendering workbook: %v", err)
	}

	return buf.Bytes()
}
