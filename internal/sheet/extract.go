package sheet

import (
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nhle/case-ingest/internal/model"
	"github.com/nhle/case-ingest/internal/source"
)

// CellError reports a missing or malformed value at a range coordinate.
type CellError struct {
	Row     int
	Col     int
	Message string
}

func (e *CellError) Error() string {
	return fmt.Sprintf("row %d, column %d: %s", e.Row, e.Col, e.Message)
}

// Result holds the records extracted from one spreadsheet snapshot.
type Result struct {
	Patients    *model.Summary
	Inspections *model.Summary
	MainSummary *model.Status
	News        *model.NewsItems
}

// strategy kinds, one per required worksheet.
type strategy int

const (
	strategyPositives strategy = iota
	strategyTests
	strategyNews
)

// Extract runs the extraction strategy of each required worksheet named in
// names. Every record is stamped with lastUpdate.
func Extract(
	wb *Workbook,
	names model.SheetsConfig,
	lastUpdate time.Time,
	logger *log.Logger,
) (*Result, error) {
	required := []struct {
		name string
		kind strategy
	}{
		{names.Positives, strategyPositives},
		{names.Tests, strategyTests},
		{names.News, strategyNews},
	}

	result := &Result{
		Patients:    model.NewSummary(lastUpdate),
		Inspections: model.NewSummary(lastUpdate),
		News:        &model.NewsItems{NewsItems: []model.NewsItem{}},
	}

	for _, ws := range required {
		rng, err := wb.Range(ws.name)
		if err != nil {
			return nil, err
		}

		logger.Info("processing worksheet", "sheet", ws.name, "rows", rng.Height())

		switch ws.kind {
		case strategyPositives:
			result.Patients.Data, err = DailySeries(rng)
		case strategyTests:
			result.Inspections.Data, err = DeltaSeries(rng)
			if err == nil {
				result.MainSummary, err = StatusTree(rng, lastUpdate)
			}
		case strategyNews:
			result.News.NewsItems, err = NewsList(rng)
		default:
			err = fmt.Errorf("no extraction strategy")
		}

		if err != nil {
			return nil, &source.FormatError{
				File:    wb.Name(),
				Sheet:   ws.name,
				Message: "extraction failed",
				Err:     err,
			}
		}
	}

	return result, nil
}

// DailySeries emits one SummaryContent per row, last row first.
func DailySeries(r *Range) ([]model.SummaryContent, error) {
	data := make([]model.SummaryContent, 0, r.Height())

	for row := r.Height() - 1; row >= 0; row-- {
		date, err := dateAt(r, row, 0)
		if err != nil {
			return nil, err
		}
		sum, err := countAt(r, row, 1)
		if err != nil {
			return nil, err
		}

		data = append(data, model.SummaryContent{Date: date, Sum: sum})
	}

	return data, nil
}

// DeltaSeries reads a cumulative total from column 1 and emits the per-row
// increment, last row first. The first processed row is measured against
// zero.
func DeltaSeries(r *Range) ([]model.SummaryContent, error) {
	data := make([]model.SummaryContent, 0, r.Height())

	var previous uint32
	for row := r.Height() - 1; row >= 0; row-- {
		date, err := dateAt(r, row, 0)
		if err != nil {
			return nil, err
		}
		total, err := countAt(r, row, 1)
		if err != nil {
			return nil, err
		}
		if total < previous {
			return nil, &CellError{
				Row:     row,
				Col:     1,
				Message: fmt.Sprintf("cumulative total decreased from %d to %d", previous, total),
			}
		}

		data = append(data, model.SummaryContent{Date: date, Sum: total - previous})
		previous = total
	}

	return data, nil
}

// statusColumns maps the Patients breakdown onto columns of the first row.
// Leave sits in column 3, ahead of the others.
var statusColumns = []struct {
	attr model.Attribute
	col  int
}{
	{model.AttributeHospitalizations, 4},
	{model.AttributeSeverelyPatients, 5},
	{model.AttributeOther, 6},
	{model.AttributeAccommodations, 7},
	{model.AttributeHome, 8},
	{model.AttributeDead, 9},
	{model.AttributeLeave, 3},
	{model.AttributeCoordinating, 10},
}

// StatusTree builds the case-status tree from the first row of r, resolving
// blank (merged) cells from the rows below.
func StatusTree(r *Range, lastUpdate time.Time) (*model.Status, error) {
	total, err := resolvedAt(r, 0, 1)
	if err != nil {
		return nil, err
	}
	patients, err := resolvedAt(r, 0, 2)
	if err != nil {
		return nil, err
	}

	children := make([]model.Status, 0, len(statusColumns))
	for _, sc := range statusColumns {
		v, err := resolvedAt(r, 0, sc.col)
		if err != nil {
			return nil, err
		}
		children = append(children, model.Status{Attr: sc.attr, Value: v})
	}

	rootUpdate, patientsUpdate := lastUpdate, lastUpdate

	return &model.Status{
		Attr:  model.AttributeInspections,
		Value: total,
		Children: []model.Status{
			{
				Attr:       model.AttributePatients,
				Value:      patients,
				Children:   children,
				LastUpdate: &patientsUpdate,
			},
		},
		LastUpdate: &rootUpdate,
	}, nil
}

// NewsList emits one NewsItem per row in row order.
func NewsList(r *Range) ([]model.NewsItem, error) {
	items := make([]model.NewsItem, 0, r.Height())

	for row := range r.Height() {
		date, err := dateAt(r, row, 0)
		if err != nil {
			return nil, err
		}

		text, _ := r.Get(row, 1)
		if text.IsEmpty() {
			return nil, &CellError{Row: row, Col: 1, Message: "missing news text"}
		}
		url, _ := r.Get(row, 2)

		items = append(items, model.NewsItem{
			Date: model.DateOf(date),
			Text: string(text),
			URL:  string(url),
		})
	}

	return items, nil
}

// dateAt reads a calendar date and returns it as UTC midnight.
func dateAt(r *Range, row, col int) (time.Time, error) {
	cell, ok := r.Get(row, col)
	if !ok || cell.IsEmpty() {
		return time.Time{}, &CellError{Row: row, Col: col, Message: "missing date"}
	}

	t, err := cell.Time()
	if err != nil {
		return time.Time{}, &CellError{Row: row, Col: col, Message: err.Error()}
	}

	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// countAt reads a non-negative count, truncating any fraction.
func countAt(r *Range, row, col int) (uint32, error) {
	cell, _ := r.Get(row, col)

	f, ok := cell.Float()
	if !ok {
		return 0, &CellError{Row: row, Col: col, Message: fmt.Sprintf("expected a number, got %q", string(cell))}
	}

	return toCount(f, row, col)
}

// resolvedAt reads a count through merged-cell resolution.
func resolvedAt(r *Range, row, col int) (uint32, error) {
	f, ok := r.ResolveValue(row, col)
	if !ok {
		return 0, &CellError{Row: row, Col: col, Message: "no value in cell or in the cells below it"}
	}

	return toCount(f, row, col)
}

func toCount(f float64, row, col int) (uint32, error) {
	if f < 0 || f > math.MaxUint32 {
		return 0, &CellError{Row: row, Col: col, Message: fmt.Sprintf("count %v out of range", f)}
	}
	return uint32(f), nil
}
