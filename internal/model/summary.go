package model

import (
	"fmt"
	"time"
)

// dateLayout is the wire format of a calendar Date.
const dateLayout = "2006-01-02"

// LastUpdate records the instant of the data revision most recently ingested.
type LastUpdate struct {
	Datetime time.Time `json:"datetime"`
}

// SummaryContent is a single day of a Summary series.
type SummaryContent struct {
	// Date is the calendar day at UTC midnight.
	Date time.Time `json:"date"`
	Sum  uint32    `json:"sum"`
}

// Summary is a daily series together with the revision it was built from.
type Summary struct {
	Data       []SummaryContent `json:"data"`
	LastUpdate time.Time        `json:"last_update"`
}

// NewSummary returns an empty Summary stamped with lastUpdate.
func NewSummary(lastUpdate time.Time) *Summary {
	return &Summary{
		Data:       []SummaryContent{},
		LastUpdate: lastUpdate,
	}
}

// Date is a calendar date without time of day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid date %s", data)
	}

	t, err := time.Parse(dateLayout, string(data[1:len(data)-1]))
	if err != nil {
		return fmt.Errorf("invalid date %s: %w", data, err)
	}

	*d = DateOf(t)
	return nil
}

// NewsItem is one entry of the "latest information" list.
type NewsItem struct {
	Date Date   `json:"date"`
	Text string `json:"text"`
	URL  string `json:"url"`
}

// NewsItems keeps news entries in worksheet row order.
type NewsItems struct {
	NewsItems []NewsItem `json:"news_items"`
}
