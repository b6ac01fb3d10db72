package email

import "time"

// DeclaredTime is the wall clock and zone written in a message's Date header.
type DeclaredTime struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int

	// BeforeGMT is set for zones west of Greenwich (negative offsets).
	BeforeGMT  bool
	ZoneHour   int
	ZoneMinute int
}

// DeclaredTimeOf splits a parsed header date into its declared parts.
func DeclaredTimeOf(t time.Time) DeclaredTime {
	_, offset := t.Zone()

	before := offset < 0
	if before {
		offset = -offset
	}

	return DeclaredTime{
		Year:       t.Year(),
		Month:      t.Month(),
		Day:        t.Day(),
		Hour:       t.Hour(),
		Minute:     t.Minute(),
		Second:     t.Second(),
		BeforeGMT:  before,
		ZoneHour:   offset / 3600,
		ZoneMinute: (offset % 3600) / 60,
	}
}

// Resolve returns the absolute instant of d expressed at localOffset
// seconds east of UTC.
//
// The wall clock is first read as if it were UTC, then moved back by the
// declared zone: subtracted when the zone is east of Greenwich, added when
// it is west.
func (d DeclaredTime) Resolve(localOffset int) time.Time {
	naive := time.Date(d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second, 0, time.UTC)

	shift := time.Duration(d.ZoneHour)*time.Hour + time.Duration(d.ZoneMinute)*time.Minute
	if d.BeforeGMT {
		naive = naive.Add(shift)
	} else {
		naive = naive.Add(-shift)
	}

	return naive.In(time.FixedZone("", localOffset))
}

// LocalOffset returns the runtime's current offset from UTC in seconds.
func LocalOffset() int {
	_, offset := time.Now().Zone()
	return offset
}
