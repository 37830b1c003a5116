package util

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

const (
	// PlainDateLayout is the calendar date form used by date properties
	// without a time component.
	PlainDateLayout = "2006-01-02"

	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// ErrInvalidDate is returned when a value is neither a plain date nor a
// date-time.
var ErrInvalidDate = errors.New("invalid date value")

var plainDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// zoneless layouts are interpreted in the caller's location.
var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// IsPlainDate reports whether s has the YYYY-MM-DD shape.
func IsPlainDate(s string) bool {
	return plainDateRe.MatchString(s)
}

// ParseDate parses a plain date or a date-time. Plain dates and zoneless
// date-times are placed in loc; plain reports whether s was a plain date.
func ParseDate(s string, loc *time.Location) (t time.Time, plain bool, err error) {
	if loc == nil {
		loc = time.UTC
	}
	if IsPlainDate(s) {
		t, err = time.ParseInLocation(PlainDateLayout, s, loc)
		if err != nil {
			return time.Time{}, true, fmt.Errorf("%w '%s'", ErrInvalidDate, s)
		}
		return t, true, nil
	}
	if t, err = time.Parse(time.RFC3339Nano, s); err == nil {
		return t, false, nil
	}
	for _, layout := range zonelessLayouts {
		if t, err = time.ParseInLocation(layout, s, loc); err == nil {
			return t, false, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%w '%s'", ErrInvalidDate, s)
}

// FormatTimestamp renders t as a UTC timestamp with millisecond precision,
// the form the data source itself emits.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// LocalDate returns the calendar date of t in loc as YYYY-MM-DD.
func LocalDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(PlainDateLayout)
}
