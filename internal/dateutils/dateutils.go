// Package dateutils provides the date handling shared by the statement
// adapters and the import window: per-institution layouts, date-only
// normalisation and cursor arithmetic.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/width"
)

// Statement date layouts. Month and day accept one or two digits.
const (
	DateLayoutISO   = "2006-01-02"
	DateLayoutSlash = "2006/1/2"
	DateLayoutKanji = "2006年1月2日"
	DateLayoutDot   = "2006.1.2"
)

var spaceRe = regexp.MustCompile(`\s+`)

// CleanDateString folds full-width characters to their narrow form and
// collapses whitespace.
func CleanDateString(dateStr string) string {
	dateStr = width.Fold.String(dateStr)
	dateStr = strings.TrimSpace(dateStr)
	return spaceRe.ReplaceAllString(dateStr, " ")
}

// ParseDate parses dateStr with the first matching layout and returns the
// date at UTC midnight.
func ParseDate(dateStr string, layouts ...string) (time.Time, error) {
	clean := CleanDateString(dateStr)
	if clean == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if len(layouts) == 0 {
		layouts = []string{DateLayoutISO}
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, clean); err == nil {
			return DateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// ParseISODate parses a YYYY-MM-DD flag value. An empty string yields nil.
func ParseISODate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayoutISO, strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return &t, nil
}

// DateOnly drops the clock part of t and returns the same calendar day at
// UTC midnight.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// CompareDates compares the calendar days of two dates and returns -1, 0 or 1.
func CompareDates(date1, date2 time.Time) int {
	date1 = DateOnly(date1)
	date2 = DateOnly(date2)

	switch {
	case date1.Before(date2):
		return -1
	case date1.After(date2):
		return 1
	default:
		return 0
	}
}

// MaxDate returns the latest date of the slice, or nil when it is empty.
func MaxDate(dates []time.Time) *time.Time {
	if len(dates) == 0 {
		return nil
	}
	max := dates[0]
	for _, d := range dates[1:] {
		if d.After(max) {
			max = d
		}
	}
	max = DateOnly(max)
	return &max
}

// FormatCursor renders a nullable cursor for logs and listings.
func FormatCursor(cursor *time.Time) string {
	if cursor == nil {
		return "never"
	}
	return ToISODate(*cursor)
}
