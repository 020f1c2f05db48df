// Package batch implements the import window: it selects which extracted
// rows belong to a run, removes re-exported duplicates and orders the result
// by date.
package batch

import (
	"fmt"
	"sort"
	"time"

	"fjacquet/stmt-import/internal/dateutils"
	"fjacquet/stmt-import/internal/logging"
	"fjacquet/stmt-import/internal/models"
)

// DateRange represents a date range with start and end dates. Zero values
// mean the bound is open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// String returns the date range in the format "YYYY-MM-DD_YYYY-MM-DD"
func (dr DateRange) String() string {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s_%s",
		dr.Start.Format(dateutils.DateLayoutISO),
		dr.End.Format(dateutils.DateLayoutISO))
}

// Merge combines this date range with another, returning the overall range
func (dr DateRange) Merge(other DateRange) DateRange {
	start := dr.Start
	end := dr.End

	if dr.Start.IsZero() {
		start = other.Start
	} else if !other.Start.IsZero() && other.Start.Before(start) {
		start = other.Start
	}

	if dr.End.IsZero() {
		end = other.End
	} else if !other.End.IsZero() && other.End.After(end) {
		end = other.End
	}

	return DateRange{Start: start, End: end}
}

// RangeOf returns the span of dates covered by rows.
func RangeOf(rows []models.RawRow) DateRange {
	var dr DateRange
	for _, r := range rows {
		dr = dr.Merge(DateRange{Start: r.Date, End: r.Date})
	}
	return dr
}

// Filter keeps the rows inside the window. In incremental mode that is every
// row dated strictly after the account cursor, or every row when the account
// has never been imported. In range mode it is every row between spec.Start
// and spec.End inclusive; each bound is optional and the cursor is ignored.
func Filter(rows []models.RawRow, account models.Account, spec models.WindowSpec) []models.RawRow {
	out := make([]models.RawRow, 0, len(rows))
	for _, r := range rows {
		if inWindow(r.Date, account, spec) {
			out = append(out, r)
		}
	}
	return out
}

func inWindow(date time.Time, account models.Account, spec models.WindowSpec) bool {
	if spec.Mode == models.WindowRange {
		if spec.Start != nil && dateutils.CompareDates(date, *spec.Start) < 0 {
			return false
		}
		if spec.End != nil && dateutils.CompareDates(date, *spec.End) > 0 {
			return false
		}
		return true
	}
	if account.LastImportDate == nil {
		return true
	}
	return dateutils.CompareDates(date, *account.LastImportDate) > 0
}

// Deduplicate drops rows equal in every field to an earlier row, keeping the
// first occurrence.
func Deduplicate(rows []models.RawRow) []models.RawRow {
	seen := make(map[models.RowKey]struct{}, len(rows))
	out := make([]models.RawRow, 0, len(rows))
	for _, r := range rows {
		key := r.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// SortByDate returns rows in ascending date order with Index renumbered from
// zero. Rows sharing a date keep their relative order.
func SortByDate(rows []models.RawRow) []models.RawRow {
	out := make([]models.RawRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	for i := range out {
		out[i].Index = i
	}
	return out
}

// Cursor returns the latest date among rows, or nil when rows is empty. A nil
// result means the account cursor must be left unchanged.
func Cursor(rows []models.RawRow) *time.Time {
	dates := make([]time.Time, len(rows))
	for i, r := range rows {
		dates[i] = r.Date
	}
	return dateutils.MaxDate(dates)
}

// WindowManager applies the window steps in order and logs what each one
// removed.
type WindowManager struct {
	logger logging.Logger
}

// NewWindowManager creates a WindowManager.
func NewWindowManager(logger logging.Logger) *WindowManager {
	return &WindowManager{logger: logging.OrDefault(logger)}
}

// SelectWindow filters rows to the window, removes duplicates and sorts the
// survivors by date.
func (w *WindowManager) SelectWindow(rows []models.RawRow, account models.Account, spec models.WindowSpec) []models.RawRow {
	filtered := Filter(rows, account, spec)
	unique := Deduplicate(filtered)
	sorted := SortByDate(unique)

	w.logger.Debug("Selected import window",
		logging.Field{Key: logging.FieldAccountID, Value: account.ID},
		logging.Field{Key: logging.FieldMode, Value: string(spec.Mode)},
		logging.Field{Key: logging.FieldCursor, Value: dateutils.FormatCursor(account.LastImportDate)},
		logging.Field{Key: "extracted", Value: len(rows)},
		logging.Field{Key: "outside_window", Value: len(rows) - len(filtered)},
		logging.Field{Key: "duplicates", Value: len(filtered) - len(unique)},
		logging.Field{Key: logging.FieldCount, Value: len(sorted)},
		logging.Field{Key: "range", Value: RangeOf(sorted).String()})

	return sorted
}
