package models

import (
	"fmt"
	"time"
)

// WindowMode selects how rows are filtered by date.
type WindowMode string

const (
	// WindowIncremental keeps rows strictly after the account cursor.
	WindowIncremental WindowMode = "incremental"
	// WindowRange keeps rows inside an inclusive date range.
	WindowRange WindowMode = "range"
)

// ParseWindowMode converts a mode name into a WindowMode.
func ParseWindowMode(s string) (WindowMode, error) {
	switch m := WindowMode(s); m {
	case WindowIncremental, WindowRange:
		return m, nil
	case "":
		return WindowIncremental, nil
	}
	return "", fmt.Errorf("unsupported import mode %q", s)
}

// WindowSpec describes the date window of an import run. Start and End are
// only used in range mode and each may be nil.
type WindowSpec struct {
	Mode  WindowMode
	Start *time.Time
	End   *time.Time
}

// CursorUpdate is the new last_import_date of an account.
type CursorUpdate struct {
	AccountID      int64
	LastImportDate time.Time
}

// ImportBatch is everything one owner's run hands to persistence.
type ImportBatch struct {
	OwnerID      int64
	Transactions []NormalizedTransaction
	NewPayees    []PayeeMapping
	Cursors      []CursorUpdate
}

// Empty reports whether the batch carries nothing to persist.
func (b ImportBatch) Empty() bool {
	return len(b.Transactions) == 0 && len(b.NewPayees) == 0 && len(b.Cursors) == 0
}
