package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// NormalizedTransaction is the canonical transaction record produced by an import.
type NormalizedTransaction struct {
	Date                time.Time
	DestinationOriginal string
	Destination         string
	Alias               string
	Amount              decimal.Decimal
	AccountID           int64
	CategoryID          int64
	SubCategoryID       int64
	IsIncome            bool
	IsExpense           bool
	IsSaving            bool
	IsPayment           bool
	Source              string
	Notes               *string
}

var (
	errIncomeExpense = errors.New("exactly one of income or expense must be set")
	errSavingPayment = errors.New("saving and payment are mutually exclusive")
	errIncomeFlags   = errors.New("income transactions cannot be savings or payments")
)

// Validate checks the flag invariants of a freshly imported transaction.
func (t NormalizedTransaction) Validate() error {
	if t.IsIncome == t.IsExpense {
		return errIncomeExpense
	}
	if t.IsSaving && t.IsPayment {
		return errSavingPayment
	}
	if t.IsIncome && (t.IsSaving || t.IsPayment) {
		return errIncomeFlags
	}
	return nil
}
