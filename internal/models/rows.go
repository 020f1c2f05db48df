package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawRow is one accepted statement line after adapter extraction.
// DestinationOriginal is the signature-cleaned merchant text and never
// changes after extraction; Destination starts equal to it and may be
// rewritten to a canonical name later.
type RawRow struct {
	Index               int
	Date                time.Time
	DestinationOriginal string
	Destination         string
	Alias               string
	Amount              decimal.Decimal
	IsIncome            bool
	AccountID           int64
}

// NewRawRow builds a row whose destination and original destination are
// both set to the cleaned merchant text.
func NewRawRow(date time.Time, destination string, amount decimal.Decimal, isIncome bool, accountID int64) RawRow {
	return RawRow{
		Date:                date,
		DestinationOriginal: destination,
		Destination:         destination,
		Amount:              amount,
		IsIncome:            isIncome,
		AccountID:           accountID,
	}
}

// RowKey identifies a row by every field except its position. Two rows with
// equal keys are the same statement line exported twice.
type RowKey struct {
	Date                string
	DestinationOriginal string
	Destination         string
	Alias               string
	Amount              string
	IsIncome            bool
	AccountID           int64
}

// Key returns the equality key of the row.
func (r RawRow) Key() RowKey {
	return RowKey{
		Date:                r.Date.Format(DateLayout),
		DestinationOriginal: r.DestinationOriginal,
		Destination:         r.Destination,
		Alias:               r.Alias,
		Amount:              r.Amount.StringFixed(2),
		IsIncome:            r.IsIncome,
		AccountID:           r.AccountID,
	}
}
