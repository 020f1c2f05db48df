// Package mizuhoparser reads Mizuho Bank account statement exports. Unlike
// the card adapters it produces two streams: deposits become income rows and
// withdrawals become expense rows.
package mizuhoparser

import (
	"context"
	"io"

	"fjacquet/stmt-import/internal/common"
	"fjacquet/stmt-import/internal/dateutils"
	"fjacquet/stmt-import/internal/logging"
	"fjacquet/stmt-import/internal/models"
	"fjacquet/stmt-import/internal/parser"
)

// Column names of the Mizuho export.
const (
	ColumnDate        = "日付"
	ColumnDeposit     = "お預入金額"
	ColumnWithdrawal  = "お引出金額"
	ColumnDescription = "お取引内容"
)

var requiredColumns = []string{ColumnDate, ColumnDeposit, ColumnWithdrawal, ColumnDescription}

type statementRow struct {
	Date        string `csv:"日付"`
	Deposit     string `csv:"お預入金額"`
	Withdrawal  string `csv:"お引出金額"`
	Description string `csv:"お取引内容"`
}

// Adapter implements parser.Adapter for Mizuho Bank.
type Adapter struct {
	parser.BaseParser
}

// NewAdapter creates a Mizuho adapter. The bank adds no signature tokens of
// its own; extraSignatures can be configured.
func NewAdapter(logger logging.Logger, extraSignatures ...string) *Adapter {
	return &Adapter{
		BaseParser: parser.NewBaseParser(models.ProviderMizuho, logger, nil, extraSignatures...),
	}
}

// ReadConfig implements parser.Adapter. The account summary block takes the
// first nine lines.
func (a *Adapter) ReadConfig() common.FrameConfig {
	return common.FrameConfig{
		Encoding:         common.EncodingShiftJIS,
		HeaderRowsToSkip: 9,
	}
}

// Extract implements parser.Adapter. All income rows are returned before the
// expense rows, each stream in file order. A line with an empty deposit
// cell contributes no income row and likewise for withdrawals.
func (a *Adapter) Extract(ctx context.Context, r io.Reader, name string, account models.Account) ([]models.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := a.ReadConfig()
	rows, err := common.DecodeFrame[statementRow](r, name, cfg, requiredColumns)
	if err != nil {
		return nil, err
	}

	var incomes, expenses []models.RawRow
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := cfg.HeaderRowsToSkip + i + 2

		if parser.HasAmount(row.Deposit) {
			cell := parser.Cell{Line: line, Date: row.Date, Destination: row.Description, Amount: row.Deposit, IsIncome: true}
			if raw, ok := a.BuildRow(cell, account, dateutils.DateLayoutDot); ok {
				incomes = append(incomes, raw)
			}
		}
		if parser.HasAmount(row.Withdrawal) {
			cell := parser.Cell{Line: line, Date: row.Date, Destination: row.Description, Amount: row.Withdrawal}
			if raw, ok := a.BuildRow(cell, account, dateutils.DateLayoutDot); ok {
				expenses = append(expenses, raw)
			}
		}
	}

	out := make([]models.RawRow, 0, len(incomes)+len(expenses))
	out = append(out, incomes...)
	out = append(out, expenses...)

	a.Summarize(name, account, len(rows), out)
	return out, nil
}
