// Package eposparser reads Epos Card statement exports.
package eposparser

import (
	"context"
	"io"

	"fjacquet/stmt-import/internal/common"
	"fjacquet/stmt-import/internal/dateutils"
	"fjacquet/stmt-import/internal/logging"
	"fjacquet/stmt-import/internal/models"
	"fjacquet/stmt-import/internal/parser"
)

// Column names of the Epos export.
const (
	ColumnDate        = "ご利用年月日"
	ColumnDestination = "ご利用場所"
	ColumnAmount      = "ご利用金額（キャッシングでは元金になります）"
)

// Signatures are the payment-network tokens Epos wraps merchant names with.
var Signatures = []string{"／Ｎ", "／ＮＦＣ", "ＡＰ／", "／ＮＦＣ ()", "\tＡＰ／"}

var requiredColumns = []string{ColumnDate, ColumnDestination, ColumnAmount}

type statementRow struct {
	Date        string `csv:"ご利用年月日"`
	Destination string `csv:"ご利用場所"`
	Amount      string `csv:"ご利用金額（キャッシングでは元金になります）"`
}

// Adapter implements parser.Adapter for Epos Card.
type Adapter struct {
	parser.BaseParser
}

// NewAdapter creates an Epos adapter.
func NewAdapter(logger logging.Logger, extraSignatures ...string) *Adapter {
	return &Adapter{
		BaseParser: parser.NewBaseParser(models.ProviderEpos, logger, Signatures, extraSignatures...),
	}
}

// ReadConfig implements parser.Adapter. Epos exports CP932 with one title
// line above the header and a five-line totals block at the end.
func (a *Adapter) ReadConfig() common.FrameConfig {
	return common.FrameConfig{
		Encoding:         common.EncodingCP932,
		HeaderRowsToSkip: 1,
		FooterRowsToSkip: 5,
	}
}

// Extract implements parser.Adapter.
func (a *Adapter) Extract(ctx context.Context, r io.Reader, name string, account models.Account) ([]models.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := a.ReadConfig()
	rows, err := common.DecodeFrame[statementRow](r, name, cfg, requiredColumns)
	if err != nil {
		return nil, err
	}

	out := make([]models.RawRow, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cell := parser.Cell{
			Line:        cfg.HeaderRowsToSkip + i + 2,
			Date:        row.Date,
			Destination: row.Destination,
			Amount:      row.Amount,
		}
		if raw, ok := a.BuildRow(cell, account, dateutils.DateLayoutKanji); ok {
			out = append(out, raw)
		}
	}

	a.Summarize(name, account, len(rows), out)
	return out, nil
}
