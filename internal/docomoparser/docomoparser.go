// Package docomoparser reads d Card statement exports.
package docomoparser

import (
	"context"
	"io"

	"fjacquet/stmt-import/internal/common"
	"fjacquet/stmt-import/internal/dateutils"
	"fjacquet/stmt-import/internal/logging"
	"fjacquet/stmt-import/internal/models"
	"fjacquet/stmt-import/internal/parser"
)

// The d Card header changes between export versions, so the first three
// columns are addressed by position.
var positionalColumns = []string{"date", "destination", "amount"}

// Signatures are the iD payment tokens d Card adds to merchant names.
var Signatures = []string{"／ｉＤ", "ｉＤ／", "　／ｉＤ"}

type statementRow struct {
	Date        string `csv:"date"`
	Destination string `csv:"destination"`
	Amount      string `csv:"amount"`
}

// Adapter implements parser.Adapter for d Card.
type Adapter struct {
	parser.BaseParser
}

// NewAdapter creates a d Card adapter.
func NewAdapter(logger logging.Logger, extraSignatures ...string) *Adapter {
	return &Adapter{
		BaseParser: parser.NewBaseParser(models.ProviderDocomo, logger, Signatures, extraSignatures...),
	}
}

// ReadConfig implements parser.Adapter.
func (a *Adapter) ReadConfig() common.FrameConfig {
	return common.FrameConfig{
		Encoding:         common.EncodingCP932,
		HeaderRowsToSkip: 1,
		FooterRowsToSkip: 3,
		Columns:          positionalColumns,
	}
}

// Extract implements parser.Adapter. The cardholder line that precedes each
// card's rows has a name in the date column and is dropped like any other
// undated row.
func (a *Adapter) Extract(ctx context.Context, r io.Reader, name string, account models.Account) ([]models.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := a.ReadConfig()
	rows, err := common.DecodeFrame[statementRow](r, name, cfg, positionalColumns)
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
		if raw, ok := a.BuildRow(cell, account, dateutils.DateLayoutSlash); ok {
			out = append(out, raw)
		}
	}

	a.Summarize(name, account, len(rows), out)
	return out, nil
}
