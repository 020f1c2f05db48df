// Package rakutenparser reads Rakuten Card statement exports.
package rakutenparser

import (
	"context"
	"io"

	"fjacquet/stmt-import/internal/common"
	"fjacquet/stmt-import/internal/dateutils"
	"fjacquet/stmt-import/internal/logging"
	"fjacquet/stmt-import/internal/models"
	"fjacquet/stmt-import/internal/parser"
)

// Column names of the Rakuten export.
const (
	ColumnDate        = "利用日"
	ColumnDestination = "利用店名・商品名"
	ColumnAmount      = "利用金額"
)

// Signatures are the tokens Rakuten appends to merchant names.
var Signatures = []string{"楽天ＳＰ", "/N"}

var requiredColumns = []string{ColumnDate, ColumnDestination, ColumnAmount}

// statementRow maps the columns used from a Rakuten export. The file has
// more columns; they are ignored.
type statementRow struct {
	Date        string `csv:"利用日"`
	Destination string `csv:"利用店名・商品名"`
	Amount      string `csv:"利用金額"`
}

// Adapter implements parser.Adapter for Rakuten Card.
type Adapter struct {
	parser.BaseParser
}

// NewAdapter creates a Rakuten adapter. extraSignatures are stripped in
// addition to the built-in ones.
func NewAdapter(logger logging.Logger, extraSignatures ...string) *Adapter {
	return &Adapter{
		BaseParser: parser.NewBaseParser(models.ProviderRakuten, logger, Signatures, extraSignatures...),
	}
}

// ReadConfig implements parser.Adapter. Rakuten exports UTF-8 with a single
// header row and no footer.
func (a *Adapter) ReadConfig() common.FrameConfig {
	return common.FrameConfig{Encoding: common.EncodingUTF8}
}

// Extract implements parser.Adapter. Card statements produce a single
// expense stream.
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
		if raw, ok := a.BuildRow(cell, account, dateutils.DateLayoutSlash); ok {
			out = append(out, raw)
		}
	}

	a.Summarize(name, account, len(rows), out)
	return out, nil
}
