package parser

import (
	"errors"
	"strconv"

	"fjacquet/stmt-import/internal/currencyutils"
	"fjacquet/stmt-import/internal/dateutils"
	"fjacquet/stmt-import/internal/logging"
	"fjacquet/stmt-import/internal/models"
	"fjacquet/stmt-import/internal/parsererror"
	"fjacquet/stmt-import/internal/textutils"

	"github.com/shopspring/decimal"
)

// BaseParser carries what every institution adapter needs: a logger, the
// provider name and the signature tokens stripped from merchant text.
//
// Adapters embed it:
//
//	type Adapter struct {
//		parser.BaseParser
//	}
type BaseParser struct {
	logger     logging.Logger
	provider   models.Provider
	signatures []string
}

// NewBaseParser creates a BaseParser. Extra signatures are appended to the
// built-in ones. A nil logger falls back to the process default.
func NewBaseParser(provider models.Provider, logger logging.Logger, builtin []string, extra ...string) BaseParser {
	return BaseParser{
		logger:     logging.OrDefault(logger).WithField(logging.FieldProvider, string(provider)),
		provider:   provider,
		signatures: textutils.MergeSignatures(builtin, extra...),
	}
}

// Provider implements Adapter.
func (b *BaseParser) Provider() models.Provider {
	return b.provider
}

// SetLogger replaces the logger.
func (b *BaseParser) SetLogger(logger logging.Logger) {
	if logger != nil {
		b.logger = logger.WithField(logging.FieldProvider, string(b.provider))
	}
}

// GetLogger returns the current logger instance.
func (b *BaseParser) GetLogger() logging.Logger {
	return b.logger
}

// Signatures returns the signature tokens applied by CleanDestination.
func (b *BaseParser) Signatures() []string {
	return b.signatures
}

// CleanDestination strips the institution signature tokens from merchant text.
func (b *BaseParser) CleanDestination(text string) string {
	return textutils.CleanSignatures(text, b.signatures)
}

// Cell is one logical statement line before validation.
type Cell struct {
	Line        int
	Date        string
	Destination string
	Amount      string
	IsIncome    bool
}

// BuildRow validates a line and turns it into a RawRow. It returns false when
// the line must be dropped; the reason is logged at debug level.
func (b *BaseParser) BuildRow(cell Cell, account models.Account, layouts ...string) (models.RawRow, bool) {
	date, err := dateutils.ParseDate(cell.Date, layouts...)
	if err != nil {
		b.drop(cell, &parsererror.ParseError{Parser: string(b.provider), Field: "date", Value: cell.Date, Err: err})
		return models.RawRow{}, false
	}

	amount, err := currencyutils.ParseAmount(cell.Amount)
	if err != nil {
		b.drop(cell, &parsererror.ParseError{Parser: string(b.provider), Field: "amount", Value: cell.Amount, Err: err})
		return models.RawRow{}, false
	}

	destination := b.CleanDestination(cell.Destination)
	if destination == "" {
		b.drop(cell, &parsererror.ParseError{Parser: string(b.provider), Field: "destination", Value: cell.Destination, Err: errors.New("empty merchant")})
		return models.RawRow{}, false
	}

	return models.NewRawRow(date, destination, amount, cell.IsIncome, account.ID), true
}

// HasAmount reports whether an amount cell holds a value. Bank exports leave
// the unused deposit or withdrawal cell empty.
func HasAmount(s string) bool {
	_, err := currencyutils.ParseAmount(s)
	return !errors.Is(err, currencyutils.ErrEmptyAmount)
}

func (b *BaseParser) drop(cell Cell, err *parsererror.ParseError) {
	b.logger.Debug("Dropping statement row",
		logging.Field{Key: logging.FieldRow, Value: strconv.Itoa(cell.Line)},
		logging.Field{Key: "reason", Value: err.Error()})
}

// Total sums row amounts, used for extraction summaries.
func Total(rows []models.RawRow) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Amount)
	}
	return total
}

// Summarize logs the outcome of one extraction. lines is the number of data
// lines read from the file.
func (b *BaseParser) Summarize(name string, account models.Account, lines int, rows []models.RawRow) {
	b.logger.Info("Extracted statement rows",
		logging.Field{Key: logging.FieldFile, Value: name},
		logging.Field{Key: logging.FieldAccountID, Value: account.ID},
		logging.Field{Key: logging.FieldCount, Value: len(rows)},
		logging.Field{Key: "lines", Value: lines},
		logging.Field{Key: "total", Value: Total(rows).StringFixed(2)})
}
