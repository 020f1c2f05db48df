package common

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"fjacquet/stmt-import/internal/currencyutils"
	"fjacquet/stmt-import/internal/fileutils"
	"fjacquet/stmt-import/internal/logging"
	"fjacquet/stmt-import/internal/models"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// TransactionRecord is the flat CSV shape of a NormalizedTransaction.
type TransactionRecord struct {
	Date                string `csv:"date"`
	DestinationOriginal string `csv:"destination_original"`
	Destination         string `csv:"destination"`
	Alias               string `csv:"alias"`
	Amount              string `csv:"amount"`
	AccountID           int64  `csv:"account_id"`
	CategoryID          int64  `csv:"category_id"`
	SubCategoryID       int64  `csv:"subcategory_id"`
	IsIncome            bool   `csv:"is_income"`
	IsExpense           bool   `csv:"is_expense"`
	IsSaving            bool   `csv:"is_saving"`
	IsPayment           bool   `csv:"is_payment"`
	Source              string `csv:"source"`
	Notes               string `csv:"notes"`
}

// NewTransactionRecord flattens tx for CSV output.
func NewTransactionRecord(tx models.NormalizedTransaction) TransactionRecord {
	rec := TransactionRecord{
		Date:                tx.Date.Format(models.DateLayout),
		DestinationOriginal: tx.DestinationOriginal,
		Destination:         tx.Destination,
		Alias:               tx.Alias,
		Amount:              currencyutils.FormatAmount(tx.Amount),
		AccountID:           tx.AccountID,
		CategoryID:          tx.CategoryID,
		SubCategoryID:       tx.SubCategoryID,
		IsIncome:            tx.IsIncome,
		IsExpense:           tx.IsExpense,
		IsSaving:            tx.IsSaving,
		IsPayment:           tx.IsPayment,
		Source:              tx.Source,
	}
	if tx.Notes != nil {
		rec.Notes = *tx.Notes
	}
	return rec
}

// WriteTransactionsToCSV writes transactions with a header row to w.
func WriteTransactionsToCSV(w io.Writer, transactions []models.NormalizedTransaction, delimiter rune) error {
	return writeRecords(w, transactions, delimiter, true)
}

// AppendTransactionsToCSV writes transactions without a header row.
func AppendTransactionsToCSV(w io.Writer, transactions []models.NormalizedTransaction, delimiter rune) error {
	return writeRecords(w, transactions, delimiter, false)
}

func writeRecords(w io.Writer, transactions []models.NormalizedTransaction, delimiter rune, header bool) error {
	records := make([]TransactionRecord, len(transactions))
	for i, tx := range transactions {
		records[i] = NewTransactionRecord(tx)
	}

	csvWriter := csv.NewWriter(w)
	if delimiter != 0 {
		csvWriter.Comma = delimiter
	}
	safe := gocsv.NewSafeCSVWriter(csvWriter)

	var err error
	if header {
		err = gocsv.MarshalCSV(&records, safe)
	} else {
		err = gocsv.MarshalCSVWithoutHeaders(&records, safe)
	}
	if err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	safe.Flush()
	return safe.Error()
}

// ExportTransactionsToFile writes transactions to a new CSV file, creating
// parent directories as needed.
func ExportTransactionsToFile(path string, transactions []models.NormalizedTransaction, delimiter rune, logger logging.Logger) error {
	logger = logging.OrDefault(logger)
	logger.Info("Writing transactions to CSV file",
		logging.Field{Key: logging.FieldOutputFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: len(transactions)})

	file, err := fileutils.CreateFile(path, models.PermissionExportFile)
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	if err := WriteTransactionsToCSV(file, transactions, delimiter); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// Transaction converts a CSV record back into a NormalizedTransaction.
func (r TransactionRecord) Transaction() (models.NormalizedTransaction, error) {
	date, err := time.Parse(models.DateLayout, r.Date)
	if err != nil {
		return models.NormalizedTransaction{}, fmt.Errorf("invalid date %q: %w", r.Date, err)
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return models.NormalizedTransaction{}, fmt.Errorf("invalid amount %q: %w", r.Amount, err)
	}
	tx := models.NormalizedTransaction{
		Date:                date,
		DestinationOriginal: r.DestinationOriginal,
		Destination:         r.Destination,
		Alias:               r.Alias,
		Amount:              amount,
		AccountID:           r.AccountID,
		CategoryID:          r.CategoryID,
		SubCategoryID:       r.SubCategoryID,
		IsIncome:            r.IsIncome,
		IsExpense:           r.IsExpense,
		IsSaving:            r.IsSaving,
		IsPayment:           r.IsPayment,
		Source:              r.Source,
	}
	if r.Notes != "" {
		notes := r.Notes
		tx.Notes = &notes
	}
	return tx, nil
}

// ReadTransactionsFromCSV decodes a CSV produced by WriteTransactionsToCSV.
func ReadTransactionsFromCSV(r io.Reader, delimiter rune) ([]models.NormalizedTransaction, error) {
	csvReader := csv.NewReader(r)
	if delimiter != 0 {
		csvReader.Comma = delimiter
	}
	var records []TransactionRecord
	if err := gocsv.UnmarshalCSV(csvReader, &records); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading CSV data: %w", err)
	}
	out := make([]models.NormalizedTransaction, 0, len(records))
	for i, rec := range records {
		tx, err := rec.Transaction()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		out = append(out, tx)
	}
	return out, nil
}

// ParseDelimiter returns the first rune of s, or a comma when s is empty.
func ParseDelimiter(s string) rune {
	if s == "" {
		return ','
	}
	if s == `\t` {
		return '\t'
	}
	if r, err := strconv.Unquote(`"` + s + `"`); err == nil && r != "" {
		return []rune(r)[0]
	}
	return []rune(s)[0]
}
