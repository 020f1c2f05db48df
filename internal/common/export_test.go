package common

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fjacquet/stmt-import/internal/logging"
	"fjacquet/stmt-import/internal/models"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTransactions() []models.NormalizedTransaction {
	return []models.NormalizedTransaction{
		{
			Date:                time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			DestinationOriginal: "SPOTIFY *PREMIUM 12345",
			Destination:         "Spotify",
			Alias:               "SPOTIFY *PREMIUM 12345",
			Amount:              decimal.RequireFromString("980"),
			AccountID:           1,
			CategoryID:          20,
			SubCategoryID:       200,
			IsExpense:           true,
			Source:              models.SourceImport,
		},
		{
			Date:                time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC),
			DestinationOriginal: "給与",
			Destination:         "給与",
			Amount:              decimal.RequireFromString("300000"),
			AccountID:           2,
			CategoryID:          10,
			SubCategoryID:       1000,
			IsIncome:            true,
			Source:              models.SourceImport,
		},
	}
}

func TestWriteTransactionsToCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsToCSV(&buf, sampleTransactions(), ','))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "date,destination_original,destination,alias,amount"))
	assert.Contains(t, lines[1], "2024-01-05,SPOTIFY *PREMIUM 12345,Spotify,SPOTIFY *PREMIUM 12345,980.00,1,20,200,false,true")

	var back []TransactionRecord
	require.NoError(t, gocsv.UnmarshalBytes(buf.Bytes(), &back))
	require.Len(t, back, 2)
	assert.Equal(t, "300000.00", back[1].Amount)
	assert.True(t, back[1].IsIncome)
}

func TestWriteTransactionsToCSV_Delimiter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsToCSV(&buf, sampleTransactions()[:1], ';'))
	assert.Contains(t, buf.String(), "date;destination_original;")
}

func TestAppendTransactionsToCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, AppendTransactionsToCSV(&buf, sampleTransactions(), ','))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "2024-01-05,"))
}

func TestExportTransactionsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "batch.csv")
	logger := logging.NewMockLogger()

	require.NoError(t, ExportTransactionsToFile(path, sampleTransactions(), ',', logger))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Spotify")
	assert.True(t, logger.HasEntry("INFO", "Writing transactions to CSV file"))
}

func TestParseDelimiter(t *testing.T) {
	assert.Equal(t, ',', ParseDelimiter(""))
	assert.Equal(t, ';', ParseDelimiter(";"))
	assert.Equal(t, '\t', ParseDelimiter(`\t`))
}

func TestReadTransactionsFromCSV(t *testing.T) {
	var buf bytes.Buffer
	note := "manual note"
	txs := sampleTransactions()
	txs[1].Notes = &note
	require.NoError(t, WriteTransactionsToCSV(&buf, txs, ';'))

	back, err := ReadTransactionsFromCSV(&buf, ';')
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.True(t, back[0].Date.Equal(txs[0].Date))
	assert.True(t, back[0].Amount.Equal(decimal.RequireFromString("980")))
	assert.Nil(t, back[0].Notes)
	require.NotNil(t, back[1].Notes)
	assert.Equal(t, note, *back[1].Notes)
	assert.True(t, back[1].IsIncome)
}

func TestReadTransactionsFromCSV_Empty(t *testing.T) {
	back, err := ReadTransactionsFromCSV(strings.NewReader(""), ',')
	require.NoError(t, err)
	assert.Empty(t, back)
}

func TestReadTransactionsFromCSV_BadAmount(t *testing.T) {
	data := "date,destination_original,destination,alias,amount,account_id,category_id,subcategory_id,is_income,is_expense,is_saving,is_payment,source,notes\n" +
		"2024-01-05,A,A,,abc,1,2,3,false,true,false,false,IMPORT,\n"
	_, err := ReadTransactionsFromCSV(strings.NewReader(data), ',')
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 1")
}
