package load

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/stmt-import/internal/common"
	"fjacquet/stmt-import/internal/config"
	"fjacquet/stmt-import/internal/container"
	"fjacquet/stmt-import/internal/filesource"
	"fjacquet/stmt-import/internal/logging"
	"fjacquet/stmt-import/internal/models"
	"fjacquet/stmt-import/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rakutenJanuary = "利用日,利用店名・商品名,利用金額\n" +
	"2024/01/05,SPOTIFY *PREMIUM 12345 /N,980\n" +
	"2024/01/09,新しいカフェ,520\n"

const rakutenFebruary = "利用日,利用店名・商品名,利用金額\n" +
	"2024/01/20,新しいカフェ,520\n" +
	"2024/02/02,積立投資,10000\n"

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testStore() *store.MockStore {
	return &store.MockStore{
		Accounts: []models.Account{
			{ID: 1, OwnerID: 1, Provider: models.ProviderRakuten},
			{ID: 2, OwnerID: 1, Provider: models.ProviderRakuten, SourcePath: "rakuten-family"},
		},
		Categories: []models.Category{
			{ID: 1, OwnerID: 1, Name: "N/A", Type: models.CategoryTypeExpense, Role: models.RoleNA},
			{ID: 2, OwnerID: 1, Name: "Other income", Type: models.CategoryTypeIncome, Role: models.RoleIncome},
			{ID: 3, OwnerID: 1, Name: "Savings", Type: models.CategoryTypeSavings, Role: models.RoleSavings},
			{ID: 4, OwnerID: 1, Name: "Card payment", Type: models.CategoryTypePayment, Role: models.RolePayment},
		},
		SubCategories: []models.SubCategory{
			{ID: 10, OwnerID: 1, CategoryID: 1, Name: "N/A", Role: models.RoleNA},
		},
	}
}

func newTestContainer(t *testing.T) (*container.Container, *store.MockStore, *logging.MockLogger) {
	t.Helper()
	cfg := &config.Config{}
	cfg.CSV.Delimiter = ","
	cfg.Store.Driver = "file"
	cfg.Source.Driver = "local"
	cfg.Import.Workers = 2
	cfg.Import.Mode = "incremental"

	src := filesource.NewMemorySource()
	src.Add("rakuten/2024-01.csv", []byte(rakutenJanuary))
	src.Add("rakuten-family/2024-02.csv", []byte(rakutenFebruary))

	st := testStore()
	logger := logging.NewMockLogger()
	return container.NewContainerWithDeps(cfg, logger, st, src), st, logger
}

func TestOptions_WindowSpec(t *testing.T) {
	jan1, jan31 := day(2024, 1, 1), day(2024, 1, 31)
	tests := []struct {
		name        string
		opts        Options
		expected    models.WindowSpec
		expectError string
	}{
		{name: "default mode", opts: Options{}, expected: models.WindowSpec{Mode: models.WindowIncremental}},
		{name: "explicit range", opts: Options{Mode: "range", Start: "2024-01-01", End: "2024-01-31"},
			expected: models.WindowSpec{Mode: models.WindowRange, Start: &jan1, End: &jan31}},
		{name: "dates imply range", opts: Options{Start: "2024-01-01"},
			expected: models.WindowSpec{Mode: models.WindowRange, Start: &jan1}},
		{name: "open range", opts: Options{Mode: "range"}, expected: models.WindowSpec{Mode: models.WindowRange}},
		{name: "dates with incremental", opts: Options{Mode: "incremental", End: "2024-01-31"}, expectError: "require --mode range"},
		{name: "unknown mode", opts: Options{Mode: "weekly"}, expectError: "unsupported import mode"},
		{name: "bad start", opts: Options{Start: "01/02/2024"}, expectError: "--start"},
		{name: "bad end", opts: Options{End: "2024-13-01"}, expectError: "--end"},
		{name: "inverted range", opts: Options{Start: "2024-02-01", End: "2024-01-01"}, expectError: "is after"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := tt.opts.WindowSpec(models.WindowIncremental)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, spec)
		})
	}
}

func TestOptions_SelectAccounts(t *testing.T) {
	accounts := []models.Account{
		{ID: 1, OwnerID: 1}, {ID: 2, OwnerID: 1}, {ID: 3, OwnerID: 2},
	}

	assert.Len(t, Options{}.SelectAccounts(accounts), 3)
	assert.Len(t, Options{OwnerID: 1}.SelectAccounts(accounts), 2)

	selected := Options{AccountIDs: []int64{3, 2}}.SelectAccounts(accounts)
	require.Len(t, selected, 2)
	assert.Equal(t, int64(2), selected[0].ID)
	assert.Equal(t, int64(3), selected[1].ID)

	assert.Empty(t, Options{OwnerID: 2, AccountIDs: []int64{1}}.SelectAccounts(accounts))
}

func TestRun_SavesBatch(t *testing.T) {
	c, st, _ := newTestContainer(t)
	var out bytes.Buffer

	err := Run(context.Background(), c, Options{}, &out)
	require.NoError(t, err)

	require.Len(t, st.SavedBatches, 1)
	assert.Len(t, st.SavedBatches[0].Transactions, 4)
	require.NotNil(t, st.Accounts[0].LastImportDate)
	assert.Equal(t, day(2024, 1, 9), *st.Accounts[0].LastImportDate)
	assert.Equal(t, day(2024, 2, 2), *st.Accounts[1].LastImportDate)

	assert.Contains(t, out.String(), "owner 1: 4 transactions, 3 new payees saved")
	assert.Contains(t, out.String(), "account 2: last import date 2024-02-02")
}

func TestRun_DryRunSavesNothing(t *testing.T) {
	c, st, _ := newTestContainer(t)
	var out bytes.Buffer

	err := Run(context.Background(), c, Options{DryRun: true}, &out)
	require.NoError(t, err)
	assert.Empty(t, st.SavedBatches)
	assert.Nil(t, st.Accounts[0].LastImportDate)
	assert.Contains(t, out.String(), "resolved (dry run)")
}

func TestRun_RangeWithExport(t *testing.T) {
	c, _, _ := newTestContainer(t)
	exportPath := filepath.Join(t.TempDir(), "january.csv")
	var out bytes.Buffer

	err := Run(context.Background(), c, Options{
		Start:      "2024-01-01",
		End:        "2024-01-31",
		ExportPath: exportPath,
		DryRun:     true,
	}, &out)
	require.NoError(t, err)

	txs, err := readExport(exportPath)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	for _, tx := range txs {
		assert.Equal(t, time.January, tx.Date.Month())
	}
}

func TestRun_AccountFilter(t *testing.T) {
	c, st, _ := newTestContainer(t)
	var out bytes.Buffer

	require.NoError(t, Run(context.Background(), c, Options{AccountIDs: []int64{2}}, &out))
	require.Len(t, st.SavedBatches, 1)
	require.Len(t, st.SavedBatches[0].Cursors, 1)
	assert.Equal(t, int64(2), st.SavedBatches[0].Cursors[0].AccountID)
	assert.Nil(t, st.Accounts[0].LastImportDate)
}

func TestRun_NoMatchingAccounts(t *testing.T) {
	c, st, logger := newTestContainer(t)
	var out bytes.Buffer

	require.NoError(t, Run(context.Background(), c, Options{OwnerID: 42}, &out))
	assert.Empty(t, st.SavedBatches)
	assert.True(t, logger.HasEntry("WARN", "No accounts match the selection"))
}

func TestRun_ReportsOwnerFailure(t *testing.T) {
	c, st, _ := newTestContainer(t)
	st.SaveImportError = assert.AnError
	var out bytes.Buffer

	err := Run(context.Background(), c, Options{}, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, out.String(), "owner 1: failed")
}

func TestRun_LoadAccountsError(t *testing.T) {
	c, st, _ := newTestContainer(t)
	st.LoadAccountsError = assert.AnError

	err := Run(context.Background(), c, Options{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load accounts")
}

func TestRun_InvalidWindow(t *testing.T) {
	c, st, _ := newTestContainer(t)

	err := Run(context.Background(), c, Options{Mode: "incremental", Start: "2024-01-01"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Empty(t, st.SavedBatches)
}

func readExport(path string) ([]models.NormalizedTransaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return common.ReadTransactionsFromCSV(f, ',')
}
