package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fjacquet/stmt-import/internal/common"
	"fjacquet/stmt-import/internal/config"
	"fjacquet/stmt-import/internal/container"
	"fjacquet/stmt-import/internal/logging"
	"fjacquet/stmt-import/internal/models"
	"fjacquet/stmt-import/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
)

var rakutenExport = "利用日,利用店名・商品名,利用金額\n" +
	"2024/01/05,SPOTIFY *PREMIUM 12345 /N,980\n" +
	"2024/01/09,新しいカフェ,520\n"

var eposExport = strings.Join([]string{
	"ご利用明細（2024年01月）",
	"種別,ご利用年月日,ご利用場所,ご利用金額（キャッシングでは元金になります）,支払区分,備考",
	"ショッピング,2024年01月03日,ＡＰ／ファミリーマート／ＮＦＣ,450,1回,",
	"ショッピング,2024年01月04日,スターバックス／Ｎ,620,1回,",
	"",
	"ご利用金額合計,,,1070,,",
	"お支払金額,,,1070,,",
	"お支払日,,,2024年02月27日,,",
	"エポスカード,,,,,",
	"以上,,,,,",
}, "\n") + "\n"

var docomoExport = strings.Join([]string{
	"ｄカード ご利用明細",
	"ご利用日,ご利用店名,ご利用金額,支払区分,今回お支払金額",
	"ＲＡ　ＪＩＴＨ　様,,,,",
	"2024/01/11,ローソン／ｉＤ,540,1回,540",
	"2024/01/12,ＮＥＴＦＬＩＸ,1490,1回,1490",
	"合計,,2030,,2030",
	"お支払日,,2024/02/10,,",
	"以上,,,,",
}, "\n") + "\n"

var mizuhoExport = strings.Join([]string{
	"みずほ銀行",
	"入出金明細",
	"店番,123",
	"口座番号,4567890",
	"口座種別,普通",
	"照会期間,2024.01.01-2024.01.31",
	"照会日,2024.02.01",
	"",
	"件数,3",
	"現在残高,500000",
	"日付,お引出金額,お預入金額,お取引内容,残高,メモ",
	"2024.01.10,,\"300,000\",給与　カ）サンプル,800000,",
	"2024.01.25,\"50,000\",,積立投資,750000,",
	"2024.01.27,\"20,000\",,楽天カード,730000,",
}, "\n") + "\n"

func writeExport(t *testing.T, root, name, content string, shiftJIS bool) {
	t.Helper()
	data := []byte(content)
	if shiftJIS {
		encoded, err := japanese.ShiftJIS.NewEncoder().String(content)
		require.NoError(t, err)
		data = []byte(encoded)
	}
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, data, 0600))
}

// writeReferenceData writes the YAML fixtures the seed step reads.
func writeReferenceData(t *testing.T, dir string) {
	t.Helper()
	ctx := context.Background()
	fs := store.NewFileStore(dir, logging.NewMockLogger())
	require.NoError(t, fs.SaveAccounts(ctx, []models.Account{
		{ID: 1, OwnerID: 1, Name: "Rakuten card", Provider: models.ProviderRakuten},
		{ID: 2, OwnerID: 1, Name: "Epos card", Provider: models.ProviderEpos},
		{ID: 3, OwnerID: 1, Name: "d card", Provider: models.ProviderDocomo},
		{ID: 4, OwnerID: 1, Name: "Mizuho", Provider: models.ProviderMizuho},
	}))
	require.NoError(t, fs.SaveCategories(ctx,
		[]models.Category{
			{ID: 1, OwnerID: 1, Name: "N/A", Type: models.CategoryTypeExpense, Role: models.RoleNA},
			{ID: 2, OwnerID: 1, Name: "Other income", Type: models.CategoryTypeIncome, Role: models.RoleIncome},
			{ID: 3, OwnerID: 1, Name: "Savings", Type: models.CategoryTypeSavings, Role: models.RoleSavings},
			{ID: 4, OwnerID: 1, Name: "Card payment", Type: models.CategoryTypePayment, Role: models.RolePayment},
			{ID: 5, OwnerID: 1, Name: "Entertainment", Type: models.CategoryTypeExpense},
		},
		[]models.SubCategory{
			{ID: 10, OwnerID: 1, CategoryID: 1, Name: "N/A", Role: models.RoleNA},
			{ID: 11, OwnerID: 1, CategoryID: 5, Name: "Streaming"},
		}))
	require.NoError(t, fs.SavePayees(ctx, []models.PayeeMapping{
		{ID: 1, OwnerID: 1, DestinationOriginal: "SPOTIFY P0001", Destination: "Spotify", Keywords: "SPOTIFY,ＮＥＴＦＬＩＸ",
			CategoryID: 5, SubCategoryID: 11, CategoryType: models.CategoryTypeExpense},
		{ID: 2, OwnerID: 1, DestinationOriginal: "積立投資", Destination: "積立投資",
			CategoryID: 3, SubCategoryID: 10, CategoryType: models.CategoryTypeSavings},
		{ID: 3, OwnerID: 1, DestinationOriginal: "楽天カード", Destination: "楽天カード",
			CategoryID: 4, SubCategoryID: 10, CategoryType: models.CategoryTypePayment},
	}))
}

func newPipeline(t *testing.T, driver string) (*container.Container, string) {
	t.Helper()
	root := t.TempDir()
	sourceDir := filepath.Join(root, "exports")
	writeExport(t, sourceDir, "rakuten/2024-01.csv", rakutenExport, false)
	writeExport(t, sourceDir, "epos/2024-01.csv", eposExport, true)
	writeExport(t, sourceDir, "docomo/2024-01.csv", docomoExport, true)
	writeExport(t, sourceDir, "mizuho/2024-01.csv", mizuhoExport, true)

	cfg := &config.Config{}
	cfg.Log.Level = "error"
	cfg.Log.Format = "text"
	cfg.CSV.Delimiter = ","
	cfg.Store.Driver = driver
	cfg.Store.Directory = filepath.Join(root, "database")
	cfg.Store.SQLitePath = filepath.Join(root, "db", "import.db")
	cfg.Source.Driver = "local"
	cfg.Source.Directory = sourceDir
	cfg.Import.Workers = 2
	cfg.Import.Mode = "incremental"

	c, err := container.NewContainer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	fixtures := filepath.Join(root, "fixtures")
	writeReferenceData(t, fixtures)
	require.NoError(t, store.Seed(context.Background(), store.NewFileStore(fixtures, nil), c.GetStore(), nil))
	return c, root
}

func byOriginal(txs []models.NormalizedTransaction) map[string]models.NormalizedTransaction {
	out := make(map[string]models.NormalizedTransaction, len(txs))
	for _, tx := range txs {
		out[tx.DestinationOriginal] = tx
	}
	return out
}

// TestPipeline_AllInstitutions imports one export per institution into each
// store backend and checks the persisted result.
func TestPipeline_AllInstitutions(t *testing.T) {
	for _, driver := range []string{store.DriverFile, store.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			c, root := newPipeline(t, driver)

			accounts, err := c.GetStore().LoadAccounts(ctx)
			require.NoError(t, err)
			require.Len(t, accounts, 4)

			res := c.GetImporter().RunAndSave(ctx, accounts, models.WindowSpec{Mode: models.WindowIncremental}, c.GetStore())
			require.NoError(t, res.Err())
			require.Len(t, res.Owners, 1)
			assert.True(t, res.Owners[0].Saved)

			txs := res.Transactions()
			require.Len(t, txs, 9)
			for i, tx := range txs {
				require.NoError(t, tx.Validate())
				if i > 0 {
					assert.False(t, tx.Date.Before(txs[i-1].Date), "transactions are date ordered")
				}
			}

			got := byOriginal(txs)
			spotify := got["SPOTIFY *PREMIUM 12345"]
			assert.Equal(t, "Spotify", spotify.Destination)
			assert.Equal(t, int64(5), spotify.CategoryID)
			assert.Equal(t, int64(11), spotify.SubCategoryID)

			assert.Equal(t, "Spotify", got["ＮＥＴＦＬＩＸ"].Destination, "keywords rewrite to the canonical destination")
			assert.Equal(t, "ファミリーマート", got["ファミリーマート"].Destination)
			assert.Equal(t, int64(1), got["ローソン"].CategoryID)

			salary := got["給与　カ）サンプル"]
			assert.True(t, salary.IsIncome)
			assert.Equal(t, int64(2), salary.CategoryID, "unmapped income is filed as income")
			assert.Equal(t, "300000.00", salary.Amount.StringFixed(2))

			assert.True(t, got["積立投資"].IsSaving)
			assert.True(t, got["楽天カード"].IsPayment)

			saved, err := c.GetStore().LoadTransactions(ctx, 1)
			require.NoError(t, err)
			assert.Len(t, saved, 9)

			payees, err := c.GetStore().LoadPayeeMappings(ctx, 1)
			require.NoError(t, err)
			assert.Len(t, payees, 3+len(res.NewPayees()))

			accounts, err = c.GetStore().LoadAccounts(ctx)
			require.NoError(t, err)
			cursors := make(map[int64]string)
			for _, a := range accounts {
				require.NotNil(t, a.LastImportDate, "account %d", a.ID)
				cursors[a.ID] = a.LastImportDate.Format(models.DateLayout)
			}
			assert.Equal(t, map[int64]string{1: "2024-01-09", 2: "2024-01-04", 3: "2024-01-12", 4: "2024-01-27"}, cursors)

			rerun := c.GetImporter().RunAndSave(ctx, accounts, models.WindowSpec{Mode: models.WindowIncremental}, c.GetStore())
			require.NoError(t, rerun.Err())
			assert.Empty(t, rerun.Transactions(), "a second incremental run imports nothing")

			exportPath := filepath.Join(root, "out", "batch.csv")
			require.NoError(t, common.ExportTransactionsToFile(exportPath, txs, ',', nil))
			f, err := os.Open(exportPath)
			require.NoError(t, err)
			defer func() { _ = f.Close() }()
			exported, err := common.ReadTransactionsFromCSV(f, ',')
			require.NoError(t, err)
			assert.Len(t, exported, 9)
		})
	}
}
