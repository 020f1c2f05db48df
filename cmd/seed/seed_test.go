package seed

import (
	"context"
	"path/filepath"
	"testing"

	"fjacquet/stmt-import/internal/config"
	"fjacquet/stmt-import/internal/container"
	"fjacquet/stmt-import/internal/filesource"
	"fjacquet/stmt-import/internal/logging"
	"fjacquet/stmt-import/internal/models"
	"fjacquet/stmt-import/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContainer(st store.Store, logger logging.Logger) *container.Container {
	cfg := &config.Config{}
	cfg.Import.Workers = 1
	return container.NewContainerWithDeps(cfg, logger, st, filesource.NewMemorySource())
}

func writeFixtures(t *testing.T, dir string) {
	t.Helper()
	ctx := context.Background()
	fs := store.NewFileStore(dir, logging.NewMockLogger())
	require.NoError(t, fs.SaveAccounts(ctx, []models.Account{
		{ID: 1, OwnerID: 1, Provider: models.ProviderRakuten},
		{ID: 2, OwnerID: 2, Provider: models.ProviderEpos},
	}))
	require.NoError(t, fs.SaveCategories(ctx,
		[]models.Category{
			{ID: 1, OwnerID: 1, Name: "N/A", Type: models.CategoryTypeExpense, Role: models.RoleNA},
			{ID: 2, OwnerID: 2, Name: "N/A", Type: models.CategoryTypeExpense, Role: models.RoleNA},
		},
		[]models.SubCategory{{ID: 10, OwnerID: 1, CategoryID: 1, Name: "N/A", Role: models.RoleNA}}))
	require.NoError(t, fs.SavePayees(ctx, []models.PayeeMapping{
		{ID: 1, OwnerID: 1, DestinationOriginal: "積立投資", Destination: "積立投資",
			CategoryID: 1, SubCategoryID: 10, CategoryType: models.CategoryTypeExpense},
	}))
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	st := &store.MockStore{}
	logger := logging.NewMockLogger()
	require.NoError(t, Run(context.Background(), newTestContainer(st, logger), dir))

	assert.Len(t, st.Accounts, 2)
	assert.Len(t, st.Categories, 2)
	assert.Len(t, st.SubCategories, 1)
	require.Len(t, st.Payees, 1)
	assert.Equal(t, "積立投資", st.Payees[0].DestinationOriginal)
	assert.True(t, logger.HasEntry("INFO", "Seeded store"))
}

func TestRun_MissingDirectory(t *testing.T) {
	err := Run(context.Background(), newTestContainer(&store.MockStore{}, nil), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed directory")
}

func TestRun_RefusesStoreDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)
	fs := store.NewFileStore(dir, nil)

	err := Run(context.Background(), newTestContainer(fs, nil), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store directory")
}
