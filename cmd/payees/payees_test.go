package payees

import (
	"bytes"
	"context"
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

func newTestContainer(st *store.MockStore) *container.Container {
	cfg := &config.Config{}
	cfg.Import.Workers = 1
	return container.NewContainerWithDeps(cfg, logging.NewMockLogger(), st, filesource.NewMemorySource())
}

func testStore() *store.MockStore {
	return &store.MockStore{
		Categories: []models.Category{
			{ID: 1, OwnerID: 1, Name: "N/A", Type: models.CategoryTypeExpense, Role: models.RoleNA},
			{ID: 2, OwnerID: 1, Name: "Other income", Type: models.CategoryTypeIncome, Role: models.RoleIncome},
			{ID: 3, OwnerID: 1, Name: "Savings", Type: models.CategoryTypeSavings, Role: models.RoleSavings},
			{ID: 4, OwnerID: 1, Name: "Card payment", Type: models.CategoryTypePayment, Role: models.RolePayment},
			{ID: 5, OwnerID: 1, Name: "Entertainment", Type: models.CategoryTypeExpense},
		},
		SubCategories: []models.SubCategory{
			{ID: 10, OwnerID: 1, CategoryID: 1, Name: "N/A", Role: models.RoleNA},
			{ID: 11, OwnerID: 1, CategoryID: 5, Name: "Streaming"},
		},
		Payees: []models.PayeeMapping{
			{ID: 1, OwnerID: 1, DestinationOriginal: "SPOTIFY P0001", Destination: "Spotify", Keywords: "SPOTIFY",
				CategoryID: 5, SubCategoryID: 11, CategoryType: models.CategoryTypeExpense},
			{ID: 2, OwnerID: 1, DestinationOriginal: "新しいカフェ", Destination: "新しいカフェ",
				CategoryID: 1, SubCategoryID: 10, CategoryType: models.CategoryTypeExpense},
		},
	}
}

func TestRun_ListsAllPayees(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), newTestContainer(testStore()), Options{OwnerID: 1}, &out))

	assert.Contains(t, out.String(), "SPOTIFY P0001")
	assert.Contains(t, out.String(), "Entertainment / Streaming")
	assert.Contains(t, out.String(), "新しいカフェ")
	assert.Contains(t, out.String(), "2 of 2 payees")
}

func TestRun_Unmapped(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), newTestContainer(testStore()), Options{OwnerID: 1, Unmapped: true}, &out))

	assert.NotContains(t, out.String(), "SPOTIFY P0001")
	assert.Contains(t, out.String(), "新しいカフェ")
	assert.Contains(t, out.String(), "1 of 2 payees")
}

func TestRun_UnmappedNeedsNACategory(t *testing.T) {
	st := testStore()
	st.Categories = st.Categories[1:]

	err := Run(context.Background(), newTestContainer(st), Options{OwnerID: 1, Unmapped: true}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestRun_UnknownOwner(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), newTestContainer(testStore()), Options{OwnerID: 9}, &out))
	assert.Contains(t, out.String(), "0 of 0 payees")
}

func TestRun_LoadError(t *testing.T) {
	st := testStore()
	st.LoadPayeesError = assert.AnError

	err := Run(context.Background(), newTestContainer(st), Options{OwnerID: 1}, &bytes.Buffer{})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRun_UnknownCategoryIsLabelledByID(t *testing.T) {
	st := testStore()
	st.Payees[0].CategoryID = 77
	st.Payees[0].SubCategoryID = 0

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), newTestContainer(st), Options{OwnerID: 1}, &out))
	assert.Contains(t, out.String(), "#77")
}
