package store

import (
	"context"
	"sync"

	"fjacquet/stmt-import/internal/models"
)

// MockStore is an in-memory Store for tests. SaveImport applies the same
// skip-existing and forward-only cursor rules as the real stores.
type MockStore struct {
	mu sync.Mutex

	Accounts      []models.Account
	Categories    []models.Category
	SubCategories []models.SubCategory
	Payees        []models.PayeeMapping
	Transactions  map[int64][]models.NormalizedTransaction
	SavedBatches  []models.ImportBatch

	// Error fields for testing error conditions
	LoadAccountsError      error
	LoadPayeesError        error
	LoadCategoriesError    error
	LoadSubCategoriesError error
	SaveImportError        error
	Closed                 bool
}

// LoadAccounts returns a copy of the mock accounts.
func (m *MockStore) LoadAccounts(ctx context.Context) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadAccountsError != nil {
		return nil, m.LoadAccountsError
	}
	return append([]models.Account(nil), m.Accounts...), nil
}

// LoadPayeeMappings returns the mock mappings of ownerID.
func (m *MockStore) LoadPayeeMappings(ctx context.Context, ownerID int64) ([]models.PayeeMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadPayeesError != nil {
		return nil, m.LoadPayeesError
	}
	var out []models.PayeeMapping
	for _, p := range m.Payees {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

// LoadCategories returns the mock categories of ownerID.
func (m *MockStore) LoadCategories(ctx context.Context, ownerID int64) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadCategoriesError != nil {
		return nil, m.LoadCategoriesError
	}
	var out []models.Category
	for _, c := range m.Categories {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

// LoadSubCategories returns the mock subcategories of ownerID.
func (m *MockStore) LoadSubCategories(ctx context.Context, ownerID int64) ([]models.SubCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadSubCategoriesError != nil {
		return nil, m.LoadSubCategoriesError
	}
	var out []models.SubCategory
	for _, c := range m.SubCategories {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

// LoadTransactions returns the transactions saved for ownerID.
func (m *MockStore) LoadTransactions(ctx context.Context, ownerID int64) ([]models.NormalizedTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.NormalizedTransaction(nil), m.Transactions[ownerID]...), nil
}

// SaveImport records the batch and applies it to the in-memory data.
func (m *MockStore) SaveImport(ctx context.Context, batch models.ImportBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveImportError != nil {
		return m.SaveImportError
	}
	m.SavedBatches = append(m.SavedBatches, batch)

	if m.Transactions == nil {
		m.Transactions = make(map[int64][]models.NormalizedTransaction)
	}
	m.Transactions[batch.OwnerID] = append(m.Transactions[batch.OwnerID], batch.Transactions...)
	m.Payees, _ = insertPayees(m.Payees, batch.OwnerID, batch.NewPayees)
	advanceCursors(m.Accounts, batch.Cursors)
	return nil
}

// SaveAccounts replaces the mock accounts.
func (m *MockStore) SaveAccounts(ctx context.Context, accounts []models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Accounts = append([]models.Account(nil), accounts...)
	return nil
}

// SaveCategories replaces the mock categories.
func (m *MockStore) SaveCategories(ctx context.Context, categories []models.Category, subCategories []models.SubCategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Categories = append([]models.Category(nil), categories...)
	m.SubCategories = append([]models.SubCategory(nil), subCategories...)
	return nil
}

// SavePayees replaces the mock payee mappings.
func (m *MockStore) SavePayees(ctx context.Context, mappings []models.PayeeMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Payees = append([]models.PayeeMapping(nil), mappings...)
	return nil
}

// Close marks the store closed.
func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

var (
	_ Store = (*MockStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
