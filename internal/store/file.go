package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fjacquet/stmt-import/internal/common"
	"fjacquet/stmt-import/internal/fileutils"
	"fjacquet/stmt-import/internal/logging"
	"fjacquet/stmt-import/internal/models"

	"gopkg.in/yaml.v3"
)

// File names used inside a FileStore directory.
const (
	AccountsFile     = "accounts.yaml"
	CategoriesFile   = "categories.yaml"
	PayeesFile       = "payees.yaml"
	TransactionsFile = "transactions.csv"
)

type accountsDocument struct {
	Accounts []models.Account `yaml:"accounts"`
}

type categoriesDocument struct {
	Categories    []models.Category    `yaml:"categories"`
	SubCategories []models.SubCategory `yaml:"subcategories"`
}

type payeesDocument struct {
	Payees []models.PayeeMapping `yaml:"payees"`
}

// FileStore keeps reference data in YAML files and appends imported
// transactions to a CSV log, all inside one directory.
type FileStore struct {
	dir       string
	delimiter rune
	logger    logging.Logger
	writeFile func(path string, data []byte, perm os.FileMode) error
	mu        sync.Mutex
}

// NewFileStore creates a store rooted at dir. The directory is created on
// first write.
func NewFileStore(dir string, logger logging.Logger) *FileStore {
	return &FileStore{
		dir:       dir,
		delimiter: ',',
		logger:    logging.OrDefault(logger).WithField(logging.FieldStore, DriverFile),
		writeFile: fileutils.WriteFileAtomic,
	}
}

// Dir returns the store directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

// readYAML decodes name into out. A missing file leaves out untouched.
func (s *FileStore) readYAML(name string, out interface{}) (bool, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Store file not found", logging.Field{Key: logging.FieldFile, Value: s.path(name)})
			return false, nil
		}
		return false, fmt.Errorf("error reading %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("error parsing %s: %w", name, err)
	}
	return true, nil
}

// writeYAML replaces name atomically through a temp file in the same directory.
func (s *FileStore) writeYAML(name string, in interface{}) error {
	data, err := yaml.Marshal(in)
	if err != nil {
		return fmt.Errorf("error marshaling %s: %w", name, err)
	}
	if err := s.writeFile(s.path(name), data, models.PermissionConfigFile); err != nil {
		return fmt.Errorf("error writing %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) accounts() ([]models.Account, error) {
	var doc accountsDocument
	if _, err := s.readYAML(AccountsFile, &doc); err != nil {
		// Fall back to a bare list without the top-level key.
		var list []models.Account
		if _, listErr := s.readYAML(AccountsFile, &list); listErr != nil {
			return nil, err
		}
		return list, nil
	}
	return doc.Accounts, nil
}

func (s *FileStore) categories() (categoriesDocument, error) {
	var doc categoriesDocument
	_, err := s.readYAML(CategoriesFile, &doc)
	return doc, err
}

func (s *FileStore) payees() ([]models.PayeeMapping, error) {
	var doc payeesDocument
	if _, err := s.readYAML(PayeesFile, &doc); err != nil {
		var list []models.PayeeMapping
		if _, listErr := s.readYAML(PayeesFile, &list); listErr != nil {
			return nil, err
		}
		return list, nil
	}
	return doc.Payees, nil
}

// LoadAccounts returns every account in the store.
func (s *FileStore) LoadAccounts(ctx context.Context) ([]models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts()
}

// LoadPayeeMappings returns the payee mappings of ownerID.
func (s *FileStore) LoadPayeeMappings(ctx context.Context, ownerID int64) ([]models.PayeeMapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.payees()
	if err != nil {
		return nil, err
	}
	var out []models.PayeeMapping
	for _, m := range all {
		if m.OwnerID == ownerID {
			out = append(out, m)
		}
	}
	s.logger.Debug("Loaded payee mappings",
		logging.Field{Key: logging.FieldOwnerID, Value: ownerID},
		logging.Field{Key: logging.FieldCount, Value: len(out)})
	return out, nil
}

// LoadCategories returns the categories of ownerID.
func (s *FileStore) LoadCategories(ctx context.Context, ownerID int64) ([]models.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.categories()
	if err != nil {
		return nil, err
	}
	var out []models.Category
	for _, c := range doc.Categories {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

// LoadSubCategories returns the subcategories of ownerID.
func (s *FileStore) LoadSubCategories(ctx context.Context, ownerID int64) ([]models.SubCategory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.categories()
	if err != nil {
		return nil, err
	}
	var out []models.SubCategory
	for _, c := range doc.SubCategories {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

// LoadTransactions returns the logged transactions of the accounts owned by ownerID.
func (s *FileStore) LoadTransactions(ctx context.Context, ownerID int64) ([]models.NormalizedTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.accounts()
	if err != nil {
		return nil, err
	}
	owned := make(map[int64]bool)
	for _, a := range accounts {
		if a.OwnerID == ownerID {
			owned[a.ID] = true
		}
	}

	file, err := os.Open(s.path(TransactionsFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("error opening transaction log: %w", err)
	}
	defer func() { _ = file.Close() }()

	all, err := common.ReadTransactionsFromCSV(file, s.delimiter)
	if err != nil {
		return nil, fmt.Errorf("error reading transaction log: %w", err)
	}
	var out []models.NormalizedTransaction
	for _, tx := range all {
		if owned[tx.AccountID] {
			out = append(out, tx)
		}
	}
	return out, nil
}

// SaveImport appends the batch transactions to the log, inserts new payee
// mappings and advances account cursors. Reference files are read before
// anything is written; if a later write fails the log is truncated back and
// the payees file restored, so a failed batch can be retried.
func (s *FileStore) SaveImport(ctx context.Context, batch models.ImportBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if batch.Empty() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		payees, merged []models.PayeeMapping
		accounts       []models.Account
		inserted       int
		moved          bool
		err            error
	)
	if len(batch.NewPayees) > 0 {
		if payees, err = s.payees(); err != nil {
			return err
		}
		merged, inserted = insertPayees(payees, batch.OwnerID, batch.NewPayees)
	}
	if len(batch.Cursors) > 0 {
		if accounts, err = s.accounts(); err != nil {
			return err
		}
		moved = advanceCursors(accounts, batch.Cursors)
	}

	mark, err := s.markLog()
	if err != nil {
		return err
	}
	if err := s.appendTransactions(batch.Transactions); err != nil {
		s.rollbackLog(mark)
		return err
	}
	if inserted > 0 {
		if err := s.writeYAML(PayeesFile, payeesDocument{Payees: merged}); err != nil {
			s.rollbackLog(mark)
			return err
		}
	}
	if moved {
		if err := s.writeYAML(AccountsFile, accountsDocument{Accounts: accounts}); err != nil {
			s.rollbackLog(mark)
			if inserted > 0 {
				if restoreErr := s.writeYAML(PayeesFile, payeesDocument{Payees: payees}); restoreErr != nil {
					s.logger.WithError(restoreErr).Error("Failed to restore payees file")
				}
			}
			return err
		}
	}

	if skipped := len(batch.NewPayees) - inserted; skipped > 0 {
		s.logger.Warn("Skipped payee mappings that already exist",
			logging.Field{Key: logging.FieldOwnerID, Value: batch.OwnerID},
			logging.Field{Key: logging.FieldCount, Value: skipped})
	}
	s.logger.Info("Saved import batch",
		logging.Field{Key: logging.FieldOwnerID, Value: batch.OwnerID},
		logging.Field{Key: logging.FieldCount, Value: len(batch.Transactions)},
		logging.Field{Key: "new_payees", Value: len(batch.NewPayees)})
	return nil
}

// logMark records the transaction log size before an append.
type logMark struct {
	size    int64
	existed bool
}

func (s *FileStore) markLog() (logMark, error) {
	info, err := os.Stat(s.path(TransactionsFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return logMark{}, nil
		}
		return logMark{}, fmt.Errorf("error checking transaction log: %w", err)
	}
	return logMark{size: info.Size(), existed: true}, nil
}

// rollbackLog drops anything appended to the log since mark.
func (s *FileStore) rollbackLog(mark logMark) {
	path := s.path(TransactionsFile)
	var err error
	if mark.existed {
		err = os.Truncate(path, mark.size)
	} else {
		err = os.Remove(path)
		if errors.Is(err, os.ErrNotExist) {
			err = nil
		}
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to roll back transaction log",
			logging.Field{Key: logging.FieldFile, Value: path})
	}
}

func (s *FileStore) appendTransactions(txs []models.NormalizedTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	file, fresh, err := fileutils.OpenAppend(s.path(TransactionsFile), models.PermissionExportFile)
	if err != nil {
		return fmt.Errorf("error opening transaction log: %w", err)
	}
	if fresh {
		err = common.WriteTransactionsToCSV(file, txs, s.delimiter)
	} else {
		err = common.AppendTransactionsToCSV(file, txs, s.delimiter)
	}
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("error appending to transaction log: %w", err)
	}
	return file.Close()
}

// insertPayees adds staged mappings to existing, skipping any whose
// destination_original the owner already has. New mappings get ids after the
// current maximum.
func insertPayees(existing []models.PayeeMapping, ownerID int64, staged []models.PayeeMapping) ([]models.PayeeMapping, int) {
	var nextID int64
	taken := make(map[string]bool)
	for _, m := range existing {
		if m.ID > nextID {
			nextID = m.ID
		}
		if m.OwnerID == ownerID {
			taken[m.DestinationOriginal] = true
		}
	}

	merged := existing
	inserted := 0
	for _, m := range staged {
		if taken[m.DestinationOriginal] {
			continue
		}
		taken[m.DestinationOriginal] = true
		nextID++
		m.ID = nextID
		m.OwnerID = ownerID
		merged = append(merged, m)
		inserted++
	}
	return merged, inserted
}

// advanceCursors applies updates in place and reports whether anything moved.
func advanceCursors(accounts []models.Account, updates []models.CursorUpdate) bool {
	changed := false
	for _, u := range updates {
		for i := range accounts {
			if accounts[i].ID != u.AccountID || !laterCursor(&accounts[i], u) {
				continue
			}
			date := u.LastImportDate
			accounts[i].LastImportDate = &date
			changed = true
		}
	}
	return changed
}

// SaveAccounts replaces the accounts file.
func (s *FileStore) SaveAccounts(ctx context.Context, accounts []models.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeYAML(AccountsFile, accountsDocument{Accounts: accounts})
}

// SaveCategories replaces the categories file.
func (s *FileStore) SaveCategories(ctx context.Context, categories []models.Category, subCategories []models.SubCategory) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeYAML(CategoriesFile, categoriesDocument{Categories: categories, SubCategories: subCategories})
}

// SavePayees replaces the payees file.
func (s *FileStore) SavePayees(ctx context.Context, mappings []models.PayeeMapping) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeYAML(PayeesFile, payeesDocument{Payees: mappings})
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}
