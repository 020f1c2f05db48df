package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"fjacquet/stmt-import/internal/dateutils"
	"fjacquet/stmt-import/internal/fileutils"
	"fjacquet/stmt-import/internal/logging"
	"fjacquet/stmt-import/internal/models"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/shopspring/decimal"
)

// SQLiteStore is a Store backed by a single SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	logger logging.Logger
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and applies
// pending migrations.
func NewSQLiteStore(ctx context.Context, dbPath string, logger logging.Logger) (*SQLiteStore, error) {
	logger = logging.OrDefault(logger).WithField(logging.FieldStore, DriverSQLite)

	if err := fileutils.EnsureDirectoryExists(filepath.Dir(dbPath)); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer at a time keeps SaveImport transactions serialised.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadAccounts returns every account ordered by id.
func (s *SQLiteStore) LoadAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, provider, source_path, last_import_date
		FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []models.Account
	for rows.Next() {
		var (
			a      models.Account
			cursor sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Name, &a.Provider, &a.SourcePath, &cursor); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		if cursor.Valid {
			if a.LastImportDate, err = dateutils.ParseISODate(cursor.String); err != nil {
				return nil, fmt.Errorf("account %d has invalid last_import_date: %w", a.ID, err)
			}
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// LoadPayeeMappings returns the payee mappings of ownerID ordered by id.
func (s *SQLiteStore) LoadPayeeMappings(ctx context.Context, ownerID int64) ([]models.PayeeMapping, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, destination_original, destination, alias, keywords,
		       category_id, subcategory_id, category_type
		FROM payee_mappings WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payee mappings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var mappings []models.PayeeMapping
	for rows.Next() {
		var m models.PayeeMapping
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.DestinationOriginal, &m.Destination, &m.Alias,
			&m.Keywords, &m.CategoryID, &m.SubCategoryID, &m.CategoryType); err != nil {
			return nil, fmt.Errorf("failed to scan payee mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// LoadCategories returns the categories of ownerID ordered by id.
func (s *SQLiteStore) LoadCategories(ctx context.Context, ownerID int64) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, category_type, role
		FROM categories WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Type, &c.Role); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// LoadSubCategories returns the subcategories of ownerID ordered by id.
func (s *SQLiteStore) LoadSubCategories(ctx context.Context, ownerID int64) ([]models.SubCategory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, category_id, name, role
		FROM subcategories WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subcategories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []models.SubCategory
	for rows.Next() {
		var c models.SubCategory
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.CategoryID, &c.Name, &c.Role); err != nil {
			return nil, fmt.Errorf("failed to scan subcategory: %w", err)
		}
		subs = append(subs, c)
	}
	return subs, rows.Err()
}

// LoadTransactions returns the imported transactions of ownerID in insertion order.
func (s *SQLiteStore) LoadTransactions(ctx context.Context, ownerID int64) ([]models.NormalizedTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, destination_original, destination, alias, amount, account_id,
		       category_id, subcategory_id, is_income, is_expense, is_saving, is_payment,
		       source, notes
		FROM transactions WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txs []models.NormalizedTransaction
	for rows.Next() {
		var (
			tx     models.NormalizedTransaction
			date   string
			amount string
			notes  sql.NullString
		)
		if err := rows.Scan(&date, &tx.DestinationOriginal, &tx.Destination, &tx.Alias, &amount,
			&tx.AccountID, &tx.CategoryID, &tx.SubCategoryID, &tx.IsIncome, &tx.IsExpense,
			&tx.IsSaving, &tx.IsPayment, &tx.Source, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if tx.Date, err = dateutils.ParseDate(date, dateutils.DateLayoutISO); err != nil {
			return nil, fmt.Errorf("invalid transaction date %q: %w", date, err)
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("invalid transaction amount %q: %w", amount, err)
		}
		if notes.Valid {
			n := notes.String
			tx.Notes = &n
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// SaveImport persists a batch in one database transaction. Payee mappings
// that already exist for the owner are left untouched.
func (s *SQLiteStore) SaveImport(ctx context.Context, batch models.ImportBatch) error {
	if batch.Empty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (owner_id, account_id, date, destination_original, destination,
			alias, amount, category_id, subcategory_id, is_income, is_expense, is_saving,
			is_payment, source, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare transaction insert: %w", err)
	}
	defer func() { _ = txStmt.Close() }()

	for _, t := range batch.Transactions {
		var notes interface{}
		if t.Notes != nil {
			notes = *t.Notes
		}
		if _, err = txStmt.ExecContext(ctx, batch.OwnerID, t.AccountID, dateutils.ToISODate(t.Date),
			t.DestinationOriginal, t.Destination, t.Alias, t.Amount.StringFixed(2), t.CategoryID,
			t.SubCategoryID, t.IsIncome, t.IsExpense, t.IsSaving, t.IsPayment, t.Source, notes); err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
	}

	inserted := 0
	for _, m := range batch.NewPayees {
		var res sql.Result
		res, err = tx.ExecContext(ctx, `
			INSERT INTO payee_mappings (owner_id, destination_original, destination, alias,
				keywords, category_id, subcategory_id, category_type)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(owner_id, destination_original) DO NOTHING`,
			batch.OwnerID, m.DestinationOriginal, m.Destination, m.Alias, m.Keywords,
			m.CategoryID, m.SubCategoryID, string(m.CategoryType))
		if err != nil {
			return fmt.Errorf("failed to insert payee mapping: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	for _, c := range batch.Cursors {
		cursor := dateutils.ToISODate(c.LastImportDate)
		if _, err = tx.ExecContext(ctx, `
			UPDATE accounts SET last_import_date = ?
			WHERE id = ? AND (last_import_date IS NULL OR last_import_date < ?)`,
			cursor, c.AccountID, cursor); err != nil {
			return fmt.Errorf("failed to update cursor of account %d: %w", c.AccountID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	if skipped := len(batch.NewPayees) - inserted; skipped > 0 {
		s.logger.Warn("Skipped payee mappings that already exist",
			logging.Field{Key: logging.FieldOwnerID, Value: batch.OwnerID},
			logging.Field{Key: logging.FieldCount, Value: skipped})
	}
	s.logger.Info("Saved import batch",
		logging.Field{Key: logging.FieldOwnerID, Value: batch.OwnerID},
		logging.Field{Key: logging.FieldCount, Value: len(batch.Transactions)},
		logging.Field{Key: "new_payees", Value: inserted})
	return nil
}

// SaveAccounts upserts accounts by id.
func (s *SQLiteStore) SaveAccounts(ctx context.Context, accounts []models.Account) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, a := range accounts {
			var cursor interface{}
			if a.LastImportDate != nil {
				cursor = dateutils.ToISODate(*a.LastImportDate)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO accounts (id, owner_id, name, provider, source_path, last_import_date)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					owner_id = excluded.owner_id,
					name = excluded.name,
					provider = excluded.provider,
					source_path = excluded.source_path,
					last_import_date = excluded.last_import_date`,
				a.ID, a.OwnerID, a.Name, string(a.Provider), a.SourcePath, cursor); err != nil {
				return fmt.Errorf("failed to save account %d: %w", a.ID, err)
			}
		}
		return nil
	})
}

// SaveCategories upserts categories and subcategories by id.
func (s *SQLiteStore) SaveCategories(ctx context.Context, categories []models.Category, subCategories []models.SubCategory) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, c := range categories {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO categories (id, owner_id, name, category_type, role)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					owner_id = excluded.owner_id,
					name = excluded.name,
					category_type = excluded.category_type,
					role = excluded.role`,
				c.ID, c.OwnerID, c.Name, string(c.Type), string(c.Role)); err != nil {
				return fmt.Errorf("failed to save category %d: %w", c.ID, err)
			}
		}
		for _, c := range subCategories {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO subcategories (id, owner_id, category_id, name, role)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					owner_id = excluded.owner_id,
					category_id = excluded.category_id,
					name = excluded.name,
					role = excluded.role`,
				c.ID, c.OwnerID, c.CategoryID, c.Name, string(c.Role)); err != nil {
				return fmt.Errorf("failed to save subcategory %d: %w", c.ID, err)
			}
		}
		return nil
	})
}

// SavePayees upserts payee mappings on (owner_id, destination_original).
// Mappings with a zero id get one assigned.
func (s *SQLiteStore) SavePayees(ctx context.Context, mappings []models.PayeeMapping) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, m := range mappings {
			var id interface{}
			if m.ID != 0 {
				id = m.ID
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO payee_mappings (id, owner_id, destination_original, destination, alias,
					keywords, category_id, subcategory_id, category_type)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(owner_id, destination_original) DO UPDATE SET
					destination = excluded.destination,
					alias = excluded.alias,
					keywords = excluded.keywords,
					category_id = excluded.category_id,
					subcategory_id = excluded.subcategory_id,
					category_type = excluded.category_type`,
				id, m.OwnerID, m.DestinationOriginal, m.Destination, m.Alias, m.Keywords,
				m.CategoryID, m.SubCategoryID, string(m.CategoryType)); err != nil {
				return fmt.Errorf("failed to save payee %q: %w", m.DestinationOriginal, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
