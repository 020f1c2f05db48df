package store

import (
	"context"
	"database/sql"
	"fmt"

	"fjacquet/stmt-import/internal/logging"
)

// Migration is one schema change, applied inside its own transaction.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

// ExpectedSchemaVersion is the user_version after all migrations ran.
const ExpectedSchemaVersion = 2

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			statements := []string{
				`CREATE TABLE IF NOT EXISTS accounts (
					id INTEGER PRIMARY KEY,
					owner_id INTEGER NOT NULL,
					name TEXT NOT NULL DEFAULT '',
					provider TEXT NOT NULL,
					source_path TEXT NOT NULL DEFAULT '',
					last_import_date TEXT
				)`,
				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY,
					owner_id INTEGER NOT NULL,
					name TEXT NOT NULL,
					category_type TEXT NOT NULL,
					role TEXT NOT NULL DEFAULT ''
				)`,
				`CREATE TABLE IF NOT EXISTS subcategories (
					id INTEGER PRIMARY KEY,
					owner_id INTEGER NOT NULL,
					category_id INTEGER NOT NULL REFERENCES categories(id),
					name TEXT NOT NULL,
					role TEXT NOT NULL DEFAULT ''
				)`,
				`CREATE TABLE IF NOT EXISTS payee_mappings (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					owner_id INTEGER NOT NULL,
					destination_original TEXT NOT NULL,
					destination TEXT NOT NULL,
					alias TEXT NOT NULL DEFAULT '',
					keywords TEXT NOT NULL DEFAULT '',
					category_id INTEGER NOT NULL,
					subcategory_id INTEGER NOT NULL,
					category_type TEXT NOT NULL,
					UNIQUE(owner_id, destination_original)
				)`,
				`CREATE TABLE IF NOT EXISTS transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					owner_id INTEGER NOT NULL,
					account_id INTEGER NOT NULL,
					date TEXT NOT NULL,
					destination_original TEXT NOT NULL,
					destination TEXT NOT NULL,
					alias TEXT NOT NULL DEFAULT '',
					amount TEXT NOT NULL,
					category_id INTEGER NOT NULL,
					subcategory_id INTEGER NOT NULL,
					is_income INTEGER NOT NULL DEFAULT 0,
					is_expense INTEGER NOT NULL DEFAULT 0,
					is_saving INTEGER NOT NULL DEFAULT 0,
					is_payment INTEGER NOT NULL DEFAULT 0,
					source TEXT NOT NULL,
					notes TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			}
			for _, stmt := range statements {
				if _, err := tx.Exec(stmt); err != nil {
					return err
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add lookup indexes",
		Up: func(tx *sql.Tx) error {
			statements := []string{
				`CREATE INDEX IF NOT EXISTS idx_accounts_owner ON accounts(owner_id)`,
				`CREATE INDEX IF NOT EXISTS idx_categories_owner ON categories(owner_id)`,
				`CREATE INDEX IF NOT EXISTS idx_subcategories_owner ON subcategories(owner_id)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_owner_date ON transactions(owner_id, date)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id)`,
			}
			for _, stmt := range statements {
				if _, err := tx.Exec(stmt); err != nil {
					return err
				}
			}
			return nil
		},
	},
}

// Migrate brings the schema up to ExpectedSchemaVersion.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	var currentVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		s.logger.Info("Applied migration",
			logging.Field{Key: "version", Value: migration.Version},
			logging.Field{Key: "description", Value: migration.Description})
	}

	var finalVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion); err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}
	return nil
}
