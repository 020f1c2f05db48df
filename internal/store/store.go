// Package store persists accounts, categories, payee mappings and imported
// transactions.
package store

import (
	"context"
	"fmt"
	"sort"

	"fjacquet/stmt-import/internal/logging"
	"fjacquet/stmt-import/internal/models"
)

// Reader loads the reference data an import run needs.
type Reader interface {
	LoadAccounts(ctx context.Context) ([]models.Account, error)
	LoadPayeeMappings(ctx context.Context, ownerID int64) ([]models.PayeeMapping, error)
	LoadCategories(ctx context.Context, ownerID int64) ([]models.Category, error)
	LoadSubCategories(ctx context.Context, ownerID int64) ([]models.SubCategory, error)
	LoadTransactions(ctx context.Context, ownerID int64) ([]models.NormalizedTransaction, error)
}

// Writer persists the outcome of one owner's import run. Payee mappings whose
// (owner, destination_original) already exists are skipped, and a cursor only
// moves forward.
type Writer interface {
	SaveImport(ctx context.Context, batch models.ImportBatch) error
}

// Seeder replaces reference data wholesale. It backs the seed command.
type Seeder interface {
	SaveAccounts(ctx context.Context, accounts []models.Account) error
	SaveCategories(ctx context.Context, categories []models.Category, subCategories []models.SubCategory) error
	SavePayees(ctx context.Context, mappings []models.PayeeMapping) error
}

// Store is a complete persistence backend.
type Store interface {
	Reader
	Writer
	Seeder
	Close() error
}

// Driver names accepted by the configuration.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Owners returns the distinct owner ids of accounts in ascending order.
func Owners(accounts []models.Account) []int64 {
	seen := make(map[int64]bool)
	var owners []int64
	for _, a := range accounts {
		if !seen[a.OwnerID] {
			seen[a.OwnerID] = true
			owners = append(owners, a.OwnerID)
		}
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
	return owners
}

// Seed copies every account, category and payee mapping from src into dst.
func Seed(ctx context.Context, src Reader, dst Seeder, logger logging.Logger) error {
	logger = logging.OrDefault(logger)

	accounts, err := src.LoadAccounts(ctx)
	if err != nil {
		return fmt.Errorf("error loading accounts: %w", err)
	}

	var (
		categories []models.Category
		subs       []models.SubCategory
		payees     []models.PayeeMapping
	)
	for _, owner := range Owners(accounts) {
		c, err := src.LoadCategories(ctx, owner)
		if err != nil {
			return fmt.Errorf("error loading categories of owner %d: %w", owner, err)
		}
		s, err := src.LoadSubCategories(ctx, owner)
		if err != nil {
			return fmt.Errorf("error loading subcategories of owner %d: %w", owner, err)
		}
		p, err := src.LoadPayeeMappings(ctx, owner)
		if err != nil {
			return fmt.Errorf("error loading payees of owner %d: %w", owner, err)
		}
		categories = append(categories, c...)
		subs = append(subs, s...)
		payees = append(payees, p...)
	}

	if err := dst.SaveAccounts(ctx, accounts); err != nil {
		return fmt.Errorf("error saving accounts: %w", err)
	}
	if err := dst.SaveCategories(ctx, categories, subs); err != nil {
		return fmt.Errorf("error saving categories: %w", err)
	}
	if err := dst.SavePayees(ctx, payees); err != nil {
		return fmt.Errorf("error saving payees: %w", err)
	}

	logger.Info("Seeded store",
		logging.Field{Key: "accounts", Value: len(accounts)},
		logging.Field{Key: "categories", Value: len(categories)},
		logging.Field{Key: "subcategories", Value: len(subs)},
		logging.Field{Key: "payees", Value: len(payees)})
	return nil
}

// laterCursor reports whether next should replace current.
func laterCursor(current *models.Account, next models.CursorUpdate) bool {
	return current.LastImportDate == nil || next.LastImportDate.After(*current.LastImportDate)
}
