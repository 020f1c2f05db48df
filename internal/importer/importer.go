// Package importer runs the statement import pipeline for one or more owners:
// extraction per account, window selection, payee rewriting, staging and
// category resolution. It returns everything to persist and writes nothing
// itself unless asked to through RunAndSave.
package importer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"fjacquet/stmt-import/internal/batch"
	"fjacquet/stmt-import/internal/categorizer"
	"fjacquet/stmt-import/internal/filesource"
	"fjacquet/stmt-import/internal/logging"
	"fjacquet/stmt-import/internal/models"
	"fjacquet/stmt-import/internal/parser"
	"fjacquet/stmt-import/internal/parsererror"
	"fjacquet/stmt-import/internal/store"

	"github.com/google/uuid"
)

// DefaultWorkers bounds concurrent account extraction when none is configured.
const DefaultWorkers = 4

// AdapterResolver returns the Format Adapter of a provider.
// *factory.Registry implements it.
type AdapterResolver interface {
	Adapter(provider models.Provider) (parser.Adapter, error)
}

// OwnerResult is the outcome of one owner's run. Err is set when the owner
// could not be processed at all, typically a *parsererror.ConfigurationError;
// Batch is then empty.
type OwnerResult struct {
	OwnerID  int64
	Batch    models.ImportBatch
	Failures []*parsererror.AccountImportError
	Err      error
	Saved    bool
}

// Result gathers the owner results of one run.
type Result struct {
	RunID  string
	Owners []OwnerResult
}

// Transactions returns the resolved transactions of every owner.
func (r Result) Transactions() []models.NormalizedTransaction {
	var out []models.NormalizedTransaction
	for _, o := range r.Owners {
		out = append(out, o.Batch.Transactions...)
	}
	return out
}

// NewPayees returns the staged payee mappings of every owner.
func (r Result) NewPayees() []models.PayeeMapping {
	var out []models.PayeeMapping
	for _, o := range r.Owners {
		out = append(out, o.Batch.NewPayees...)
	}
	return out
}

// Failures returns every account-level failure.
func (r Result) Failures() []*parsererror.AccountImportError {
	var out []*parsererror.AccountImportError
	for _, o := range r.Owners {
		out = append(out, o.Failures...)
	}
	return out
}

// Err joins owner-level errors and account failures, or returns nil when the
// whole run succeeded.
func (r Result) Err() error {
	var errs []error
	for _, o := range r.Owners {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
		for _, f := range o.Failures {
			errs = append(errs, f)
		}
	}
	return errors.Join(errs...)
}

// Importer sequences the pipeline stages.
type Importer struct {
	source      filesource.Source
	reader      store.Reader
	adapters    AdapterResolver
	windows     *batch.WindowManager
	categorizer *categorizer.Categorizer
	workers     int
	logger      logging.Logger

	ownerLocks sync.Map
}

// New creates an Importer. workers bounds the number of accounts extracted
// concurrently; values below one use DefaultWorkers.
func New(source filesource.Source, reader store.Reader, adapters AdapterResolver, workers int, logger logging.Logger) *Importer {
	logger = logging.OrDefault(logger)
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Importer{
		source:      source,
		reader:      reader,
		adapters:    adapters,
		windows:     batch.NewWindowManager(logger),
		categorizer: categorizer.NewCategorizer(logger),
		workers:     workers,
		logger:      logger,
	}
}

// Run imports the given accounts without persisting anything.
func (im *Importer) Run(ctx context.Context, accounts []models.Account, spec models.WindowSpec) Result {
	return im.run(ctx, accounts, spec, nil)
}

// RunAndSave imports the given accounts and saves each owner's batch with w
// while still holding that owner's lock. A save failure is recorded as the
// owner's Err.
func (im *Importer) RunAndSave(ctx context.Context, accounts []models.Account, spec models.WindowSpec, w store.Writer) Result {
	return im.run(ctx, accounts, spec, w)
}

func (im *Importer) run(ctx context.Context, accounts []models.Account, spec models.WindowSpec, w store.Writer) Result {
	result := Result{RunID: uuid.NewString()}
	log := im.logger.WithFields(
		logging.Field{Key: logging.FieldRunID, Value: result.RunID},
		logging.Field{Key: logging.FieldMode, Value: string(spec.Mode)})

	byOwner := groupByOwner(accounts)
	owners := make([]int64, 0, len(byOwner))
	for owner := range byOwner {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })

	log.Info("Starting import run",
		logging.Field{Key: "owners", Value: len(owners)},
		logging.Field{Key: "accounts", Value: len(accounts)})

	for _, owner := range owners {
		res := im.ImportOwner(ctx, log, owner, byOwner[owner], spec, w)
		result.Owners = append(result.Owners, res)
	}
	return result
}

func groupByOwner(accounts []models.Account) map[int64][]models.Account {
	out := make(map[int64][]models.Account)
	for _, a := range accounts {
		out[a.OwnerID] = append(out[a.OwnerID], a)
	}
	for owner := range out {
		list := out[owner]
		sort.SliceStable(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}
	return out
}

func (im *Importer) ownerLock(ownerID int64) *sync.Mutex {
	mu, _ := im.ownerLocks.LoadOrStore(ownerID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// ImportOwner runs the pipeline for accounts that all belong to ownerID.
// Runs for the same owner are serialised. When w is non-nil the batch is
// saved before the lock is released.
func (im *Importer) ImportOwner(ctx context.Context, log logging.Logger, ownerID int64, accounts []models.Account, spec models.WindowSpec, w store.Writer) OwnerResult {
	log = logging.OrDefault(log).WithField(logging.FieldOwnerID, ownerID)
	result := OwnerResult{OwnerID: ownerID, Batch: models.ImportBatch{OwnerID: ownerID}}
	start := time.Now()

	mu := im.ownerLock(ownerID)
	mu.Lock()
	defer mu.Unlock()

	cats, mappings, err := im.loadOwner(ctx, ownerID)
	if err != nil {
		var cfgErr *parsererror.ConfigurationError
		if errors.As(err, &cfgErr) {
			log.WithError(err).Error("Owner configuration is invalid, skipping owner")
		} else {
			log.WithError(err).Error("Failed to load owner data")
		}
		result.Err = err
		return result
	}

	extracted, failures, err := im.extractAccounts(ctx, log, accounts, spec)
	if err != nil {
		result.Err = err
		return result
	}
	result.Failures = failures

	var merged []models.RawRow
	for _, ex := range extracted {
		if ex.ok {
			merged = append(merged, ex.rows...)
		}
	}
	merged = batch.SortByDate(merged)

	categorized := im.categorizer.Categorize(merged, mappings, cats)
	result.Batch.Transactions = categorized.Transactions
	result.Batch.NewPayees = categorized.NewPayees

	for _, ex := range extracted {
		if !ex.ok {
			continue
		}
		if cursor := batch.Cursor(ex.rows); cursor != nil {
			result.Batch.Cursors = append(result.Batch.Cursors, models.CursorUpdate{
				AccountID:      ex.account.ID,
				LastImportDate: *cursor,
			})
		}
	}

	log.Info("Owner import resolved",
		logging.Field{Key: logging.FieldCount, Value: len(result.Batch.Transactions)},
		logging.Field{Key: "new_payees", Value: len(result.Batch.NewPayees)},
		logging.Field{Key: "failed_accounts", Value: len(result.Failures)},
		logging.Field{Key: logging.FieldDuration, Value: time.Since(start).Milliseconds()})

	if w != nil && !result.Batch.Empty() {
		if err := w.SaveImport(ctx, result.Batch); err != nil {
			log.WithError(err).Error("Failed to save import batch")
			result.Err = fmt.Errorf("save import of owner %d: %w", ownerID, err)
			return result
		}
		result.Saved = true
	}
	return result
}

// loadOwner reads the owner's categories and mapping table once for the run.
func (im *Importer) loadOwner(ctx context.Context, ownerID int64) (models.OwnerCategories, []models.PayeeMapping, error) {
	categories, err := im.reader.LoadCategories(ctx, ownerID)
	if err != nil {
		return models.OwnerCategories{}, nil, fmt.Errorf("load categories of owner %d: %w", ownerID, err)
	}
	subs, err := im.reader.LoadSubCategories(ctx, ownerID)
	if err != nil {
		return models.OwnerCategories{}, nil, fmt.Errorf("load subcategories of owner %d: %w", ownerID, err)
	}
	cats, err := categorizer.ResolveSingletons(ownerID, categories, subs)
	if err != nil {
		return models.OwnerCategories{}, nil, err
	}
	mappings, err := im.reader.LoadPayeeMappings(ctx, ownerID)
	if err != nil {
		return models.OwnerCategories{}, nil, fmt.Errorf("load payee mappings of owner %d: %w", ownerID, err)
	}
	return cats, mappings, nil
}
