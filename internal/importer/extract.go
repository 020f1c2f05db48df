package importer

import (
	"context"
	"errors"
	"fmt"

	"fjacquet/stmt-import/internal/logging"
	"fjacquet/stmt-import/internal/models"
	"fjacquet/stmt-import/internal/parser"
	"fjacquet/stmt-import/internal/parsererror"

	"golang.org/x/sync/errgroup"
)

// accountRows holds the windowed rows of one account. ok is false when the
// account failed and its rows must not be used.
type accountRows struct {
	account models.Account
	rows    []models.RawRow
	ok      bool
}

// extractAccounts reads every account concurrently. An account failure is
// collected and never cancels its siblings; only cancellation of ctx aborts
// the whole owner. Results keep the order of accounts.
func (im *Importer) extractAccounts(ctx context.Context, log logging.Logger, accounts []models.Account, spec models.WindowSpec) ([]accountRows, []*parsererror.AccountImportError, error) {
	results := make([]accountRows, len(accounts))
	failures := make([]*parsererror.AccountImportError, len(accounts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.workers)
	for i, account := range accounts {
		g.Go(func() error {
			alog := log.WithFields(
				logging.Field{Key: logging.FieldAccountID, Value: account.ID},
				logging.Field{Key: logging.FieldProvider, Value: string(account.Provider)})

			rows, err := im.extractAccount(gctx, alog, account)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				var accErr *parsererror.AccountImportError
				if !errors.As(err, &accErr) {
					accErr = &parsererror.AccountImportError{AccountID: account.ID, Provider: string(account.Provider), Err: err}
				}
				alog.WithError(err).Error("Account import failed")
				failures[i] = accErr
				results[i] = accountRows{account: account}
				return nil
			}

			selected := im.windows.SelectWindow(rows, account, spec)
			alog.Info("Account extracted",
				logging.Field{Key: "extracted", Value: len(rows)},
				logging.Field{Key: logging.FieldCount, Value: len(selected)})
			results[i] = accountRows{account: account, rows: selected, ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var collected []*parsererror.AccountImportError
	for _, f := range failures {
		if f != nil {
			collected = append(collected, f)
		}
	}
	return results, collected, nil
}

// extractAccount concatenates the rows of every file of account in listing
// order. Any file failure fails the whole account.
func (im *Importer) extractAccount(ctx context.Context, log logging.Logger, account models.Account) ([]models.RawRow, error) {
	adapter, err := im.adapters.Adapter(account.Provider)
	if err != nil {
		return nil, &parsererror.AccountImportError{AccountID: account.ID, Provider: string(account.Provider), Err: err}
	}

	files, err := im.source.List(ctx, account.Path())
	if err != nil {
		return nil, &parsererror.AccountImportError{AccountID: account.ID, Provider: string(account.Provider), FilePath: account.Path(), Err: err}
	}
	if len(files) == 0 {
		log.Info("No statement files for account",
			logging.Field{Key: logging.FieldSource, Value: account.Path()},
			logging.Field{Key: "reason", Value: parsererror.ErrNoFiles.Error()})
		return nil, nil
	}

	var rows []models.RawRow
	for _, name := range files {
		fileRows, err := im.extractFile(ctx, adapter, name, account)
		if err != nil {
			return nil, &parsererror.AccountImportError{AccountID: account.ID, Provider: string(account.Provider), FilePath: name, Err: err}
		}
		log.Debug("Extracted statement file",
			logging.Field{Key: logging.FieldFile, Value: name},
			logging.Field{Key: logging.FieldCount, Value: len(fileRows)})
		rows = append(rows, fileRows...)
	}
	return rows, nil
}

func (im *Importer) extractFile(ctx context.Context, adapter parser.Adapter, name string, account models.Account) ([]models.RawRow, error) {
	rc, err := im.source.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = rc.Close() }()
	return adapter.Extract(ctx, rc, name, account)
}
