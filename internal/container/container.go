// Package container provides dependency injection for the stmt-import application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"errors"
	"fmt"
	"io"

	"fjacquet/stmt-import/internal/config"
	"fjacquet/stmt-import/internal/factory"
	"fjacquet/stmt-import/internal/filesource"
	"fjacquet/stmt-import/internal/importer"
	"fjacquet/stmt-import/internal/logging"
	"fjacquet/stmt-import/internal/store"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger   logging.Logger
	config   *config.Config
	store    store.Store
	source   filesource.Source
	adapters *factory.Registry
	importer *importer.Importer
}

// NewContainer creates and wires all application dependencies.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	// Create logger first as it's needed by other components
	logger := config.NewLoggerFromConfig(cfg)
	logging.SetLogger(logger)

	st, err := NewStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	src, err := NewSource(ctx, cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return NewContainerWithDeps(cfg, logger, st, src), nil
}

// NewContainerWithDeps wires a container around an existing store and source.
// Tests use it with store.MockStore and filesource.MemorySource.
func NewContainerWithDeps(cfg *config.Config, logger logging.Logger, st store.Store, src filesource.Source) *Container {
	logger = logging.OrDefault(logger)
	adapters := factory.NewRegistry(logger, cfg.ExtraSignatures())
	imp := importer.New(src, st, adapters, cfg.Import.Workers, logger)

	logger.Debug("Container initialized",
		logging.Field{Key: logging.FieldStore, Value: cfg.Store.Driver},
		logging.Field{Key: logging.FieldSource, Value: cfg.Source.Driver},
		logging.Field{Key: "workers", Value: cfg.Import.Workers})

	return &Container{
		logger:   logger,
		config:   cfg,
		store:    st,
		source:   src,
		adapters: adapters,
		importer: imp,
	}
}

// NewStore opens the store selected by store.driver.
func NewStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case store.DriverFile:
		return store.NewFileStore(cfg.Store.Directory, logger), nil
	case store.DriverSQLite:
		st, err := store.NewSQLiteStore(ctx, cfg.Store.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// NewSource opens the file source selected by source.driver.
func NewSource(ctx context.Context, cfg *config.Config) (filesource.Source, error) {
	switch cfg.Source.Driver {
	case filesource.DriverLocal:
		return filesource.NewLocalSource(cfg.Source.Directory), nil
	case filesource.DriverGCS:
		src, err := filesource.NewGCSSource(ctx, cfg.Source.Bucket)
		if err != nil {
			return nil, fmt.Errorf("open gcs source: %w", err)
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unknown source driver: %s", cfg.Source.Driver)
	}
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the configured store.
func (c *Container) GetStore() store.Store {
	return c.store
}

// GetSource returns the configured file source.
func (c *Container) GetSource() filesource.Source {
	return c.source
}

// GetAdapters returns the adapter registry.
func (c *Container) GetAdapters() *factory.Registry {
	return c.adapters
}

// GetImporter returns the pipeline orchestrator.
func (c *Container) GetImporter() *importer.Importer {
	return c.importer
}

// Close releases the store and, when it holds one, the source client.
func (c *Container) Close() error {
	var errs []error
	if err := c.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	if closer, ok := c.source.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close source: %w", err))
		}
	}
	c.logger.Debug("Container closed")
	return errors.Join(errs...)
}
