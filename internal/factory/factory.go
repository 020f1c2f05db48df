// Package factory maps a provider to its Format Adapter. The set of
// providers is closed; adding an institution means adding a case here.
package factory

import (
	"fmt"

	"fjacquet/stmt-import/internal/docomoparser"
	"fjacquet/stmt-import/internal/eposparser"
	"fjacquet/stmt-import/internal/logging"
	"fjacquet/stmt-import/internal/mizuhoparser"
	"fjacquet/stmt-import/internal/models"
	"fjacquet/stmt-import/internal/parser"
	"fjacquet/stmt-import/internal/parsererror"
	"fjacquet/stmt-import/internal/rakutenparser"
)

// GetAdapter returns the adapter for provider using the process logger.
func GetAdapter(provider models.Provider) (parser.Adapter, error) {
	return GetAdapterWithLogger(provider, logging.GetLogger())
}

// GetAdapterWithLogger returns the adapter for provider. extraSignatures are
// stripped from merchant text in addition to the institution's built-in tokens.
func GetAdapterWithLogger(provider models.Provider, logger logging.Logger, extraSignatures ...string) (parser.Adapter, error) {
	switch provider {
	case models.ProviderRakuten:
		return rakutenparser.NewAdapter(logger, extraSignatures...), nil
	case models.ProviderEpos:
		return eposparser.NewAdapter(logger, extraSignatures...), nil
	case models.ProviderDocomo:
		return docomoparser.NewAdapter(logger, extraSignatures...), nil
	case models.ProviderMizuho:
		return mizuhoparser.NewAdapter(logger, extraSignatures...), nil
	default:
		return nil, fmt.Errorf("%w: %q", parsererror.ErrUnknownProvider, provider)
	}
}

// Registry resolves adapters with per-provider signature configuration.
type Registry struct {
	logger     logging.Logger
	signatures map[models.Provider][]string
}

// NewRegistry creates a Registry. signatures holds the configured extra
// tokens per provider and may be nil.
func NewRegistry(logger logging.Logger, signatures map[models.Provider][]string) *Registry {
	return &Registry{logger: logging.OrDefault(logger), signatures: signatures}
}

// Adapter returns the adapter for provider.
func (r *Registry) Adapter(provider models.Provider) (parser.Adapter, error) {
	return GetAdapterWithLogger(provider, r.logger, r.signatures[provider]...)
}
