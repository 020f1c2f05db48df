package models

import (
	"fmt"
	"strings"
	"time"
)

// Provider identifies the institution a statement export comes from.
type Provider string

const (
	ProviderRakuten Provider = "rakuten"
	ProviderEpos    Provider = "epos"
	ProviderDocomo  Provider = "docomo"
	ProviderMizuho  Provider = "mizuho"
)

// AllProviders returns every supported provider in a stable order.
func AllProviders() []Provider {
	return []Provider{ProviderRakuten, ProviderEpos, ProviderDocomo, ProviderMizuho}
}

// Valid reports whether p is one of the supported providers.
func (p Provider) Valid() bool {
	for _, known := range AllProviders() {
		if p == known {
			return true
		}
	}
	return false
}

// ParseProvider converts a case-insensitive name into a Provider.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unsupported provider %q", s)
	}
	return p, nil
}

// Account is a statement source owned by a user. LastImportDate is the
// incremental import cursor; nil means nothing has been imported yet.
type Account struct {
	ID             int64      `yaml:"id"`
	OwnerID        int64      `yaml:"owner_id"`
	Name           string     `yaml:"name,omitempty"`
	Provider       Provider   `yaml:"provider"`
	SourcePath     string     `yaml:"source_path,omitempty"`
	LastImportDate *time.Time `yaml:"last_import_date,omitempty"`
}

// Path returns the directory or object prefix holding the account's exports.
func (a Account) Path() string {
	if a.SourcePath != "" {
		return a.SourcePath
	}
	return string(a.Provider)
}

// String implements fmt.Stringer for log output.
func (a Account) String() string {
	return fmt.Sprintf("account %d (%s, owner %d)", a.ID, a.Provider, a.OwnerID)
}
