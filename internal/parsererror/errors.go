// Package parsererror defines the typed errors of the import pipeline. Row
// errors are recovered inside adapters, adapter errors fail a single account,
// and configuration errors fail a whole owner run.
package parsererror

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownProvider is returned when no adapter exists for a provider.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrNoFiles marks an account whose source location holds no exports.
	ErrNoFiles = errors.New("no statement files found")
)

// ParseError represents a failure to parse one cell of a statement row.
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %v",
		e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// InvalidFormatError represents a file that does not match the layout its
// institution adapter expects.
type InvalidFormatError struct {
	FilePath             string
	ExpectedFormat       string
	ActualContentSnippet string
	Msg                  string
	Err                  error
}

func (e *InvalidFormatError) Error() string {
	if e.ActualContentSnippet != "" {
		return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s. Content snippet: '%s'",
			e.FilePath, e.Msg, e.ExpectedFormat, e.ActualContentSnippet)
	}
	return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s",
		e.FilePath, e.Msg, e.ExpectedFormat)
}

func (e *InvalidFormatError) Unwrap() error {
	return e.Err
}

// AccountImportError reports that one account's import failed. Sibling
// accounts in the same run are unaffected.
type AccountImportError struct {
	AccountID int64
	Provider  string
	FilePath  string
	Err       error
}

func (e *AccountImportError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("import of account %d (%s) failed on '%s': %v",
			e.AccountID, e.Provider, e.FilePath, e.Err)
	}
	return fmt.Sprintf("import of account %d (%s) failed: %v", e.AccountID, e.Provider, e.Err)
}

func (e *AccountImportError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports owner configuration that makes an import unsafe,
// such as a missing or duplicated singleton category.
type ConfigurationError struct {
	OwnerID int64
	Role    string
	Msg     string
}

func (e *ConfigurationError) Error() string {
	if e.Role != "" {
		return fmt.Sprintf("configuration error for owner %d (role %s): %s", e.OwnerID, e.Role, e.Msg)
	}
	return fmt.Sprintf("configuration error for owner %d: %s", e.OwnerID, e.Msg)
}
