// Package parser defines the Format Adapter contract implemented by every
// institution package, together with the row-building helpers they share.
package parser

import (
	"context"
	"io"

	"fjacquet/stmt-import/internal/common"
	"fjacquet/stmt-import/internal/models"
)

// Adapter turns one institution export into intermediate rows.
type Adapter interface {
	// Provider returns the institution this adapter handles.
	Provider() models.Provider

	// ReadConfig returns the fixed physical layout of the institution's export:
	// encoding and the number of preamble and footer rows.
	ReadConfig() common.FrameConfig

	// Extract reads one export and returns its accepted rows in file order.
	// Rows with a missing or unparsable date or amount are dropped. Errors are
	// returned only when the file as a whole cannot be read, and are
	// *parsererror.InvalidFormatError in that case.
	Extract(ctx context.Context, r io.Reader, name string, account models.Account) ([]models.RawRow, error)
}
