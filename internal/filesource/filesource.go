// Package filesource lists and opens statement exports on local disk, in a
// Google Cloud Storage bucket, or in memory.
package filesource

import (
	"context"
	"io"
	"path"
	"strings"
)

// Source lists the statement files stored under a prefix and opens them.
// List returns names in lexical order; an empty result is not an error.
type Source interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Driver names accepted by the configuration.
const (
	DriverLocal = "local"
	DriverGCS   = "gcs"
)

// hidden reports whether the base name of name starts with a dot.
func hidden(name string) bool {
	return strings.HasPrefix(path.Base(name), ".")
}
