package filesource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// LocalSource reads exports from subdirectories of a root directory.
type LocalSource struct {
	root string
}

// NewLocalSource creates a source rooted at dir.
func NewLocalSource(dir string) *LocalSource {
	return &LocalSource{root: dir}
}

// List returns the regular, non-hidden files directly inside root/prefix.
// A missing directory yields no files.
func (s *LocalSource) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.root, filepath.FromSlash(prefix))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("error listing %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || hidden(e.Name()) {
			continue
		}
		names = append(names, filepath.ToSlash(filepath.Join(prefix, e.Name())))
	}
	sort.Strings(names)
	return names, nil
}

// Open opens a name returned by List.
func (s *LocalSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(name)))
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", name, err)
	}
	return f, nil
}
