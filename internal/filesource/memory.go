package filesource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
)

// MemorySource serves files from memory. Tests use it in place of disk or GCS.
type MemorySource struct {
	mu    sync.RWMutex
	files map[string][]byte

	// OpenErrors forces Open to fail for the given names.
	OpenErrors map[string]error
}

// NewMemorySource creates an empty source.
func NewMemorySource() *MemorySource {
	return &MemorySource{files: make(map[string][]byte)}
}

// Add stores data under name, replacing any previous content.
func (s *MemorySource) Add(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = data
}

// List returns the names directly under prefix.
func (s *MemorySource) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for name := range s.files {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok || rest == "" || strings.Contains(rest, "/") || hidden(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Open returns a reader over a copy of the stored bytes.
func (s *MemorySource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.OpenErrors[name]; err != nil {
		return nil, err
	}
	data, ok := s.files[name]
	if !ok {
		return nil, fmt.Errorf("error opening %s: %w", name, os.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
