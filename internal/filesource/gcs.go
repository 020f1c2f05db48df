package filesource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSSource reads exports from a Google Cloud Storage bucket. Object names
// under a prefix play the role of files in a directory.
type GCSSource struct {
	client *storage.Client
	bucket string
}

// NewGCSSource creates a source using Application Default Credentials.
func NewGCSSource(ctx context.Context, bucket string) (*GCSSource, error) {
	if bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSSource{client: client, bucket: bucket}, nil
}

// NewGCSSourceWithClient wraps an existing client.
func NewGCSSourceWithClient(client *storage.Client, bucket string) *GCSSource {
	return &GCSSource{client: client, bucket: bucket}
}

// List returns the object names directly under prefix, skipping nested
// "directories" and placeholder objects.
func (s *GCSSource) List(ctx context.Context, prefix string) ([]string, error) {
	prefix = objectPrefix(prefix)
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix, Delimiter: "/"})
	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s/%s: %w", s.bucket, prefix, err)
		}
		if !listedObject(attrs) {
			continue
		}
		names = append(names, attrs.Name)
	}
	sort.Strings(names)
	return names, nil
}

// objectPrefix turns a directory-like name into a listing prefix.
func objectPrefix(dir string) string {
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return ""
	}
	return dir + "/"
}

// listedObject reports whether a listing entry is an export file. Synthetic
// prefix entries stand for nested directories; names ending in "/" are
// console-created folder placeholders.
func listedObject(attrs *storage.ObjectAttrs) bool {
	if attrs.Prefix != "" || attrs.Name == "" {
		return false
	}
	return !strings.HasSuffix(attrs.Name, "/") && !hidden(attrs.Name)
}

// Open returns a reader over the object's content.
func (s *GCSSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader gs://%s/%s: %w", s.bucket, name, err)
	}
	return r, nil
}

// Close releases the storage client.
func (s *GCSSource) Close() error {
	return s.client.Close()
}
