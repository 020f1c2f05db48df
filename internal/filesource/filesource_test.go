package filesource

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSource(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "rakuten")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "archive"), 0750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte("b"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("a"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".DS_Store"), []byte("x"), 0600))

	src := NewLocalSource(root)
	ctx := context.Background()

	names, err := src.List(ctx, "rakuten")
	require.NoError(t, err)
	assert.Equal(t, []string{"rakuten/a.csv", "rakuten/b.csv"}, names)

	rc, err := src.Open(ctx, names[1])
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))
}

func TestLocalSource_MissingDirectory(t *testing.T) {
	names, err := NewLocalSource(t.TempDir()).List(context.Background(), "epos")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalSource_OpenMissing(t *testing.T) {
	_, err := NewLocalSource(t.TempDir()).Open(context.Background(), "epos/none.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMemorySource(t *testing.T) {
	src := NewMemorySource()
	src.Add("docomo/2024-01.csv", []byte("one"))
	src.Add("docomo/2023-12.csv", []byte("two"))
	src.Add("docomo/old/2023-01.csv", []byte("nested"))
	src.Add("epos/x.csv", []byte("other"))
	ctx := context.Background()

	names, err := src.List(ctx, "docomo/")
	require.NoError(t, err)
	assert.Equal(t, []string{"docomo/2023-12.csv", "docomo/2024-01.csv"}, names)

	rc, err := src.Open(ctx, "epos/x.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "other", string(data))

	_, err = src.Open(ctx, "missing.csv")
	assert.ErrorIs(t, err, os.ErrNotExist)

	src.OpenErrors = map[string]error{"epos/x.csv": assert.AnError}
	_, err = src.Open(ctx, "epos/x.csv")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestMemorySource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemorySource().List(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}
