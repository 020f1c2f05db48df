package logging

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLogger_DerivedLoggersShareSink(t *testing.T) {
	root := NewMockLogger()
	child := root.WithField(FieldAccountID, int64(5))
	child.Warn("row skipped", Field{Key: FieldRow, Value: 3})
	root.WithError(errors.New("boom")).Error("failed")

	entries := root.GetEntries()
	require.Len(t, entries, 2)

	v, ok := entries[0].FieldValue(FieldAccountID)
	require.True(t, ok)
	assert.Equal(t, int64(5), v)
	v, ok = entries[0].FieldValue(FieldRow)
	require.True(t, ok)
	assert.Equal(t, 3, v)

	assert.EqualError(t, entries[1].Error, "boom")
	assert.True(t, root.HasEntry("WARN", "row skipped"))
	assert.Len(t, root.GetEntriesByLevel("ERROR"), 1)

	root.Clear()
	assert.Empty(t, root.GetEntries())
}

func TestMockLogger_ConcurrentWrites(t *testing.T) {
	root := NewMockLogger()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			root.WithField(FieldAccountID, i).Info("extracted")
		}(i)
	}
	wg.Wait()
	assert.Len(t, root.GetEntries(), 20)
}

func TestMockLogger_ZeroValueUsable(t *testing.T) {
	var m MockLogger
	m.Info("hello")
	assert.True(t, m.HasEntry("INFO", "hello"))
}
