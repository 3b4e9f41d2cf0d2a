package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestReadWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "sample.json")

	var missing sample
	found, err := ReadJSON(path, &missing)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, WriteJSON(path, sample{Name: "家計簿", Count: 3}))

	var got sample
	found, err = ReadJSON(path, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sample{Name: "家計簿", Count: 3}, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be renamed away")
}

func TestReadJSONCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	var v sample
	found, err := ReadJSON(path, &v)
	assert.True(t, found)
	assert.Error(t, err)
}

func TestRecentFiles(t *testing.T) {
	dir := t.TempDir()
	r := NewRecentFiles(filepath.Join(dir, RecentSpreadsheetsFile))

	list, err := r.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	var files []string
	for i := 0; i < MaxRecentFiles+2; i++ {
		p := filepath.Join(dir, "book"+string(rune('a'+i))+".xlsx")
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
		files = append(files, p)
		require.NoError(t, r.Add(p))
	}

	list, err = r.List()
	require.NoError(t, err)
	require.Len(t, list, MaxRecentFiles)
	assert.Equal(t, files[len(files)-1], list[0])

	// Re-adding moves to the front without duplicating.
	require.NoError(t, r.Add(files[5]))
	list, err = r.List()
	require.NoError(t, err)
	assert.Equal(t, files[5], list[0])
	assert.Len(t, list, MaxRecentFiles)

	// Deleted files disappear.
	require.NoError(t, os.Remove(files[5]))
	list, err = r.List()
	require.NoError(t, err)
	assert.NotContains(t, list, files[5])
}
