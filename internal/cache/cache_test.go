// # internal/cache/cache_test.go
package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supdoc/internal/objdoc"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "m.py", "x = 1\n")
	store := NewStore(filepath.Join(dir, "cache"), 1)

	doc := &objdoc.Node{Name: "m", TypeName: "module", Docs: &objdoc.Docs{Summary: "A module."}}
	store.Save("m", src, doc)

	got, ok := store.Load("m", src)
	require.True(t, ok)
	assert.Equal(t, "m", got.Name)
	assert.Equal(t, "A module.", got.Docs.Summary)
}

func TestMissOnCold(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "m.py", "x = 1\n")
	store := NewStore(filepath.Join(dir, "cache"), 1)

	_, ok := store.Load("m", src)
	assert.False(t, ok)
}

func TestMissOnSourceChange(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "m.py", "x = 1\n")
	store := NewStore(filepath.Join(dir, "cache"), 1)
	store.Save("m", src, &objdoc.Node{Name: "m"})

	// Different size invalidates regardless of mtime granularity.
	require.NoError(t, os.WriteFile(src, []byte("x = 1\ny = 2\n"), 0o644))
	_, ok := store.Load("m", src)
	assert.False(t, ok)
}

func TestMissOnMtimeChange(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "m.py", "x = 1\n")
	store := NewStore(filepath.Join(dir, "cache"), 1)
	store.Save("m", src, &objdoc.Node{Name: "m"})

	// Same size, different timestamp.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(src, past, past))
	_, ok := store.Load("m", src)
	assert.False(t, ok)
}

func TestMissOnVersionChange(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "m.py", "x = 1\n")
	cacheDir := filepath.Join(dir, "cache")

	NewStore(cacheDir, 1).Save("m", src, &objdoc.Node{Name: "m"})
	_, ok := NewStore(cacheDir, 2).Load("m", src)
	assert.False(t, ok)
}

func TestMissOnCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "m.py", "x = 1\n")
	cacheDir := filepath.Join(dir, "cache")
	store := NewStore(cacheDir, 1)
	store.Save("m", src, &objdoc.Node{Name: "m"})

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	path := filepath.Join(cacheDir, entries[0].Name())
	require.NoError(t, os.WriteFile(path, []byte("not gzip at all"), 0o644))

	_, ok := store.Load("m", src)
	assert.False(t, ok)
}

func TestMissWhenSourceGone(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "m.py", "x = 1\n")
	store := NewStore(filepath.Join(dir, "cache"), 1)
	store.Save("m", src, &objdoc.Node{Name: "m"})

	require.NoError(t, os.Remove(src))
	_, ok := store.Load("m", src)
	assert.False(t, ok)
}

func TestInvalidate(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "m.py", "x = 1\n")
	store := NewStore(filepath.Join(dir, "cache"), 1)
	store.Save("m", src, &objdoc.Node{Name: "m"})

	store.Invalidate("m")
	_, ok := store.Load("m", src)
	assert.False(t, ok)

	// Invalidating a missing entry is a no-op.
	store.Invalidate("never.cached")
}
