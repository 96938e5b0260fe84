package sync

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAged(t *testing.T, fs afero.Fs, path, content string, age time.Duration) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	mtime := time.Now().Add(-age)
	require.NoError(t, fs.Chtimes(path, mtime, mtime))
}

func TestHashCache_LookupAndInvalidate(t *testing.T) {
	fs := afero.NewMemMapFs()
	cache, err := NewHashCache(8)
	require.NoError(t, err)

	writeAged(t, fs, "/a.txt", "hello", time.Hour)
	info, err := fs.Stat("/a.txt")
	require.NoError(t, err)

	_, ok := cache.Lookup("a.txt", info)
	assert.False(t, ok)

	cache.Store("a.txt", info, "cafe")
	hash, ok := cache.Lookup("a.txt", info)
	assert.True(t, ok)
	assert.Equal(t, "cafe", hash)

	// any change to size or mtime drops the entry
	writeAged(t, fs, "/a.txt", "hello!", time.Hour)
	info, err = fs.Stat("/a.txt")
	require.NoError(t, err)
	_, ok = cache.Lookup("a.txt", info)
	assert.False(t, ok)
	assert.Zero(t, cache.Len())
}

func TestHashCache_SkipsRecentlyModified(t *testing.T) {
	fs := afero.NewMemMapFs()
	cache, err := NewHashCache(8)
	require.NoError(t, err)

	writeAged(t, fs, "/fresh.txt", "x", 0)
	info, err := fs.Stat("/fresh.txt")
	require.NoError(t, err)

	cache.Store("fresh.txt", info, "beef")
	_, ok := cache.Lookup("fresh.txt", info)
	assert.False(t, ok)

	// once the file is old enough it is cached
	cache.now = func() time.Time { return time.Now().Add(racyWindow + time.Second) }
	cache.Store("fresh.txt", info, "beef")
	_, ok = cache.Lookup("fresh.txt", info)
	assert.True(t, ok)
}

func TestSyncLocalState_UsesHashCache(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "/sync"
	writeAged(t, fs, root+"/a.txt", "hello", time.Hour)
	writeAged(t, fs, root+"/dir/b.txt", "world", time.Hour)

	cache, err := NewHashCache(8)
	require.NoError(t, err)
	scanner := newTestScanner(fs, root)
	scanner.SetHashCache(cache)

	first, err := scanner.Scan(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())

	second, err := scanner.Scan(t.Context())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	writeAged(t, fs, root+"/a.txt", "changed", time.Minute)
	third, err := scanner.Scan(t.Context())
	require.NoError(t, err)
	assert.Equal(t, HashBytes([]byte("changed")), third["a.txt"])
	assert.Equal(t, first["dir/b.txt"], third["dir/b.txt"])
}

func TestHashCache_RestoredMtimeNeedsFreshCache(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "/sync"
	mtime := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, afero.WriteFile(fs, root+"/a.txt", []byte("aaaa"), 0o644))
	require.NoError(t, fs.Chtimes(root+"/a.txt", mtime, mtime))

	cache, err := NewHashCache(8)
	require.NoError(t, err)
	cached := newTestScanner(fs, root)
	cached.SetHashCache(cache)
	_, err = cached.Scan(t.Context())
	require.NoError(t, err)

	// same size, old mtime put back
	require.NoError(t, afero.WriteFile(fs, root+"/a.txt", []byte("bbbb"), 0o644))
	require.NoError(t, fs.Chtimes(root+"/a.txt", mtime, mtime))

	snapshot, err := cached.Scan(t.Context())
	require.NoError(t, err)
	assert.Equal(t, HashBytes([]byte("aaaa")), snapshot["a.txt"])

	snapshot, err = newTestScanner(fs, root).Scan(t.Context())
	require.NoError(t, err)
	assert.Equal(t, HashBytes([]byte("bbbb")), snapshot["a.txt"])
}
