package sync

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T) (*FileWatcher, string) {
	t.Helper()

	// macos is funny =)
	// tmpdir lives in /var/folders but it's actually symlink to /private/var/folders
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err, "failed to evaluate symlinks")

	fw := NewFileWatcher(root)
	fw.SetDebounceTimeout(50 * time.Millisecond)
	return fw, root
}

func waitBatch(t *testing.T, fw *FileWatcher) []string {
	t.Helper()
	select {
	case batch := <-fw.Batches():
		return batch
	case <-time.After(3 * time.Second):
		require.FailNow(t, "timeout waiting for file events")
		return nil
	}
}

func TestNewFileWatcher(t *testing.T) {
	fw := NewFileWatcher("/test/path")

	assert.Equal(t, "/test/path", fw.rootDir)
	assert.Nil(t, fw.batches)
	assert.Nil(t, fw.rawEvents)
	assert.NotNil(t, fw.done)
	assert.Equal(t, defaultDebounceTimeout, fw.debounceTimeout)
}

func TestFileWatcherBatch(t *testing.T) {
	fw, root := newTestWatcher(t)
	require.NoError(t, fw.Start(t.Context()))
	defer fw.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("world"), 0o644))

	// both writes land in one batch unless the machine is very slow
	seen := map[string]bool{}
	for !seen["a.txt"] || !seen["b.txt"] {
		for _, path := range waitBatch(t, fw) {
			seen[path] = true
		}
	}
}

func TestFileWatcherNested(t *testing.T) {
	fw, root := newTestWatcher(t)

	nested := filepath.Join(root, "dir", "sub")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	require.NoError(t, fw.Start(t.Context()))
	defer fw.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(nested, "c.txt"), []byte("c"), 0o644))

	for {
		batch := waitBatch(t, fw)
		if assert.NotEmpty(t, batch) && contains(batch, "dir/sub/c.txt") {
			return
		}
	}
}

func TestFileWatcherFilter(t *testing.T) {
	fw, root := newTestWatcher(t)
	fw.FilterPaths(func(relPath string) bool {
		return filepath.Ext(relPath) == ".tmp"
	})
	require.NoError(t, fw.Start(t.Context()))
	defer fw.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "ignored.tmp"), []byte("x"), 0o644))

	select {
	case batch := <-fw.Batches():
		assert.FailNow(t, "expected no events", "got %v", batch)
	case <-time.After(500 * time.Millisecond):
	}
}

func contains(paths []string, want string) bool {
	for _, path := range paths {
		if path == want {
			return true
		}
	}
	return false
}
