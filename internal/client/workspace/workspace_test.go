package workspace

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_CreatesMarkerAndBaseline(t *testing.T) {
	root := t.TempDir()

	w, err := Init(root, "http://localhost:8080/")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", w.ServerURL)
	assert.FileExists(t, w.MarkerPath)
	assert.FileExists(t, w.StatePath)

	marker, err := os.ReadFile(w.MarkerPath)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080\n", string(marker))

	baseline, err := os.ReadFile(w.StatePath)
	require.NoError(t, err)
	assert.Empty(t, baseline)
}

func TestInit_KeepsExistingBaseline(t *testing.T) {
	root := t.TempDir()
	statePath := filepath.Join(root, StateFile)
	require.NoError(t, os.WriteFile(statePath, []byte(`[]`), 0o644))

	_, err := Init(root, "http://localhost:8080")
	require.NoError(t, err)

	baseline, err := os.ReadFile(statePath)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(baseline))
}

func TestInit_Twice(t *testing.T) {
	root := t.TempDir()

	_, err := Init(root, "http://localhost:8080")
	require.NoError(t, err)

	_, err = Init(root, "http://localhost:9090")
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestInit_InvalidURI(t *testing.T) {
	root := t.TempDir()

	_, err := Init(root, "not a uri")
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(root, MarkerFile))
}

func TestFind_WalksAncestors(t *testing.T) {
	root := t.TempDir()
	_, err := Init(root, "https://sync.example.com")
	require.NoError(t, err)

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	w, err := Find(nested)
	require.NoError(t, err)

	expected, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	actual, err := filepath.EvalSymlinks(w.Root)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
	assert.Equal(t, "https://sync.example.com", w.ServerURL)
}

func TestFind_ResolvesSymlinkedRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	_, err = Init(root, "http://localhost:8080")
	require.NoError(t, err)

	link := filepath.Join(t.TempDir(), "link")
	require.NoError(t, os.Symlink(root, link))

	w, err := Find(link)
	require.NoError(t, err)
	assert.Equal(t, root, w.Root)
	assert.Equal(t, filepath.Join(root, StateFile), w.StatePath)
}

func TestInit_ResolvesSymlinkedRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	link := filepath.Join(t.TempDir(), "link")
	require.NoError(t, os.Symlink(root, link))

	w, err := Init(link, "http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, root, w.Root)
	assert.FileExists(t, filepath.Join(root, MarkerFile))
}

func TestFind_NoMarker(t *testing.T) {
	// t.TempDir lives under the OS temp dir which has no marker above it
	_, err := Find(t.TempDir())
	assert.ErrorIs(t, err, ErrRootNotFound)
}

func TestFind_CorruptMarker(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, MarkerFile), []byte("garbage"), 0o644))

	_, err := Find(root)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrRootNotFound)
}

func TestWorkspaceLocking_SingleInstance(t *testing.T) {
	root := t.TempDir()
	_, err := Init(root, "http://localhost:8080")
	require.NoError(t, err)

	w1, err := Find(root)
	require.NoError(t, err)
	w2, err := Find(root)
	require.NoError(t, err)

	require.NoError(t, w1.Lock())
	assert.FileExists(t, w1.LockPath)

	assert.ErrorIs(t, w2.Lock(), ErrWorkspaceLocked)

	// unlocking a workspace that never locked is a no-op and leaves the lock in place
	require.NoError(t, w2.Unlock())
	assert.FileExists(t, w1.LockPath)

	require.NoError(t, w1.Unlock())
	assert.NoFileExists(t, w1.LockPath)

	require.NoError(t, w2.Lock())
	require.NoError(t, w2.Unlock())
}

func TestPaths(t *testing.T) {
	w := newWorkspace("/data/root", "http://localhost")

	assert.Equal(t, filepath.Join("/data/root", "a", "b.txt"), w.AbsPath("a/b.txt"))

	rel, err := w.RelPath(filepath.Join("/data/root", "a", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a/b.txt", rel)
}

func TestIsReserved(t *testing.T) {
	assert.True(t, IsReserved(MarkerFile))
	assert.True(t, IsReserved(StateFile))
	assert.True(t, IsReserved(LockFile))
	assert.True(t, IsReserved("dir/a.txt.mynk.tmp.1234"))
	assert.True(t, IsReserved(".mynk.json.mynk.tmp.99"))

	assert.False(t, IsReserved("a.txt"))
	assert.False(t, IsReserved("dir/.mynk"))
	assert.False(t, IsReserved(IgnoreFile))
}
