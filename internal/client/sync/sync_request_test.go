package sync

import (
	"testing"

	"github.com/mynk/mynk/internal/client/workspace"
	"github.com/mynk/mynk/internal/syncmsg"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws, err := workspace.Init(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)
	return ws
}

func TestBuildRequest(t *testing.T) {
	ws := newTestWorkspace(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, ws.AbsPath("new.txt"), []byte("new"), 0o644))
	require.NoError(t, afero.WriteFile(fs, ws.AbsPath("dir/edit.txt"), []byte("edited"), 0o644))

	state := StateMapping{
		"new.txt":      entry("new.txt", "new", 1, ActionCreate),
		"dir/edit.txt": entry("dir/edit.txt", "edited", 3, ActionEdit),
		"gone.txt":     entry("gone.txt", "gone", 2, ActionDelete),
		"same.txt":     entry("same.txt", "same", 5, ActionPass),
	}

	request, err := buildRequest(fs, ws, state)
	require.NoError(t, err)

	require.Len(t, request.Files, 3)
	assert.Equal(t, &syncmsg.FileChange{
		Filename: "dir/edit.txt",
		Version:  3,
		Hash:     HashBytes([]byte("edited")),
		Action:   ActionEdit,
		Contents: []byte("edited"),
	}, request.Files[0])
	assert.Equal(t, &syncmsg.FileChange{
		Filename: "gone.txt",
		Version:  2,
		Hash:     HashBytes([]byte("gone")),
		Action:   ActionDelete,
		Contents: []byte{},
	}, request.Files[1])
	assert.Equal(t, "new.txt", request.Files[2].Filename)
	assert.Equal(t, []byte("new"), request.Files[2].Contents)

	// the summary covers every tracked entry, pass and pending delete included
	require.Len(t, request.Summary, 4)
	names := make([]string, 0, len(request.Summary))
	for _, s := range request.Summary {
		names = append(names, s.Filename)
	}
	assert.Equal(t, []string{"dir/edit.txt", "gone.txt", "new.txt", "same.txt"}, names)
	assert.Equal(t, &syncmsg.SummaryEntry{Filename: "same.txt", Hash: HashBytes([]byte("same")), Version: 5}, request.Summary[3])

	assert.Equal(t, len("new")+len("edited"), request.PayloadSize())
}

func TestBuildRequest_NothingPending(t *testing.T) {
	ws := newTestWorkspace(t)
	state := StateMapping{"a.txt": entry("a.txt", "a", 1, ActionPass)}

	request, err := buildRequest(afero.NewMemMapFs(), ws, state)
	require.NoError(t, err)
	assert.NotNil(t, request.Files)
	assert.Empty(t, request.Files)
	assert.Len(t, request.Summary, 1)
}

func TestBuildRequest_UnreadableFile(t *testing.T) {
	ws := newTestWorkspace(t)
	state := StateMapping{"vanished.txt": entry("vanished.txt", "v", 1, ActionCreate)}

	_, err := buildRequest(afero.NewMemMapFs(), ws, state)
	assert.ErrorIs(t, err, ErrFilesystem)
}

func TestBuildRequest_ContentChangedSinceScan(t *testing.T) {
	ws := newTestWorkspace(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, ws.AbsPath("a.txt"), []byte("newer"), 0o644))

	state := StateMapping{"a.txt": entry("a.txt", "scanned", 2, ActionEdit)}

	request, err := buildRequest(fs, ws, state)
	require.NoError(t, err)
	assert.Equal(t, HashBytes([]byte("newer")), request.Files[0].Hash)
	assert.Equal(t, HashBytes([]byte("newer")), request.Summary[0].Hash)
	assert.Equal(t, HashBytes([]byte("newer")), state["a.txt"].Hash)
}
