package sync

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJournalPath = "/sync/.mynk.json"

func TestSyncJournal_MissingAndEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	journal := NewSyncJournal(fs, testJournalPath)

	state, err := journal.Load()
	require.NoError(t, err)
	assert.Empty(t, state)

	require.NoError(t, afero.WriteFile(fs, testJournalPath, nil, 0o644))
	state, err = journal.Load()
	require.NoError(t, err)
	assert.NotNil(t, state)
	assert.Empty(t, state)

	require.NoError(t, afero.WriteFile(fs, testJournalPath, []byte(" \n"), 0o644))
	state, err = journal.Load()
	require.NoError(t, err)
	assert.Empty(t, state)
}

func TestSyncJournal_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	journal := NewSyncJournal(fs, testJournalPath)

	original := StateMapping{
		"a.txt":     {Filename: "a.txt", Hash: HashBytes([]byte("a")), Version: 1, Action: ActionPass},
		"dir/b.txt": {Filename: "dir/b.txt", Hash: HashBytes([]byte("b")), Version: 7, Action: ActionEdit},
		"gone.txt":  {Filename: "gone.txt", Hash: "", Version: 3, Action: ActionDelete},
	}

	require.NoError(t, journal.Save(original))

	loaded, err := journal.Load()
	require.NoError(t, err)
	require.Len(t, loaded, len(original))
	for name, want := range original {
		got := loaded[name]
		require.NotNil(t, got, name)
		assert.Equal(t, want.Filename, got.Filename)
		assert.Equal(t, want.Hash, got.Hash)
		assert.Equal(t, want.Version, got.Version)
		assert.Equal(t, want.Action, got.Action)
	}
}

func TestSyncJournal_PersistedFormat(t *testing.T) {
	fs := afero.NewMemMapFs()
	journal := NewSyncJournal(fs, testJournalPath)

	require.NoError(t, journal.Save(StateMapping{
		"b.txt": {Filename: "b.txt", Hash: "bb", Version: 2, Action: ActionPass},
		"a.txt": {Filename: "a.txt", Hash: "aa", Version: 1, Action: ActionCreate},
	}))

	data, err := afero.ReadFile(fs, testJournalPath)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"filename":"a.txt","hash":"aa","version":1,"action":"create"},
		{"filename":"b.txt","hash":"bb","version":2,"action":"pass"}
	]`, string(data))

	// no temp files left behind
	entries, err := afero.ReadDir(fs, "/sync")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSyncJournal_Corrupt(t *testing.T) {
	cases := map[string]string{
		"not json":         `{{{`,
		"object not array": `{"filename":"a.txt"}`,
		"unknown action":   `[{"filename":"a.txt","hash":"aa","version":1,"action":"rename"}]`,
		"negative version": `[{"filename":"a.txt","hash":"aa","version":-1,"action":"pass"}]`,
		"duplicate":        `[{"filename":"a.txt","hash":"aa","version":1},{"filename":"a.txt","hash":"bb","version":2}]`,
		"empty filename":   `[{"filename":"","hash":"aa","version":1}]`,
		"escaping path":    `[{"filename":"../etc/passwd","hash":"aa","version":1}]`,
		"reserved file":    `[{"filename":".mynk","hash":"aa","version":1}]`,
		"missing hash":     `[{"filename":"a.txt","version":1,"action":"edit"}]`,
		"non-hex hash":     `[{"filename":"a.txt","hash":"zz","version":1}]`,
		"null entry":       `[null]`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, testJournalPath, []byte(content), 0o644))

			state, err := NewSyncJournal(fs, testJournalPath).Load()
			assert.ErrorIs(t, err, ErrStateCorrupt)
			assert.Nil(t, state)

			// the corrupt file is never rewritten
			data, err := afero.ReadFile(fs, testJournalPath)
			require.NoError(t, err)
			assert.Equal(t, content, string(data))
		})
	}
}

func TestSyncJournal_SaveFailureLeavesBaseline(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, testJournalPath, []byte(`[]`), 0o644))

	journal := NewSyncJournal(afero.NewReadOnlyFs(base), testJournalPath)
	err := journal.Save(StateMapping{"a.txt": {Filename: "a.txt", Hash: "aa", Version: 1}})
	assert.ErrorIs(t, err, ErrFilesystem)

	data, err := afero.ReadFile(base, testJournalPath)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}
