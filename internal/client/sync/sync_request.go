package sync

import (
	"fmt"
	"log/slog"

	"github.com/mynk/mynk/internal/client/workspace"
	"github.com/mynk/mynk/internal/syncmsg"
	"github.com/spf13/afero"
)

// buildRequest turns a reconciled mapping into the body of a sync exchange.
// Contents of creates and edits are read from disk now, so the upload is what is there
// at send time. If the bytes no longer match the scanned hash, the entry takes the new
// hash so the baseline describes what the remote actually received.
func buildRequest(fs afero.Fs, ws *workspace.Workspace, state StateMapping) (*syncmsg.SyncRequest, error) {
	names := state.SortedKeys()

	request := &syncmsg.SyncRequest{
		Files:   make([]*syncmsg.FileChange, 0),
		Summary: make([]*syncmsg.SummaryEntry, 0, len(names)),
	}

	for _, name := range names {
		entry := state[name]

		if entry.Action != ActionPass {
			change := &syncmsg.FileChange{
				Filename: entry.Filename,
				Version:  entry.Version,
				Action:   entry.Action,
				Contents: []byte{},
			}

			if entry.Action.IsWrite() {
				contents, err := afero.ReadFile(fs, ws.AbsPath(name))
				if err != nil {
					return nil, fmt.Errorf("%w: read %s for upload: %w", ErrFilesystem, name, err)
				}
				if hash := HashBytes(contents); hash != entry.Hash {
					slog.Debug("file changed since scan", "path", name, "scanned", entry.Hash, "current", hash)
					entry.Hash = hash
				}
				change.Contents = contents
			}

			change.Hash = entry.Hash
			request.Files = append(request.Files, change)
		}

		request.Summary = append(request.Summary, &syncmsg.SummaryEntry{
			Filename: entry.Filename,
			Hash:     entry.Hash,
			Version:  entry.Version,
		})
	}

	return request, nil
}
