package sync

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mynk/mynk/internal/client/workspace"
	"github.com/mynk/mynk/internal/syncmsg"
	"github.com/mynk/mynk/internal/utils"
	"github.com/spf13/afero"
)

var ErrInvalidDirective = errors.New("invalid directive")

type applyResult struct {
	Written int
	Removed int
	Skipped int
}

// validateDirectives rejects the whole response if any directive names a path that is
// not a clean relative path or is a reserved file. Nothing is touched before every
// directive passed. Parents that resolve outside the root are checked per directive
// by applyDirectives, since earlier directives may create them.
func validateDirectives(directives syncmsg.SyncResponse) error {
	for i, d := range directives {
		if d == nil {
			return fmt.Errorf("%w: #%d is null", ErrInvalidDirective, i)
		}
		if !utils.IsSafeRelPath(d.Filename) {
			return fmt.Errorf("%w: unsafe filename %q", ErrInvalidDirective, d.Filename)
		}
		if workspace.IsReserved(d.Filename) {
			return fmt.Errorf("%w: reserved filename %q", ErrInvalidDirective, d.Filename)
		}
	}
	return nil
}

// applyDirectives makes the local tree and state agree with the remote's directives.
// state is updated in place: deleted entries are removed, written entries become pass
// with the remote version and the hash of the bytes written.
func applyDirectives(fs afero.Fs, ws *workspace.Workspace, ignore *SyncIgnoreList, state StateMapping, directives syncmsg.SyncResponse) (*applyResult, error) {
	result := &applyResult{}

	if err := validateDirectives(directives); err != nil {
		return result, err
	}

	for _, d := range directives {
		if ignore != nil && ignore.ShouldIgnore(d.Filename) {
			slog.Warn("directive for ignored path skipped", "path", d.Filename, "action", d.Action)
			result.Skipped++
			continue
		}

		parent, err := unsafeParent(fs, ws.Root, d.Filename)
		if err != nil {
			return result, fmt.Errorf("check %s: %w", d.Filename, err)
		}
		if parent != "" {
			slog.Warn("directive through symlink or file skipped", "path", d.Filename, "action", d.Action, "parent", parent)
			result.Skipped++
			continue
		}

		localPath := ws.AbsPath(d.Filename)

		if d.Action == ActionDelete {
			if err := removeFile(fs, localPath); err != nil {
				return result, fmt.Errorf("remove %s: %w", d.Filename, err)
			}
			cleanupEmptyParentDirs(fs, filepath.Dir(localPath), ws.Root)
			delete(state, d.Filename)
			result.Removed++
			slog.Debug("directive applied", "action", d.Action, "path", d.Filename)
			continue
		}

		perm := os.FileMode(0o644)
		if info, err := fs.Stat(localPath); err == nil && info.Mode().IsRegular() {
			perm = info.Mode().Perm()
		}

		hash, err := writeFileAtomic(fs, localPath, d.Contents, perm)
		if err != nil {
			return result, fmt.Errorf("write %s: %w", d.Filename, err)
		}

		state[d.Filename] = &FileEntry{
			Filename: d.Filename,
			Hash:     hash,
			Version:  d.Version,
			Action:   ActionPass,
		}
		result.Written++
		slog.Debug("directive applied", "action", d.Action, "path", d.Filename, "version", d.Version)
	}

	return result, nil
}

// settleAccepted marks creates and edits the remote accepted without a directive as synced.
// Pending deletes stay pending until the file is confirmed gone by the next pass.
func settleAccepted(state StateMapping) int {
	settled := 0
	for _, entry := range state {
		if entry.Action.IsWrite() {
			entry.Action = ActionPass
			settled++
		}
	}
	return settled
}
