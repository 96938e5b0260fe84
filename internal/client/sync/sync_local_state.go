package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mynk/mynk/internal/utils"
	"github.com/spf13/afero"
)

// SyncLocalState produces snapshots of the files under a root directory
type SyncLocalState struct {
	fs      afero.Fs
	rootDir string
	ignore  *SyncIgnoreList
	hashes  *HashCache
}

func NewSyncLocalState(fs afero.Fs, rootDir string, ignore *SyncIgnoreList) *SyncLocalState {
	return &SyncLocalState{
		fs:      fs,
		rootDir: rootDir,
		ignore:  ignore,
	}
}

// SetHashCache lets consecutive scans skip rehashing files whose size and mtime are unchanged
func (s *SyncLocalState) SetHashCache(cache *HashCache) {
	s.hashes = cache
}

// Scan walks the root and hashes every regular file. Symlinks, ignored paths and
// files that cannot be read mid-walk are skipped; only a failure on the root aborts.
func (s *SyncLocalState) Scan(ctx context.Context) (Snapshot, error) {
	snapshot := make(Snapshot)
	skipped, cached := 0, 0

	// Walk does not descend into a symlinked root and would report an empty tree
	if info, err := lstat(s.fs, s.rootDir); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("%w: root %s is a symlink", ErrFilesystem, s.rootDir)
	}

	err := afero.Walk(s.fs, s.rootDir, func(path string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			if path == s.rootDir {
				return walkErr
			}
			slog.Warn("scan skip", "path", path, "error", walkErr)
			skipped++
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path == s.rootDir {
			return nil
		}

		relPath, err := filepath.Rel(s.rootDir, path)
		if err != nil {
			return fmt.Errorf("walk rel path: %w", err)
		}
		relPath = utils.NormPath(relPath)

		if s.ignore != nil && s.ignore.ShouldIgnore(relPath) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			return nil
		}

		// symlinks, sockets, devices
		if !info.Mode().IsRegular() {
			slog.Debug("scan skip non-regular", "path", relPath, "mode", info.Mode().String())
			return nil
		}

		if s.hashes != nil {
			if hash, ok := s.hashes.Lookup(relPath, info); ok {
				snapshot[relPath] = hash
				cached++
				return nil
			}
		}

		hash, err := HashFile(s.fs, path)
		if err != nil {
			slog.Warn("scan skip unreadable", "path", relPath, "error", err)
			skipped++
			return nil
		}

		if s.hashes != nil {
			s.hashes.Store(relPath, info, hash)
		}
		snapshot[relPath] = hash
		return nil
	})

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: local scan failed: %w", ErrFilesystem, err)
	}

	slog.Debug("local scan", "root", s.rootDir, "files", len(snapshot), "cached", cached, "skipped", skipped)
	return snapshot, nil
}
