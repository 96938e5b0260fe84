package sync

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mynk/mynk/internal/client/workspace"
	"github.com/spf13/afero"
)

// writeFileAtomic writes body next to path under a reserved temp name, syncs it and renames
// it over path, so readers never observe a truncated file. It returns the content hash of
// the bytes that actually reached the temp file.
func writeFileAtomic(fs afero.Fs, path string, body []byte, perm os.FileMode) (string, error) {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure parent: %w", err)
	}

	tempFile, err := afero.TempFile(fs, dir, filepath.Base(path)+workspace.TempPattern+"*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		if !success {
			tempFile.Close()
			fs.Remove(tempPath)
		}
	}()

	hashWriter := newHashWriter()
	writer := io.MultiWriter(tempFile, hashWriter)
	if _, err := writer.Write(body); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		return "", fmt.Errorf("sync temp file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	if err := fs.Chmod(tempPath, perm); err != nil {
		slog.Debug("chmod temp file", "path", tempPath, "error", err)
	}

	if err := fs.Rename(tempPath, path); err != nil {
		return "", fmt.Errorf("rename temp file to %s: %w", path, err)
	}

	success = true
	return hashWriter.Hex(), nil
}

// removeFile deletes path, treating an already missing file as success
func removeFile(fs afero.Fs, path string) error {
	if err := fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// cleanupEmptyParentDirs removes empty directories from dir upwards, stopping at root
func cleanupEmptyParentDirs(fs afero.Fs, dir string, root string) {
	root = filepath.Clean(root)
	for dir = filepath.Clean(dir); dir != root; dir = filepath.Dir(dir) {
		rel, err := filepath.Rel(root, dir)
		if err != nil || strings.HasPrefix(rel, "..") {
			return
		}

		empty, err := afero.IsEmpty(fs, dir)
		if err != nil || !empty {
			return
		}

		if err := fs.Remove(dir); err != nil {
			slog.Debug("cleanup empty dir", "path", dir, "error", err)
			return
		}
	}
}

// lstat reports on path itself when fs can, so symlinks are not followed
func lstat(fs afero.Fs, path string) (os.FileInfo, error) {
	if lfs, ok := fs.(afero.Lstater); ok {
		info, _, err := lfs.LstatIfPossible(path)
		return info, err
	}
	return fs.Stat(path)
}

// unsafeParent returns the first existing parent of relPath under root that is a symlink
// or not a directory, or "" if every existing parent is a real directory. Missing parents
// end the walk since they will be created as plain directories.
func unsafeParent(fs afero.Fs, root, relPath string) (string, error) {
	parts := strings.Split(relPath, "/")
	current := root
	for i, part := range parts[:len(parts)-1] {
		current = filepath.Join(current, part)
		info, err := lstat(fs, current)
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		if info.Mode()&os.ModeSymlink != 0 || !info.IsDir() {
			return strings.Join(parts[:i+1], "/"), nil
		}
	}
	return "", nil
}
