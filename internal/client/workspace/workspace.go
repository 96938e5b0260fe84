package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/mynk/mynk/internal/utils"
)

const (
	// MarkerFile marks the top of a synchronized tree and stores the endpoint URI
	MarkerFile = ".mynk"
	// StateFile holds the baseline persisted by the last successful round
	StateFile = ".mynk.json"
	// LockFile is the advisory lock held for the duration of a round
	LockFile = ".mynk.lock"
	// IgnoreFile holds gitignore-style rules for paths that are never synced
	IgnoreFile = ".mynkignore"
	// TempPattern is the suffix pattern of files written by atomic replaces
	TempPattern = ".mynk.tmp."
)

var (
	ErrRootNotFound       = errors.New("sync root not found")
	ErrWorkspaceLocked    = errors.New("workspace locked by another process")
	ErrAlreadyInitialized = errors.New("sync root already initialized")
)

// Workspace is a resolved sync root. It is created once per invocation and handed
// to every component that needs to know where the tree and its reserved files live.
type Workspace struct {
	Root       string
	ServerURL  string
	MarkerPath string
	StatePath  string
	LockPath   string
	IgnorePath string

	flock *flock.Flock
}

func newWorkspace(root string, serverURL string) *Workspace {
	lockPath := filepath.Join(root, LockFile)
	return &Workspace{
		Root:       root,
		ServerURL:  serverURL,
		MarkerPath: filepath.Join(root, MarkerFile),
		StatePath:  filepath.Join(root, StateFile),
		LockPath:   lockPath,
		IgnorePath: filepath.Join(root, IgnoreFile),
		flock:      flock.New(lockPath),
	}
}

// Find walks from startDir up to the filesystem root looking for the marker file.
// The first directory containing it is the sync root.
func Find(startDir string) (*Workspace, error) {
	dir, err := utils.RealPath(startDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", startDir, err)
	}

	for {
		markerPath := filepath.Join(dir, MarkerFile)
		if utils.FileExists(markerPath) {
			serverURL, err := readMarker(markerPath)
			if err != nil {
				return nil, err
			}
			slog.Debug("workspace found", "root", dir, "server", serverURL)
			return newWorkspace(dir, serverURL), nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, fmt.Errorf("%w: searched from %s", ErrRootNotFound, startDir)
		}
		dir = parent
	}
}

// Init turns dir into a sync root: it writes the marker with the endpoint URI and an
// empty baseline. A directory that already holds a marker is left untouched.
func Init(dir string, uri string) (*Workspace, error) {
	root, err := utils.ResolvePath(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", dir, err)
	}

	serverURL, err := utils.ParseEndpointURL(uri)
	if err != nil {
		return nil, err
	}

	if err := utils.EnsureDir(root); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", root, err)
	}

	if root, err = filepath.EvalSymlinks(root); err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", dir, err)
	}

	w := newWorkspace(root, serverURL)
	if utils.FileExists(w.MarkerPath) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInitialized, w.MarkerPath)
	}

	if err := os.WriteFile(w.MarkerPath, []byte(serverURL+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write marker %s: %w", w.MarkerPath, err)
	}

	// an existing baseline is kept, it may be the only record of synced versions
	if !utils.FileExists(w.StatePath) {
		if err := os.WriteFile(w.StatePath, nil, 0o644); err != nil {
			return nil, fmt.Errorf("failed to create baseline %s: %w", w.StatePath, err)
		}
	}

	slog.Info("workspace initialized", "root", root, "server", serverURL)
	return w, nil
}

func readMarker(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read marker %s: %w", path, err)
	}

	serverURL, err := utils.ParseEndpointURL(string(data))
	if err != nil {
		return "", fmt.Errorf("invalid marker %s: %w", path, err)
	}
	return serverURL, nil
}

// Lock takes the advisory round lock. It never blocks: a second process gets ErrWorkspaceLocked.
func (w *Workspace) Lock() error {
	locked, err := w.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock workspace: %w", err)
	}
	if !locked {
		return ErrWorkspaceLocked
	}
	return nil
}

func (w *Workspace) Unlock() error {
	// if this process hasn't locked the workspace, then don't delete the lock file
	if !w.flock.Locked() {
		return nil
	}

	if err := w.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock workspace: %w", err)
	}

	if err := os.Remove(w.flock.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// AbsPath maps a canonical relative path onto the local filesystem
func (w *Workspace) AbsPath(relPath string) string {
	return filepath.Join(w.Root, filepath.FromSlash(relPath))
}

// RelPath returns the canonical relative path of absPath inside the root
func (w *Workspace) RelPath(absPath string) (string, error) {
	relPath, err := filepath.Rel(w.Root, absPath)
	if err != nil {
		return "", err
	}
	return utils.NormPath(relPath), nil
}

// IsReserved reports whether a canonical relative path belongs to mynk itself
// and must never be scanned, uploaded or overwritten by a directive.
func IsReserved(relPath string) bool {
	switch relPath {
	case MarkerFile, StateFile, LockFile:
		return true
	}
	return strings.Contains(filepath.Base(relPath), TempPattern)
}
