package sync

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/mynk/mynk/internal/utils"
	"github.com/rjeczalik/notify"
)

const (
	eventBufferSize        = 256
	defaultDebounceTimeout = 250 * time.Millisecond
)

// FilterCallback is a function that returns true if the event should be filtered
type FilterCallback func(relPath string) bool

// FileWatcher reports changes under a root as batches of relative paths.
// A batch is emitted once the tree has been quiet for the debounce timeout.
type FileWatcher struct {
	rootDir   string
	rawEvents chan notify.EventInfo
	batches   chan []string
	done      chan struct{}
	wg        sync.WaitGroup

	pending         mapset.Set[string]
	timer           *time.Timer
	debounceMu      sync.Mutex
	debounceTimeout time.Duration

	ignoreCallback FilterCallback
	callbackMu     sync.RWMutex
}

func NewFileWatcher(rootDir string) *FileWatcher {
	return &FileWatcher{
		rootDir:         rootDir,
		done:            make(chan struct{}),
		pending:         mapset.NewThreadUnsafeSet[string](),
		debounceTimeout: defaultDebounceTimeout,
	}
}

// SetDebounceTimeout sets how long the tree must be quiet before a batch is emitted
func (fw *FileWatcher) SetDebounceTimeout(timeout time.Duration) {
	fw.debounceTimeout = timeout
}

// FilterPaths sets a callback function to filter out raw events before debouncing
// The callback should return true if the event should be ignored
func (fw *FileWatcher) FilterPaths(callback FilterCallback) {
	fw.callbackMu.Lock()
	defer fw.callbackMu.Unlock()
	fw.ignoreCallback = callback
}

func (fw *FileWatcher) Start(ctx context.Context) error {
	slog.Info("file watcher start", "dir", fw.rootDir)

	fw.rawEvents = make(chan notify.EventInfo, eventBufferSize)
	fw.batches = make(chan []string, 1)

	recursivePath := filepath.Join(fw.rootDir, "...")
	if err := notify.Watch(recursivePath, fw.rawEvents, notify.All); err != nil {
		return err
	}

	fw.wg.Add(1)
	go fw.filterEvents(ctx)

	return nil
}

func (fw *FileWatcher) Stop() {
	slog.Info("file watcher stopping")

	close(fw.done)

	if fw.rawEvents != nil {
		notify.Stop(fw.rawEvents)
	}

	fw.wg.Wait()

	fw.debounceMu.Lock()
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.debounceMu.Unlock()

	slog.Info("file watcher stopped")
}

// Batches delivers sorted relative paths that changed since the previous batch
func (fw *FileWatcher) Batches() <-chan []string {
	return fw.batches
}

func (fw *FileWatcher) filterEvents(ctx context.Context) {
	defer fw.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-fw.done:
			return
		case event, ok := <-fw.rawEvents:
			if !ok {
				return
			}

			relPath, err := filepath.Rel(fw.rootDir, event.Path())
			if err != nil || relPath == "." {
				continue
			}
			relPath = utils.NormPath(relPath)

			fw.callbackMu.RLock()
			ignored := fw.ignoreCallback != nil && fw.ignoreCallback(relPath)
			fw.callbackMu.RUnlock()
			if ignored {
				continue
			}

			fw.debounce(relPath)
		}
	}
}

// debounce restarts the quiet timer on every event, writes come in bursts
func (fw *FileWatcher) debounce(relPath string) {
	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	fw.pending.Add(relPath)
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounceTimeout, fw.flush)
}

func (fw *FileWatcher) flush() {
	fw.debounceMu.Lock()
	if fw.pending.Cardinality() == 0 {
		fw.debounceMu.Unlock()
		return
	}
	batch := fw.pending.ToSlice()
	fw.pending.Clear()
	fw.timer = nil
	fw.debounceMu.Unlock()

	slices.Sort(batch)

	select {
	case fw.batches <- batch:
		slog.Debug("file watcher", "changed", len(batch))
	case <-fw.done:
	default:
		// a batch is already waiting, the consumer rescans everything anyway
		slog.Debug("file watcher coalesced", "changed", len(batch))
	}
}
