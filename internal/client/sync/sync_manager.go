package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mynk/mynk/internal/client/workspace"
	"golang.org/x/sync/errgroup"
)

const DefaultWatchInterval = 30 * time.Second

// RoundCallback is called after every round the manager runs, successful or not
type RoundCallback func(result *RoundResult, err error)

// SyncManager keeps a workspace in sync by polling the remote with an adaptive interval
// and, when a watcher is attached, running a round shortly after local changes.
type SyncManager struct {
	engine   *SyncEngine
	watcher  *FileWatcher
	interval time.Duration
	schedule *AdaptiveInterval
	onRound  RoundCallback
}

func NewManager(engine *SyncEngine, interval time.Duration) *SyncManager {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	return &SyncManager{
		engine:   engine,
		interval: interval,
		schedule: NewAdaptiveInterval(interval),
	}
}

// WithWatcher makes local changes trigger a round instead of waiting for the next tick
func (m *SyncManager) WithWatcher(watcher *FileWatcher) *SyncManager {
	m.watcher = watcher
	return m
}

func (m *SyncManager) OnRound(callback RoundCallback) *SyncManager {
	m.onRound = callback
	return m
}

// Run blocks until ctx is cancelled or a round fails in a way another round cannot fix.
// Network failures and lock contention are logged and retried on the next trigger.
func (m *SyncManager) Run(ctx context.Context) error {
	slog.Info("sync manager start", "root", m.engine.workspace.Root, "interval", m.interval, "watch", m.watcher != nil)
	defer slog.Info("sync manager stop")

	eg, egCtx := errgroup.WithContext(ctx)
	trigger := make(chan struct{}, 1)

	if m.watcher != nil {
		m.watcher.FilterPaths(m.engine.ignoreList.ShouldIgnore)
		if err := m.watcher.Start(egCtx); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		defer m.watcher.Stop()

		eg.Go(func() error {
			for {
				select {
				case <-egCtx.Done():
					return nil
				case batch := <-m.watcher.Batches():
					slog.Debug("local changes", "paths", len(batch), "first", batch[0])
					select {
					case trigger <- struct{}{}:
					default:
					}
				}
			}
		})
	}

	eg.Go(func() error {
		return m.loop(egCtx, trigger)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (m *SyncManager) loop(ctx context.Context, trigger <-chan struct{}) error {
	timer := time.NewTimer(m.interval)
	defer timer.Stop()

	for {
		active, err := m.round(ctx)
		if err != nil {
			return err
		}

		wait := m.schedule.Next(active)
		timer.Reset(wait)
		slog.Debug("next round", "in", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		case <-trigger:
		}

		// a tick and a cancel can be ready together
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// round reports whether data moved in either direction
func (m *SyncManager) round(ctx context.Context) (bool, error) {
	result, err := m.engine.RunSync(ctx)
	if m.onRound != nil {
		m.onRound(result, err)
	}

	switch {
	case err == nil:
		return result.HasChanges(), nil
	case ctx.Err() != nil:
		return false, ctx.Err()
	case errors.Is(err, ErrNetwork), errors.Is(err, workspace.ErrWorkspaceLocked):
		slog.Warn("sync round failed, will retry", "error", err)
		return false, nil
	default:
		return false, err
	}
}
