package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mynk/mynk/internal/client/workspace"
	"github.com/mynk/mynk/internal/syncmsg"
	"github.com/spf13/afero"
)

// Remote is the other side of a sync exchange
type Remote interface {
	Sync(ctx context.Context, requestID string, body *syncmsg.SyncRequest) (syncmsg.SyncResponse, error)
}

// RoundResult summarizes one completed round
type RoundResult struct {
	RequestID string
	// sent to the remote
	Uploaded  int
	Deleted   int
	Unchanged int
	BytesSent int
	// applied from the remote's directives
	Written int
	Removed int
	Skipped int
	Settled int

	TookScan     time.Duration
	TookExchange time.Duration
	TookApply    time.Duration
	TookTotal    time.Duration
}

func (r *RoundResult) HasChanges() bool {
	return r.Uploaded > 0 || r.Deleted > 0 || r.Written > 0 || r.Removed > 0
}

// Plan is what the next round would send, computed without touching the remote
type Plan struct {
	State StateMapping
	Stats *ReconcileStats
}

type SyncEngine struct {
	workspace  *workspace.Workspace
	fs         afero.Fs
	remote     Remote
	journal    *SyncJournal
	localState *SyncLocalState
	ignoreList *SyncIgnoreList
}

func NewSyncEngine(ws *workspace.Workspace, fs afero.Fs, remote Remote) *SyncEngine {
	ignore := NewSyncIgnoreList(fs, ws.Root)
	localState := NewSyncLocalState(fs, ws.Root, ignore)
	if cache, err := NewHashCache(defaultHashCacheSize); err == nil {
		localState.SetHashCache(cache)
	}
	return &SyncEngine{
		workspace:  ws,
		fs:         fs,
		remote:     remote,
		journal:    NewSyncJournal(fs, ws.StatePath),
		localState: localState,
		ignoreList: ignore,
	}
}

// Plan scans the tree and reconciles it against the baseline. Nothing is written.
func (se *SyncEngine) Plan(ctx context.Context) (*Plan, error) {
	se.ignoreList.Load()

	scan, err := se.localState.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan local state: %w", err)
	}

	baseline, err := se.journal.Load()
	if err != nil {
		return nil, fmt.Errorf("load baseline: %w", err)
	}

	if dropped := untrackIgnored(baseline, se.ignoreList); dropped > 0 {
		slog.Info("untracked newly ignored paths", "count", dropped)
	}

	state, stats := Reconcile(baseline, scan)
	return &Plan{State: state, Stats: stats}, nil
}

// RunSync performs one full round under the workspace lock: scan, reconcile, a single
// exchange with the remote, apply its directives and persist the new baseline.
//
// Failures before the exchange leave everything untouched. A failed exchange is
// ErrNetwork and also leaves everything untouched. Once the remote has answered, any
// failure is ErrPartiallyApplied and the baseline on disk is the previous one.
func (se *SyncEngine) RunSync(ctx context.Context) (*RoundResult, error) {
	if err := se.workspace.Lock(); err != nil {
		return nil, err
	}
	defer func() {
		if err := se.workspace.Unlock(); err != nil {
			slog.Warn("failed to unlock workspace", "error", err)
		}
	}()

	result := &RoundResult{RequestID: uuid.NewString()}
	tStart := time.Now()

	plan, err := se.Plan(ctx)
	if err != nil {
		return nil, err
	}
	state := plan.State
	result.TookScan = time.Since(tStart)

	request, err := buildRequest(se.fs, se.workspace, state)
	if err != nil {
		return nil, err
	}

	for _, change := range request.Files {
		if change.Action == ActionDelete {
			result.Deleted++
		} else {
			result.Uploaded++
		}
	}
	result.Unchanged = len(request.Summary) - len(request.Files)
	result.BytesSent = request.PayloadSize()

	slog.Debug("sync request",
		"requestId", result.RequestID,
		"files", len(request.Files),
		"summary", len(request.Summary),
		"payload", humanize.Bytes(uint64(result.BytesSent)),
	)

	tExchange := time.Now()
	directives, err := se.remote.Sync(ctx, result.RequestID, request)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	result.TookExchange = time.Since(tExchange)

	// the remote has committed its side, from here on the round must run to the end
	tApply := time.Now()
	applied, err := applyDirectives(se.fs, se.workspace, se.ignoreList, state, directives)
	if err != nil {
		return nil, fmt.Errorf("%w: apply directives: %w", ErrPartiallyApplied, err)
	}
	result.Written = applied.Written
	result.Removed = applied.Removed
	result.Skipped = applied.Skipped
	result.Settled = settleAccepted(state)

	if err := se.journal.Save(state); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPartiallyApplied, err)
	}
	result.TookApply = time.Since(tApply)
	result.TookTotal = time.Since(tStart)

	logAttrs := []any{
		"requestId", result.RequestID,
		"uploaded", result.Uploaded,
		"deleted", result.Deleted,
		"unchanged", result.Unchanged,
		"written", result.Written,
		"removed", result.Removed,
		"sent", humanize.Bytes(uint64(result.BytesSent)),
		"tsScan", result.TookScan,
		"tsExchange", result.TookExchange,
		"tsApply", result.TookApply,
		"tsTotal", result.TookTotal,
	}
	if result.HasChanges() {
		slog.Info("sync round", logAttrs...)
	} else {
		slog.Debug("sync round", logAttrs...)
	}

	return result, nil
}
