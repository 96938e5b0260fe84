package syncsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/jmoiron/sqlx"
	"github.com/mynk/mynk/internal/syncmsg"
	"github.com/mynk/mynk/internal/utils"
	"github.com/spf13/afero"
)

var ErrInvalidRequest = errors.New("invalid sync request")

// SyncService is the remote side of a sync exchange. It keeps the latest copy of every
// file and resolves each client change with last-writer-wins by version.
type SyncService struct {
	index *FileIndex
	blobs afero.Fs
	// one exchange at a time, decisions read and write the index
	mu sync.Mutex
}

// NewSyncService stores records in db and contents in blobs, keyed by filename
func NewSyncService(db *sqlx.DB, blobs afero.Fs) (*SyncService, error) {
	index, err := newFileIndex(db)
	if err != nil {
		return nil, err
	}
	return &SyncService{index: index, blobs: blobs}, nil
}

func (s *SyncService) Index() *FileIndex {
	return s.index
}

// Sync decides what the client must do to match the remote.
//
// Per uploaded change:
//   - create/edit newer than the remote copy (or unknown): stored, no directive
//   - create/edit not newer: no directive if identical, else the remote copy is sent back as an edit
//   - delete at least as new as the remote copy (or unknown): removed and acknowledged with a delete
//   - delete older than the remote copy: the remote copy is sent back as an edit
//
// Per summary entry that was not uploaded:
//   - unknown to the remote: delete
//   - remote copy newer, or same version with other content: edit
//
// Files the client does not list at all are sent as creates.
func (s *SyncService) Sync(ctx context.Context, req *syncmsg.SyncRequest) (syncmsg.SyncResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	directives := make(syncmsg.SyncResponse, 0)
	listed := mapset.NewThreadUnsafeSet[string]()
	uploaded := mapset.NewThreadUnsafeSet[string]()
	stored, removed := 0, 0

	for _, change := range req.Files {
		listed.Add(change.Filename)
		uploaded.Add(change.Filename)

		record, err := s.index.Get(ctx, change.Filename)
		if err != nil {
			return nil, err
		}

		if change.Action == syncmsg.ActionDelete {
			if record != nil && record.Version > change.Version {
				d, err := s.writeDirective(syncmsg.ActionEdit, record)
				if err != nil {
					return nil, err
				}
				directives = append(directives, d)
				continue
			}
			if err := s.removeFile(ctx, change.Filename); err != nil {
				return nil, err
			}
			removed++
			directives = append(directives, syncmsg.NewDeleteDirective(change.Filename, change.Version))
			continue
		}

		if record == nil || change.Version > record.Version {
			if err := s.storeFile(ctx, change); err != nil {
				return nil, err
			}
			stored++
			continue
		}

		if record.Version == change.Version && record.Hash == change.Hash {
			continue
		}

		d, err := s.writeDirective(syncmsg.ActionEdit, record)
		if err != nil {
			return nil, err
		}
		directives = append(directives, d)
	}

	for _, entry := range req.Summary {
		listed.Add(entry.Filename)
		if uploaded.Contains(entry.Filename) {
			continue
		}

		record, err := s.index.Get(ctx, entry.Filename)
		if err != nil {
			return nil, err
		}

		switch {
		case record == nil:
			directives = append(directives, syncmsg.NewDeleteDirective(entry.Filename, entry.Version))
		case record.Version > entry.Version, record.Version == entry.Version && record.Hash != entry.Hash:
			d, err := s.writeDirective(syncmsg.ActionEdit, record)
			if err != nil {
				return nil, err
			}
			directives = append(directives, d)
		}
	}

	records, err := s.index.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if listed.Contains(record.Filename) {
			continue
		}
		d, err := s.writeDirective(syncmsg.ActionCreate, record)
		if err != nil {
			return nil, err
		}
		directives = append(directives, d)
	}

	slices.SortStableFunc(directives, func(a, b *syncmsg.Directive) int {
		return strings.Compare(a.Filename, b.Filename)
	})

	slog.Debug("sync decided",
		"files", len(req.Files),
		"summary", len(req.Summary),
		"stored", stored,
		"removed", removed,
		"directives", len(directives),
	)
	return directives, nil
}

func (s *SyncService) storeFile(ctx context.Context, change *syncmsg.FileChange) error {
	if err := s.blobs.MkdirAll(filepath.Dir(filepath.FromSlash(change.Filename)), 0o755); err != nil {
		return fmt.Errorf("store %s: %w", change.Filename, err)
	}
	if err := afero.WriteFile(s.blobs, filepath.FromSlash(change.Filename), change.Contents, 0o644); err != nil {
		return fmt.Errorf("store %s: %w", change.Filename, err)
	}
	return s.index.Set(ctx, &FileRecord{
		Filename: change.Filename,
		Hash:     change.Hash,
		Version:  change.Version,
		Size:     int64(len(change.Contents)),
	})
}

func (s *SyncService) removeFile(ctx context.Context, filename string) error {
	if err := s.blobs.Remove(filepath.FromSlash(filename)); err != nil && !errors.Is(err, afero.ErrFileNotFound) {
		return fmt.Errorf("remove %s: %w", filename, err)
	}
	return s.index.Remove(ctx, filename)
}

func (s *SyncService) writeDirective(action syncmsg.Action, record *FileRecord) (*syncmsg.Directive, error) {
	contents, err := afero.ReadFile(s.blobs, filepath.FromSlash(record.Filename))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", record.Filename, err)
	}
	return syncmsg.NewWriteDirective(action, record.Filename, record.Version, contents), nil
}

func validateRequest(req *syncmsg.SyncRequest) error {
	if req == nil {
		return fmt.Errorf("%w: empty body", ErrInvalidRequest)
	}

	seen := mapset.NewThreadUnsafeSetWithSize[string](len(req.Files))
	for i, change := range req.Files {
		if change == nil {
			return fmt.Errorf("%w: files[%d] is null", ErrInvalidRequest, i)
		}
		if !utils.IsSafeRelPath(change.Filename) {
			return fmt.Errorf("%w: unsafe filename %q", ErrInvalidRequest, change.Filename)
		}
		if change.Action == syncmsg.ActionPass {
			return fmt.Errorf("%w: %s: pass is never uploaded", ErrInvalidRequest, change.Filename)
		}
		if !seen.Add(change.Filename) {
			return fmt.Errorf("%w: duplicate file %s", ErrInvalidRequest, change.Filename)
		}
	}

	for i, entry := range req.Summary {
		if entry == nil {
			return fmt.Errorf("%w: summary[%d] is null", ErrInvalidRequest, i)
		}
		if !utils.IsSafeRelPath(entry.Filename) {
			return fmt.Errorf("%w: unsafe filename %q", ErrInvalidRequest, entry.Filename)
		}
	}

	return nil
}
