package sync

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mynk/mynk/internal/client/workspace"
	"github.com/mynk/mynk/internal/syncmsg"
	"github.com/mynk/mynk/internal/utils"
	"github.com/spf13/afero"
)

// SyncJournal persists the baseline as a JSON array of file entries.
// Only a successful round writes it, and always through an atomic replace.
type SyncJournal struct {
	fs   afero.Fs
	path string
}

func NewSyncJournal(fs afero.Fs, path string) *SyncJournal {
	return &SyncJournal{
		fs:   fs,
		path: path,
	}
}

func (s *SyncJournal) Path() string {
	return s.path
}

// Load reads the baseline. A missing or empty file is an empty mapping;
// anything else that does not parse is ErrStateCorrupt.
func (s *SyncJournal) Load() (StateMapping, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(StateMapping), nil
		}
		return nil, fmt.Errorf("%w: read baseline %s: %w", ErrFilesystem, s.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return make(StateMapping), nil
	}

	var entries []*FileEntry
	if err := syncmsg.JSONUnmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStateCorrupt, s.path, err)
	}

	state := make(StateMapping, len(entries))
	for i, entry := range entries {
		if err := validateEntry(entry); err != nil {
			return nil, fmt.Errorf("%w: %s: entry %d: %w", ErrStateCorrupt, s.path, i, err)
		}
		if _, dup := state[entry.Filename]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate filename %q", ErrStateCorrupt, s.path, entry.Filename)
		}
		state[entry.Filename] = entry
	}

	slog.Debug("baseline loaded", "path", s.path, "entries", len(state))
	return state, nil
}

// Save replaces the baseline with the full mapping, sorted by filename
func (s *SyncJournal) Save(state StateMapping) error {
	entries := make([]*FileEntry, 0, len(state))
	for _, name := range state.SortedKeys() {
		entries = append(entries, state[name])
	}

	data, err := syncmsg.JSONMarshalIndent(entries)
	if err != nil {
		return fmt.Errorf("marshal baseline: %w", err)
	}

	if _, err := writeFileAtomic(s.fs, s.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: save baseline %s: %w", ErrFilesystem, s.path, err)
	}

	slog.Debug("baseline saved", "path", s.path, "entries", len(entries))
	return nil
}

func validateEntry(entry *FileEntry) error {
	if entry == nil {
		return errors.New("null entry")
	}
	if !utils.IsSafeRelPath(entry.Filename) {
		return fmt.Errorf("invalid filename %q", entry.Filename)
	}
	if workspace.IsReserved(entry.Filename) {
		return fmt.Errorf("reserved filename %q", entry.Filename)
	}
	if entry.Hash == "" && entry.Action != ActionDelete {
		return fmt.Errorf("empty hash for %q", entry.Filename)
	}
	if !isHex(entry.Hash) {
		return fmt.Errorf("hash of %q is not hex", entry.Filename)
	}
	return nil
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		default:
			return false
		}
	}
	return true
}
