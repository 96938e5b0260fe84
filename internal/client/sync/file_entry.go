package sync

import (
	"maps"
	"slices"

	"github.com/mynk/mynk/internal/syncmsg"
)

type Action = syncmsg.Action

const (
	ActionPass   = syncmsg.ActionPass
	ActionCreate = syncmsg.ActionCreate
	ActionEdit   = syncmsg.ActionEdit
	ActionDelete = syncmsg.ActionDelete
)

// FileEntry is one tracked path of the baseline
type FileEntry struct {
	Filename string `json:"filename"`
	Hash     string `json:"hash"`
	Version  uint64 `json:"version"`
	Action   Action `json:"action"`
}

func (e *FileEntry) Clone() *FileEntry {
	c := *e
	return &c
}

// StateMapping is the full baseline, keyed by canonical relative path
type StateMapping map[string]*FileEntry

// Snapshot is the result of a scan: canonical relative path to content hash
type Snapshot map[string]string

// Clone deep copies the mapping so a reconciliation pass never aliases its input
func (m StateMapping) Clone() StateMapping {
	out := make(StateMapping, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

// SortedKeys returns the filenames in lexical order
func (m StateMapping) SortedKeys() []string {
	return slices.Sorted(maps.Keys(m))
}

// Pending returns the entries that a sync request must carry in `files`
func (m StateMapping) Pending() []*FileEntry {
	pending := make([]*FileEntry, 0)
	for _, name := range m.SortedKeys() {
		if entry := m[name]; entry.Action != ActionPass {
			pending = append(pending, entry)
		}
	}
	return pending
}

// CountByAction tallies entries per action
func (m StateMapping) CountByAction() map[Action]int {
	counts := make(map[Action]int, 4)
	for _, entry := range m {
		counts[entry.Action]++
	}
	return counts
}
