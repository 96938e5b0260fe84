package sync

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// initialVersion is the version of a path the first time it is seen. Zero is kept
// free so that "never synced" and "synced once" can be told apart.
const initialVersion uint64 = 1

// ReconcileStats counts the outcome of one reconciliation pass
type ReconcileStats struct {
	Created   int
	Edited    int
	Deleted   int
	Unchanged int
	// Dropped counts pending deletes from the baseline that are now gone from disk
	Dropped int
	// Held counts pending deletes carried forward although the path exists again
	Held int
}

func (r *ReconcileStats) HasChanges() bool {
	return r.Created > 0 || r.Edited > 0 || r.Deleted > 0 || r.Held > 0
}

// Reconcile diffs a fresh scan against the previous baseline and returns the new mapping
// with an action per entry. Neither input is modified.
//
// Precedence per filename:
//  1. scanned, not in baseline         -> create, version 1
//  2. in baseline, not scanned         -> dropped if already pending delete, else delete (hash/version kept)
//  3. in both, baseline pending delete -> stays pending delete, never recreated in the same pass
//  4. in both, hash changed            -> edit, version+1
//  5. in both, hash equal              -> pass, version kept
func Reconcile(old StateMapping, scan Snapshot) (StateMapping, *ReconcileStats) {
	stats := &ReconcileStats{}

	tentative := make(StateMapping, len(scan))
	for filename, hash := range scan {
		tentative[filename] = &FileEntry{
			Filename: filename,
			Hash:     hash,
			Version:  initialVersion,
			Action:   ActionCreate,
		}
	}

	allPaths := mapset.NewThreadUnsafeSetWithSize[string](len(old) + len(tentative))
	for filename := range old {
		allPaths.Add(filename)
	}
	for filename := range tentative {
		allPaths.Add(filename)
	}

	paths := allPaths.ToSlice()
	slices.Sort(paths)

	next := make(StateMapping, len(paths))
	for _, filename := range paths {
		prev, inOld := old[filename]
		fresh, inScan := tentative[filename]

		switch {
		case inScan && !inOld:
			next[filename] = fresh
			stats.Created++

		case inOld && !inScan:
			if prev.Action == ActionDelete {
				stats.Dropped++
				continue
			}
			next[filename] = &FileEntry{
				Filename: filename,
				Hash:     prev.Hash,
				Version:  prev.Version,
				Action:   ActionDelete,
			}
			stats.Deleted++

		case prev.Action == ActionDelete:
			held := prev.Clone()
			next[filename] = held
			stats.Held++

		case prev.Hash != fresh.Hash:
			next[filename] = &FileEntry{
				Filename: filename,
				Hash:     fresh.Hash,
				Version:  prev.Version + 1,
				Action:   ActionEdit,
			}
			stats.Edited++

		default:
			next[filename] = &FileEntry{
				Filename: filename,
				Hash:     prev.Hash,
				Version:  prev.Version,
				Action:   ActionPass,
			}
			stats.Unchanged++
		}
	}

	return next, stats
}
