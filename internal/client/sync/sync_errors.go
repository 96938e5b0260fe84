package sync

import (
	"errors"
)

var (
	// ErrStateCorrupt means the baseline exists but cannot be parsed. It is never reset automatically.
	ErrStateCorrupt = errors.New("baseline state corrupt")

	// ErrFilesystem covers read/write/permission failures on the synced tree
	ErrFilesystem = errors.New("filesystem error")

	// ErrNetwork means the exchange with the remote failed. Nothing local was modified.
	ErrNetwork = errors.New("network error")

	// ErrPartiallyApplied means the filesystem may be ahead of the baseline.
	// Running the sync again re-derives the correct actions.
	ErrPartiallyApplied = errors.New("sync round partially applied")
)
