package syncsvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	filename TEXT PRIMARY KEY,
	hash TEXT NOT NULL,
	version INTEGER NOT NULL,
	size INTEGER NOT NULL,
	updated_at TEXT NOT NULL
);
`

// FileRecord is the remote's current copy of one file
type FileRecord struct {
	Filename  string `db:"filename"`
	Hash      string `db:"hash"`
	Version   uint64 `db:"version"`
	Size      int64  `db:"size"`
	UpdatedAt string `db:"updated_at"`
}

// FileIndex stores file records in SQLite
type FileIndex struct {
	db *sqlx.DB
}

func newFileIndex(db *sqlx.DB) (*FileIndex, error) {
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize index: %w", err)
	}
	return &FileIndex{db: db}, nil
}

// Get returns the record for filename, or nil if the remote does not have it
func (fi *FileIndex) Get(ctx context.Context, filename string) (*FileRecord, error) {
	var record FileRecord
	err := fi.db.GetContext(ctx, &record,
		"SELECT filename, hash, version, size, updated_at FROM files WHERE filename = ?", filename)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("get %s: %w", filename, err)
	}
	return &record, nil
}

// Set adds or replaces a record
func (fi *FileIndex) Set(ctx context.Context, record *FileRecord) error {
	if record.UpdatedAt == "" {
		record.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := fi.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO files (filename, hash, version, size, updated_at) VALUES (?, ?, ?, ?, ?)`,
		record.Filename, record.Hash, int64(record.Version), record.Size, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", record.Filename, err)
	}
	return nil
}

func (fi *FileIndex) Remove(ctx context.Context, filename string) error {
	if _, err := fi.db.ExecContext(ctx, "DELETE FROM files WHERE filename = ?", filename); err != nil {
		return fmt.Errorf("remove %s: %w", filename, err)
	}
	return nil
}

// List returns all records ordered by filename
func (fi *FileIndex) List(ctx context.Context) ([]*FileRecord, error) {
	records := make([]*FileRecord, 0)
	err := fi.db.SelectContext(ctx, &records,
		"SELECT filename, hash, version, size, updated_at FROM files ORDER BY filename")
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return records, nil
}

func (fi *FileIndex) Count(ctx context.Context) (int, error) {
	var count int
	if err := fi.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM files"); err != nil {
		return 0, err
	}
	return count, nil
}
