package server

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mynk/mynk/internal/server/syncsvc"
	"github.com/mynk/mynk/internal/utils"
	"github.com/spf13/afero"
)

type Services struct {
	Sync *syncsvc.SyncService
}

func NewServices(config *Config, db *sqlx.DB) (*Services, error) {
	if err := utils.EnsureDir(config.BlobDir()); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}

	blobs := afero.NewBasePathFs(afero.NewOsFs(), config.BlobDir())
	syncSvc, err := syncsvc.NewSyncService(db, blobs)
	if err != nil {
		return nil, fmt.Errorf("create sync service: %w", err)
	}

	return &Services{
		Sync: syncSvc,
	}, nil
}
