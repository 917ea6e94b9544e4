package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/backup"
	infraconfig "github.com/salescrm/backend/internal/infrastructure/config"
)

// NewBackupStore builds the store selected by storage.backend
func NewBackupStore(ctx context.Context, cfg *infraconfig.StorageConfig, logger *zap.Logger) (backup.Store, error) {
	switch cfg.Backend {
	case "", "local":
		logger.Info("Using local backup store", zap.String("dir", cfg.LocalDir))
		return NewLocalStore(cfg.LocalDir)
	case "s3":
		store, err := NewS3Store(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		logger.Info("Using S3 backup store", zap.String("bucket", store.Bucket()))
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
