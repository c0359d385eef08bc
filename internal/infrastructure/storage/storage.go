package storage

import (
	"context"
	"fmt"

	"github.com/unimerch/backend/internal/domain/media"
	"github.com/unimerch/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// New builds the object store selected by cfg.Driver
func New(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (media.ObjectStorage, error) {
	switch cfg.Driver {
	case "s3":
		s3Storage, err := NewS3ObjectStorage(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		logger.Info("Using S3 object storage", zap.String("bucket", s3Storage.Bucket()))
		return s3Storage, nil
	case "local", "":
		logger.Info("Using local object storage", zap.String("dir", cfg.LocalDir))
		return NewLocalObjectStorage(cfg.LocalDir, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
