package blob

import (
	"context"
	"fmt"

	"github.com/quangdm/sensorlake/internal/config"
	"github.com/quangdm/sensorlake/internal/logging"
)

// BackendType represents the type of object store backend
type BackendType string

const (
	// BackendBadger uses embedded BadgerDB storage
	BackendBadger BackendType = "badger"
	// BackendMinio uses a MinIO/S3-compatible object store
	BackendMinio BackendType = "minio"
	// BackendMemory keeps objects in process memory
	BackendMemory BackendType = "memory"
)

// NewStore creates an object store backend based on configuration
func NewStore(ctx context.Context, cfg *config.BlobConfig, logger *logging.Logger) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("blob config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	switch BackendType(cfg.Backend) {
	case BackendBadger:
		logger.Info("Using BadgerDB object store")
		return NewBadgerStore(cfg.Badger.Path, logger)

	case BackendMinio:
		logger.Info("Using MinIO object store")
		return NewMinioStore(ctx, MinioOptions{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			UseSSL:    cfg.Minio.UseSSL,
			Bucket:    cfg.Bucket,
		}, logger)

	case BackendMemory:
		logger.Info("Using in-memory object store (data will be lost on restart)")
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown blob backend: %s (valid options: badger, minio, memory)", cfg.Backend)
	}
}
