package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/quangdm/sensorlake/internal/logging"
)

// MinioStore is the production object store backend. Listing consumes the
// incremental ListObjects stream, so arbitrarily large buckets never require
// a bulk call.
type MinioStore struct {
	client *minio.Client
	bucket string
	logger *logging.Logger
}

// MinioOptions configures the MinIO backend
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// NewMinioStore connects to MinIO and ensures the bucket exists
func NewMinioStore(ctx context.Context, opts MinioOptions, logger *logging.Logger) (*MinioStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: bucket check failed: %v", ErrStoreUnavailable, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", opts.Bucket, err)
		}
		logger.WithComponent(logging.ComponentBlob).
			WithFields(map[string]interface{}{"bucket": opts.Bucket}).
			Info("Created bucket")
	}

	logger.WithComponent(logging.ComponentBlob).
		WithFields(map[string]interface{}{
			"endpoint": opts.Endpoint,
			"bucket":   opts.Bucket,
		}).
		Info("MinIO object store initialized")

	return &MinioStore{client: client, bucket: opts.Bucket, logger: logger}, nil
}

// List walks keys under prefix via the incremental object stream
func (ms *MinioStore) List(ctx context.Context, prefix string, fn func(key string) error) error {
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := ms.client.ListObjects(listCtx, ms.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for obj := range objects {
		if obj.Err != nil {
			return fmt.Errorf("%w: listing failed: %v", ErrStoreUnavailable, obj.Err)
		}
		if err := fn(obj.Key); err != nil {
			if errors.Is(err, ErrStopIteration) {
				return nil
			}
			return err
		}
	}

	return ctx.Err()
}

// Get retrieves one object body
func (ms *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := ms.client.GetObject(ctx, ms.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

// Put writes one object
func (ms *MinioStore) Put(ctx context.Context, key string, data []byte) error {
	_, err := ms.client.PutObject(ctx, ms.bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

// Close is a no-op; the minio client holds no persistent resources
func (ms *MinioStore) Close() error {
	return nil
}
