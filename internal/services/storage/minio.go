package storage

import (
	"context"
	"fmt"
	"time"

	"surveillance/internal/config"
	"surveillance/internal/logger"

	"github.com/cenkalti/backoff/v4"
	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	mirrorMaxRetries     = 5
	mirrorInitialBackoff = 500 * time.Millisecond
	mirrorConnectTimeout = 30 * time.Second
)

// MinIOMirror uploads evidence files to an S3 compatible bucket.
type MinIOMirror struct {
	client *minio.Client
	bucket string
	logger *logger.Logger
}

// NewMinIOMirror connects to the configured endpoint and creates the bucket
// when it does not exist.
func NewMinIOMirror(cfg *config.Config, log *logger.Logger) (*MinIOMirror, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), mirrorConnectTimeout)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinIOBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Info("Created MinIO bucket %s", cfg.MinIOBucket)
	}

	return &MinIOMirror{client: client, bucket: cfg.MinIOBucket, logger: log}, nil
}

func (m *MinIOMirror) PutFile(ctx context.Context, key, path string) error {
	ebo := backoff.NewExponentialBackOff()
	ebo.InitialInterval = mirrorInitialBackoff
	ebo.Reset()

	op := func() error {
		info, err := m.client.FPutObject(ctx, m.bucket, key, path, minio.PutObjectOptions{
			ContentType: "image/jpeg",
		})
		if err != nil {
			return err
		}
		m.logger.Info("☁️ Mirrored %s (%d bytes)", key, info.Size)
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(ebo, mirrorMaxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("upload %s to bucket %s: %w", key, m.bucket, err)
	}
	return nil
}
