package load

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/techchallenge/vitibrasil-etl/config"
)

const parquetContentType = "application/vnd.apache.parquet"

// Uploader publishes local files to object storage.
type Uploader interface {
	Upload(ctx context.Context, bucket, key, path string) error
}

// ObjectStore is an S3-compatible bucket client.
type ObjectStore struct {
	Client *minio.Client
	Logger *slog.Logger
}

// NewObjectStore connects to object_store.endpoint with the keys in
// OBJECT_STORE_ACCESS_KEY and OBJECT_STORE_SECRET_KEY.
func NewObjectStore(cfg *config.Config, logger *slog.Logger) (*ObjectStore, error) {
	if cfg.ObjectStore.Endpoint == "" {
		return nil, fmt.Errorf("object_store.endpoint is not set")
	}
	accessKey := os.Getenv("OBJECT_STORE_ACCESS_KEY")
	secretKey := os.Getenv("OBJECT_STORE_SECRET_KEY")
	if accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("OBJECT_STORE_ACCESS_KEY and OBJECT_STORE_SECRET_KEY env variables must be set")
	}

	region := cfg.ObjectStore.Region
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(cfg.ObjectStore.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: cfg.ObjectStore.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating object store client: %w", err)
	}

	return &ObjectStore{Client: client, Logger: logger}, nil
}

// Upload creates bucket when missing and puts the file at path under key.
func (o *ObjectStore) Upload(ctx context.Context, bucket, key, path string) error {
	exists, err := o.Client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("error checking bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := o.Client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("error creating bucket %s: %w", bucket, err)
		}
		o.Logger.Info(fmt.Sprintf("Created bucket %s", bucket))
	}

	info, err := o.Client.FPutObject(ctx, bucket, key, path, minio.PutObjectOptions{ContentType: parquetContentType})
	if err != nil {
		return fmt.Errorf("error uploading %s to %s/%s: %w", path, bucket, key, err)
	}
	o.Logger.Info(fmt.Sprintf("Uploaded %s to %s/%s", path, bucket, key), "bytes", info.Size)
	return nil
}
