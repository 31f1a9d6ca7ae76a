package s3

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
)

// objectClient is the part of the object storage API the adapter consumes.
type objectClient interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, minio.ObjectInfo, error)
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type minioClient struct {
	client *minio.Client
}

func (mc *minioClient) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return mc.client.BucketExists(ctx, bucket)
}

// ListObjects pages through the bucket with continuation tokens internally,
// yielding one merged sequence of entries.
func (mc *minioClient) ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	return mc.client.ListObjects(ctx, bucket, opts)
}

func (mc *minioClient) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, minio.ObjectInfo, error) {
	object, err := mc.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, minio.ObjectInfo{}, err
	}

	// GetObject is lazy, Stat surfaces missing keys and permissions early
	info, err := object.Stat()
	if err != nil {
		object.Close()
		return nil, minio.ObjectInfo{}, err
	}

	return object, info, nil
}

func (mc *minioClient) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return mc.client.PutObject(ctx, bucket, key, r, size, opts)
}
