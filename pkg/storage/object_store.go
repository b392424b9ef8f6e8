package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioSharer exports documents by uploading them to MinIO/S3 compatible
// storage and handing out a pre-signed download link.
type MinioSharer struct {
	client *minio.Client
	bucket string
	prefix string
	expiry time.Duration
}

// MinioConfig configures the sharer.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
	LinkTTL   time.Duration
}

// NewMinioSharer connects to MinIO and ensures the bucket exists.
func NewMinioSharer(cfg MinioConfig) (*MinioSharer, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	expiry := cfg.LinkTTL
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &MinioSharer{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, expiry: expiry}, nil
}

// Share uploads the file at localPath and returns a pre-signed URL for it.
func (m *MinioSharer) Share(ctx context.Context, localPath, contentType string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat document: %w", err)
	}
	key := path.Join(m.prefix, time.Now().UTC().Format("20060102T150405Z")+"-"+filepath.Base(localPath))
	if _, err := m.client.PutObject(ctx, m.bucket, key, f, info.Size(), minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	url, err := m.client.PresignedGetObject(ctx, m.bucket, key, m.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return url.String(), nil
}
