package minio

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/encrypt"

	"uploadgw/internal/config"
	"uploadgw/internal/port"
)

type minioClient struct {
	client *minio.Client
	sse    bool
}

// NewMinioClient creates a MinIO-backed ObjectStorage implementation for
// self-hosted S3-compatible stores.
func NewMinioClient(cfg *config.StorageConfig) (port.ObjectStorage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio: storage.endpoint is required")
	}
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	return &minioClient{client: client, sse: cfg.ServerSideEncryption != ""}, nil
}

func (c *minioClient) Put(ctx context.Context, input port.PutInput) (*port.PutOutput, error) {
	opts := minio.PutObjectOptions{ContentType: input.ContentType}
	if c.sse {
		opts.ServerSideEncryption = encrypt.NewSSE()
	}
	if len(input.ChecksumSHA256) > 0 {
		opts.UserMetadata = map[string]string{
			"sha256": base64.StdEncoding.EncodeToString(input.ChecksumSHA256),
		}
	}

	info, err := c.client.PutObject(ctx, input.Bucket, input.Key, input.Body, input.Size, opts)
	if err != nil {
		return nil, fmt.Errorf("minio put: %w", err)
	}

	return &port.PutOutput{Location: info.Location, ETag: info.ETag}, nil
}

func (c *minioClient) PresignPost(ctx context.Context, input port.PresignPostInput) (*port.PresignedPost, error) {
	if !input.ExpiresAt.After(time.Now()) {
		return nil, fmt.Errorf("minio presign post: expiry %s already passed", input.ExpiresAt.Format(time.RFC3339))
	}

	policy := minio.NewPostPolicy()
	if err := policy.SetBucket(input.Bucket); err != nil {
		return nil, fmt.Errorf("minio presign post: %w", err)
	}
	if err := policy.SetKey(input.Key); err != nil {
		return nil, fmt.Errorf("minio presign post: %w", err)
	}
	if err := policy.SetExpires(input.ExpiresAt.UTC()); err != nil {
		return nil, fmt.Errorf("minio presign post: %w", err)
	}
	if err := policy.SetContentType(input.ContentType); err != nil {
		return nil, fmt.Errorf("minio presign post: %w", err)
	}
	if err := policy.SetContentLengthRange(1, input.MaxSize); err != nil {
		return nil, fmt.Errorf("minio presign post: %w", err)
	}
	if c.sse {
		policy.SetEncryption(encrypt.NewSSE())
	}
	for k, v := range input.Metadata {
		if err := policy.SetUserMetadata(k, v); err != nil {
			return nil, fmt.Errorf("minio presign post: %w", err)
		}
	}

	u, fields, err := c.client.PresignedPostPolicy(ctx, policy)
	if err != nil {
		return nil, fmt.Errorf("minio presign post: %w", err)
	}

	return &port.PresignedPost{URL: u.String(), Fields: fields}, nil
}

func (c *minioClient) Ping(ctx context.Context, bucket string) error {
	exists, err := c.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("minio bucket exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("minio: bucket %q does not exist", bucket)
	}
	return nil
}
