package s3

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"uploadgw/internal/config"
	"uploadgw/internal/port"
)

// partSize keeps every inline write a single PutObject; inline bodies are
// bounded far below it by the gateway payload ceiling.
const partSize = 64 * 1024 * 1024

type s3Client struct {
	client    *s3.Client
	presigner *s3.PresignClient
	uploader  *manager.Uploader
	sse       string
}

// NewS3Client creates a new S3-backed ObjectStorage implementation.
func NewS3Client(cfg *config.StorageConfig) (port.ObjectStorage, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return &s3Client{
		client:    client,
		presigner: s3.NewPresignClient(client),
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = partSize
			u.Concurrency = 1
			u.ClientOptions = append(u.ClientOptions, func(o *s3.Options) {
				o.RetryMaxAttempts = 1
			})
		}),
		sse: cfg.ServerSideEncryption,
	}, nil
}

func (c *s3Client) Put(ctx context.Context, input port.PutInput) (*port.PutOutput, error) {
	in := &s3.PutObjectInput{
		Bucket:        aws.String(input.Bucket),
		Key:           aws.String(input.Key),
		Body:          input.Body,
		ContentType:   aws.String(input.ContentType),
		ContentLength: aws.Int64(input.Size),
	}
	if c.sse != "" {
		in.ServerSideEncryption = types.ServerSideEncryption(c.sse)
	}
	if len(input.ChecksumSHA256) > 0 {
		in.ChecksumSHA256 = aws.String(base64.StdEncoding.EncodeToString(input.ChecksumSHA256))
	}

	result, err := c.uploader.Upload(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("s3 put: %w", err)
	}

	etag := ""
	if result.ETag != nil {
		etag = *result.ETag
	}

	return &port.PutOutput{
		Location: result.Location,
		ETag:     etag,
	}, nil
}

func (c *s3Client) PresignPost(ctx context.Context, input port.PresignPostInput) (*port.PresignedPost, error) {
	ttl := time.Until(input.ExpiresAt)
	if ttl <= 0 {
		return nil, fmt.Errorf("s3 presign post: expiry %s already passed", input.ExpiresAt.Format(time.RFC3339))
	}

	conditions := []interface{}{
		map[string]string{"Content-Type": input.ContentType},
		[]interface{}{"content-length-range", 1, input.MaxSize},
	}
	fields := map[string]string{"Content-Type": input.ContentType}
	if c.sse != "" {
		conditions = append(conditions, map[string]string{"x-amz-server-side-encryption": c.sse})
		fields["x-amz-server-side-encryption"] = c.sse
	}
	for k, v := range input.Metadata {
		name := "x-amz-meta-" + k
		conditions = append(conditions, map[string]string{name: v})
		fields[name] = v
	}

	result, err := c.presigner.PresignPostObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(input.Bucket),
		Key:    aws.String(input.Key),
	}, func(o *s3.PresignPostOptions) {
		o.Expires = ttl
		o.Conditions = conditions
	})
	if err != nil {
		return nil, fmt.Errorf("s3 presign post: %w", err)
	}

	for k, v := range result.Values {
		fields[k] = v
	}
	return &port.PresignedPost{URL: result.URL, Fields: fields}, nil
}

func (c *s3Client) Ping(ctx context.Context, bucket string) error {
	if _, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return fmt.Errorf("s3 head bucket: %w", err)
	}
	return nil
}
