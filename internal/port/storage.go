package port

import (
	"context"
	"io"
	"time"
)

// PutInput encapsulates the parameters needed to write one object.
type PutInput struct {
	Bucket         string
	Key            string
	Body           io.Reader
	ContentType    string
	Size           int64
	ChecksumSHA256 []byte
}

// PutOutput contains the result of a successful write.
type PutOutput struct {
	Location string
	ETag     string
}

// PresignPostInput describes the constraints a direct browser upload must satisfy.
type PresignPostInput struct {
	Bucket      string
	Key         string
	ContentType string
	MaxSize     int64
	ExpiresAt   time.Time
	// Metadata is attached to the object as x-amz-meta-* fields and pinned by the policy.
	Metadata map[string]string
}

// PresignedPost is a form POST the client can send straight to the store.
type PresignedPost struct {
	URL    string
	Fields map[string]string
}

// ObjectStorage abstracts the object store the gateway writes to. Implementations
// must make a single write attempt per Put; the store itself enforces every
// PresignPost constraint.
type ObjectStorage interface {
	Put(ctx context.Context, input PutInput) (*PutOutput, error)
	PresignPost(ctx context.Context, input PresignPostInput) (*PresignedPost, error)
	Ping(ctx context.Context, bucket string) error
}
