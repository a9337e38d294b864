package domain

import (
	"time"

	"github.com/google/uuid"
)

// UploadRequest is the transient view of one inline upload call.
type UploadRequest struct {
	RequestID    string
	Filename     string
	ContentType  string
	DeclaredSize *int64
	Body         []byte
	Origin       string
}

// RoutingDecision is the classifier's verdict for a single request.
type RoutingDecision struct {
	Route  Route       `json:"route"`
	Reason RouteReason `json:"reason"`
}

// IsInline reports whether the request should be handled synchronously.
func (d RoutingDecision) IsInline() bool {
	return d.Route == RouteInline
}

// CapabilityToken is a signed, time-bounded grant to write one object.
// Every field is covered by Signature; it is never mutated after issuance.
type CapabilityToken struct {
	ID          uuid.UUID `json:"id"`
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	MaxSize     int64     `json:"max_size"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Signature   string    `json:"-"`
}

// TTL returns the lifetime the token was issued with.
func (t *CapabilityToken) TTL() time.Duration {
	return t.ExpiresAt.Sub(t.IssuedAt)
}

// UploadResult is the outcome of a successful inline upload.
type UploadResult struct {
	Key         string       `json:"key"`
	Size        int64        `json:"size"`
	Digest      string       `json:"digest"`
	ContentType string       `json:"content_type"`
	Trust       ContentTrust `json:"trust"`
	ETag        string       `json:"etag,omitempty"`
}

// PresignedUpload is everything a client needs to upload directly to the store.
type PresignedUpload struct {
	UploadURL string            `json:"uploadUrl"`
	Fields    map[string]string `json:"fields"`
	Key       string            `json:"key"`
	ExpiresAt time.Time         `json:"expiresAt"`
	Grant     *CapabilityToken  `json:"-"`
}
