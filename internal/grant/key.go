package grant

import (
	"crypto/sha256"
	"io"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/hkdf"
)

const (
	keyInfo  = "upload-grant/v1"
	keySize  = 32
	redacted = "[REDACTED]"
)

// SigningKey is the process-wide grant signing material. It is derived once at
// startup and never mutated; it formats as [REDACTED] everywhere.
type SigningKey struct {
	material []byte
}

// NewSigningKey derives a signing key from secret. An empty secret yields an
// unavailable key, which makes every Mint fail closed.
func NewSigningKey(secret string) SigningKey {
	if secret == "" {
		return SigningKey{}
	}
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo))
	material := make([]byte, keySize)
	if _, err := io.ReadFull(r, material); err != nil {
		return SigningKey{}
	}
	return SigningKey{material: material}
}

// Available reports whether the key can sign.
func (k SigningKey) Available() bool {
	return len(k.material) > 0
}

func (k SigningKey) String() string   { return redacted }
func (k SigningKey) GoString() string { return redacted }

// MarshalZerologObject keeps the key out of structured logs.
func (k SigningKey) MarshalZerologObject(e *zerolog.Event) {
	e.Bool("available", k.Available()).Str("material", redacted)
}

// MarshalText keeps the key out of JSON and text encoders.
func (k SigningKey) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}
