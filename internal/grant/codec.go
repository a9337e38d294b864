package grant

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"uploadgw/internal/domain"
)

// Claims is the signed body of an upload grant. Every constraint the store must
// enforce is a claim, so altering any of them breaks the signature.
type Claims struct {
	jwt.RegisteredClaims
	Key         string `json:"key"`
	ContentType string `json:"ct"`
	MaxSize     int64  `json:"max"`
}

// Codec mints and verifies upload grants.
type Codec struct {
	key    SigningKey
	issuer string
	now    func() time.Time
}

// NewCodec creates a Codec. now defaults to time.Now.
func NewCodec(key SigningKey, issuer string, now func() time.Time) *Codec {
	if now == nil {
		now = time.Now
	}
	return &Codec{key: key, issuer: issuer, now: now}
}

// Available reports whether the codec holds signing material.
func (c *Codec) Available() bool {
	return c.key.Available()
}

// Mint signs t and records the signature on it. IssuedAt and ExpiresAt are
// carried at second precision.
func (c *Codec) Mint(t *domain.CapabilityToken) (string, error) {
	if !c.key.Available() {
		return "", domain.ErrSigningUnavailable
	}
	if t.Key == "" || t.ContentType == "" || t.MaxSize <= 0 || !t.ExpiresAt.After(t.IssuedAt) {
		return "", fmt.Errorf("minting grant: %w", domain.ErrGrantInvalid)
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        t.ID.String(),
			Issuer:    c.issuer,
			Subject:   t.Key,
			IssuedAt:  jwt.NewNumericDate(t.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(t.ExpiresAt),
		},
		Key:         t.Key,
		ContentType: t.ContentType,
		MaxSize:     t.MaxSize,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key.material)
	if err != nil {
		return "", fmt.Errorf("signing grant: %w", err)
	}
	t.Signature = signed[strings.LastIndex(signed, ".")+1:]
	return signed, nil
}

// Verify checks the signature, issuer and expiry of raw and returns the grant it carries.
func (c *Codec) Verify(raw string) (*domain.CapabilityToken, error) {
	if !c.key.Available() {
		return nil, domain.ErrSigningUnavailable
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return c.key.material, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrGrantExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrGrantInvalid, err)
	}

	return tokenFromClaims(raw, claims)
}

// Inspect decodes raw without checking its signature. It is meant for operators
// looking at a grant, never for authorization.
func Inspect(raw string) (*domain.CapabilityToken, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGrantInvalid, err)
	}
	return tokenFromClaims(raw, claims)
}

func tokenFromClaims(raw string, claims *Claims) (*domain.CapabilityToken, error) {
	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad grant id", domain.ErrGrantInvalid)
	}
	if claims.Key == "" || claims.Subject != claims.Key || claims.ContentType == "" || claims.MaxSize <= 0 {
		return nil, fmt.Errorf("%w: missing constraint", domain.ErrGrantInvalid)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing validity window", domain.ErrGrantInvalid)
	}

	return &domain.CapabilityToken{
		ID:          id,
		Key:         claims.Key,
		ContentType: claims.ContentType,
		MaxSize:     claims.MaxSize,
		IssuedAt:    claims.IssuedAt.Time.UTC(),
		ExpiresAt:   claims.ExpiresAt.Time.UTC(),
		Signature:   raw[strings.LastIndex(raw, ".")+1:],
	}, nil
}
