package grant_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uploadgw/internal/domain"
	"uploadgw/internal/grant"
)

var issued = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func clockAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newToken() *domain.CapabilityToken {
	return &domain.CapabilityToken{
		ID:          uuid.MustParse("0b8f3c2e-6a4d-4d1e-9c77-5f2a1b3c4d5e"),
		Key:         "20261015_093000_0b8f3c2e6a4d4d1e.pdf",
		ContentType: "application/pdf",
		MaxSize:     100 * 1024 * 1024,
		IssuedAt:    issued,
		ExpiresAt:   issued.Add(time.Hour),
	}
}

func TestCodec_MintVerify_RoundTrip(t *testing.T) {
	codec := grant.NewCodec(grant.NewSigningKey("secret"), "uploadgw", clockAt(issued.Add(time.Minute)))
	token := newToken()

	signed, err := codec.Mint(token)
	require.NoError(t, err)
	assert.NotEmpty(t, token.Signature)
	assert.True(t, strings.HasSuffix(signed, "."+token.Signature))

	got, err := codec.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, token.ID, got.ID)
	assert.Equal(t, token.Key, got.Key)
	assert.Equal(t, token.ContentType, got.ContentType)
	assert.Equal(t, token.MaxSize, got.MaxSize)
	assert.True(t, token.IssuedAt.Equal(got.IssuedAt))
	assert.True(t, token.ExpiresAt.Equal(got.ExpiresAt))
	assert.Equal(t, token.Signature, got.Signature)
	assert.Equal(t, time.Hour, got.TTL())
}

// tamper rewrites one claim of a signed grant while keeping the original signature.
func tamper(t *testing.T, signed string, mutate func(map[string]interface{})) string {
	t.Helper()
	parts := strings.Split(signed, ".")
	require.Len(t, parts, 3)

	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	claims := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(raw, &claims))

	mutate(claims)

	out, err := json.Marshal(claims)
	require.NoError(t, err)
	parts[1] = base64.RawURLEncoding.EncodeToString(out)
	return strings.Join(parts, ".")
}

func TestCodec_Verify_TamperedClaims(t *testing.T) {
	codec := grant.NewCodec(grant.NewSigningKey("secret"), "uploadgw", clockAt(issued.Add(time.Minute)))
	signed, err := codec.Mint(newToken())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(map[string]interface{})
	}{
		{"key", func(c map[string]interface{}) { c["key"] = "other.pdf"; c["sub"] = "other.pdf" }},
		{"content type", func(c map[string]interface{}) { c["ct"] = "image/png" }},
		{"max size", func(c map[string]interface{}) { c["max"] = 5 * 1024 * 1024 * 1024 }},
		{"expiry", func(c map[string]interface{}) { c["exp"] = issued.Add(24 * time.Hour).Unix() }},
		{"issued at", func(c map[string]interface{}) { c["iat"] = issued.Add(-time.Hour).Unix() }},
		{"id", func(c map[string]interface{}) { c["jti"] = uuid.NewString() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Verify(tamper(t, signed, tt.mutate))
			assert.ErrorIs(t, err, domain.ErrGrantInvalid)
		})
	}
}

func TestCodec_Verify_WrongKey(t *testing.T) {
	minter := grant.NewCodec(grant.NewSigningKey("secret"), "uploadgw", nil)
	verifier := grant.NewCodec(grant.NewSigningKey("other-secret"), "uploadgw", clockAt(issued))
	signed, err := minter.Mint(newToken())
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	assert.ErrorIs(t, err, domain.ErrGrantInvalid)
}

func TestCodec_Verify_WrongIssuer(t *testing.T) {
	minter := grant.NewCodec(grant.NewSigningKey("secret"), "someone-else", nil)
	verifier := grant.NewCodec(grant.NewSigningKey("secret"), "uploadgw", clockAt(issued))
	signed, err := minter.Mint(newToken())
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	assert.ErrorIs(t, err, domain.ErrGrantInvalid)
}

func TestCodec_Verify_Expired(t *testing.T) {
	codec := grant.NewCodec(grant.NewSigningKey("secret"), "uploadgw", clockAt(issued.Add(2*time.Hour)))
	signed, err := codec.Mint(newToken())
	require.NoError(t, err)

	_, err = codec.Verify(signed)
	assert.ErrorIs(t, err, domain.ErrGrantExpired)
}

func TestCodec_Verify_RejectsNoneAlgorithm(t *testing.T) {
	codec := grant.NewCodec(grant.NewSigningKey("secret"), "uploadgw", clockAt(issued))
	tok := newToken()
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, grant.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tok.ID.String(),
			Issuer:    "uploadgw",
			Subject:   tok.Key,
			IssuedAt:  jwt.NewNumericDate(tok.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(tok.ExpiresAt),
		},
		Key:         tok.Key,
		ContentType: tok.ContentType,
		MaxSize:     tok.MaxSize,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Verify(unsigned)
	assert.ErrorIs(t, err, domain.ErrGrantInvalid)
}

func TestCodec_Mint_Unavailable(t *testing.T) {
	codec := grant.NewCodec(grant.NewSigningKey(""), "uploadgw", nil)
	assert.False(t, codec.Available())

	_, err := codec.Mint(newToken())
	assert.ErrorIs(t, err, domain.ErrSigningUnavailable)

	_, err = codec.Verify("a.b.c")
	assert.ErrorIs(t, err, domain.ErrSigningUnavailable)
}

func TestCodec_Mint_RejectsIncompleteToken(t *testing.T) {
	codec := grant.NewCodec(grant.NewSigningKey("secret"), "uploadgw", nil)

	noKey := newToken()
	noKey.Key = ""
	_, err := codec.Mint(noKey)
	assert.ErrorIs(t, err, domain.ErrGrantInvalid)

	backwards := newToken()
	backwards.ExpiresAt = backwards.IssuedAt
	_, err = codec.Mint(backwards)
	assert.ErrorIs(t, err, domain.ErrGrantInvalid)
}

func TestInspect(t *testing.T) {
	codec := grant.NewCodec(grant.NewSigningKey("secret"), "uploadgw", nil)
	signed, err := codec.Mint(newToken())
	require.NoError(t, err)

	got, err := grant.Inspect(signed)
	require.NoError(t, err)
	assert.Equal(t, newToken().Key, got.Key)

	_, err = grant.Inspect("not-a-token")
	assert.ErrorIs(t, err, domain.ErrGrantInvalid)
}
