package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"uploadgw/internal/config"
	"uploadgw/internal/domain"
	"uploadgw/internal/logging"
	"uploadgw/internal/metrics"
	"uploadgw/internal/port"
)

// GrantMetadataKey is the object metadata field that pins a deferred upload to its grant.
const GrantMetadataKey = "upload-grant"

// GrantInput is the DTO for deferred upload authorization.
type GrantInput struct {
	Filename      string
	ContentType   string
	MaxSize       *int64
	ExpirySeconds *int64
}

// TokenMinter signs upload grants.
type TokenMinter interface {
	Available() bool
	Mint(t *domain.CapabilityToken) (string, error)
}

// GrantService issues upload grants for deferred uploads. It never sees the
// transfer itself.
type GrantService interface {
	Authorize(ctx context.Context, input GrantInput) (*domain.PresignedUpload, error)
}

type grantService struct {
	storage    port.ObjectStorage
	minter     TokenMinter
	classifier *Classifier
	keys       *KeyGenerator
	storageCfg *config.StorageConfig
	tokenCfg   *config.TokenConfig
	now        func() time.Time
	newID      func() uuid.UUID
}

// NewGrantService creates a new GrantService implementation.
func NewGrantService(
	storage port.ObjectStorage,
	minter TokenMinter,
	classifier *Classifier,
	keys *KeyGenerator,
	cfg *config.Config,
	now func() time.Time,
) GrantService {
	if now == nil {
		now = time.Now
	}
	return &grantService{
		storage:    storage,
		minter:     minter,
		classifier: classifier,
		keys:       keys,
		storageCfg: &cfg.Storage,
		tokenCfg:   &cfg.Token,
		now:        now,
		newID:      uuid.New,
	}
}

func (s *grantService) Authorize(ctx context.Context, input GrantInput) (*domain.PresignedUpload, error) {
	log := logging.Ctx(ctx)

	contentType := NormalizeContentType(input.ContentType)
	if !s.classifier.Allowed(contentType) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedContentType, input.ContentType)
	}

	if input.MaxSize == nil {
		return nil, domain.ErrMissingSizeHint
	}
	maxSize := *input.MaxSize
	if maxSize <= 0 {
		return nil, domain.ErrInvalidSize
	}
	if maxSize > s.storageCfg.MaxObjectSize {
		return nil, fmt.Errorf("%w: %s requested, the store accepts at most %s per object",
			domain.ErrSizeLimitExceeded, humanize.IBytes(uint64(maxSize)), humanize.IBytes(uint64(s.storageCfg.MaxObjectSize)))
	}

	ttl, err := s.expiry(input.ExpirySeconds)
	if err != nil {
		return nil, err
	}

	if !s.minter.Available() {
		log.Error().Msg("grantService.Authorize: signing key not configured")
		return nil, domain.ErrSigningUnavailable
	}

	issuedAt := s.now().UTC().Truncate(time.Second)
	token := &domain.CapabilityToken{
		ID:          s.newID(),
		Key:         s.keys.Generate(s.storageCfg.KeyPrefix+s.storageCfg.DeferredPrefix, input.Filename, contentType),
		ContentType: contentType,
		MaxSize:     maxSize,
		IssuedAt:    issuedAt,
		ExpiresAt:   issuedAt.Add(ttl),
	}

	signed, err := s.minter.Mint(token)
	if err != nil {
		return nil, err
	}

	post, err := s.storage.PresignPost(ctx, port.PresignPostInput{
		Bucket:      s.storageCfg.Bucket,
		Key:         token.Key,
		ContentType: contentType,
		MaxSize:     maxSize,
		ExpiresAt:   token.ExpiresAt,
		Metadata:    map[string]string{GrantMetadataKey: signed},
	})
	if err != nil {
		log.Error().Err(err).Str("key", token.Key).Msg("grantService.Authorize: presign failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrPresignFailed, err)
	}

	fields := make(map[string]string, len(post.Fields)+1)
	for k, v := range post.Fields {
		fields[k] = v
	}
	if _, ok := fields["key"]; !ok {
		fields["key"] = token.Key
	}

	metrics.ObserveGrant()
	log.Info().Str("key", token.Key).Str("grant_id", token.ID.String()).
		Time("expires_at", token.ExpiresAt).Int64("max_size", maxSize).
		Msg("grantService.Authorize: grant issued")

	return &domain.PresignedUpload{
		UploadURL: post.URL,
		Fields:    fields,
		Key:       token.Key,
		ExpiresAt: token.ExpiresAt,
		Grant:     token,
	}, nil
}

// expiry applies the grant lifetime policy. Out-of-range requests are rejected,
// never clamped.
func (s *grantService) expiry(requested *int64) (time.Duration, error) {
	if requested == nil {
		return s.tokenCfg.DefaultExpiry, nil
	}
	minSecs := int64(s.tokenCfg.MinExpiry / time.Second)
	maxSecs := int64(s.tokenCfg.MaxExpiry / time.Second)
	if *requested <= 0 || *requested < minSecs || *requested > maxSecs {
		return 0, fmt.Errorf("%w: %ds requested, allowed range is %d-%ds",
			domain.ErrInvalidExpiry, *requested, minSecs, maxSecs)
	}
	return time.Duration(*requested) * time.Second, nil
}
