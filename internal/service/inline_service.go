package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/minio/sha256-simd"

	"uploadgw/internal/config"
	"uploadgw/internal/domain"
	"uploadgw/internal/logging"
	"uploadgw/internal/metrics"
	"uploadgw/internal/port"
)

// InlineService handles uploads whose bytes travel through the gateway.
type InlineService interface {
	Process(ctx context.Context, req domain.UploadRequest) (*domain.UploadResult, error)
}

type inlineService struct {
	storage        port.ObjectStorage
	keys           *KeyGenerator
	bucket         string
	keyPrefix      string
	threshold      int64
	encodedLimit   int64
	deadlineSafety time.Duration
	now            func() time.Time
}

// NewInlineService creates a new InlineService implementation.
func NewInlineService(
	storage port.ObjectStorage,
	keys *KeyGenerator,
	cfg *config.Config,
	now func() time.Time,
) InlineService {
	if now == nil {
		now = time.Now
	}
	return &inlineService{
		storage:        storage,
		keys:           keys,
		bucket:         cfg.Storage.Bucket,
		keyPrefix:      cfg.Storage.KeyPrefix,
		threshold:      cfg.Upload.DecodedLimit(),
		encodedLimit:   cfg.Upload.EncodedLimit(),
		deadlineSafety: cfg.Server.DeadlineSafety,
		now:            now,
	}
}

func (s *inlineService) Process(ctx context.Context, req domain.UploadRequest) (*domain.UploadResult, error) {
	log := logging.Ctx(ctx)

	// Reject oversized bodies before spending any time decoding them.
	if int64(len(req.Body)) > s.encodedLimit {
		return nil, fmt.Errorf("%w: encoded body of %s exceeds the %s inline limit; request an upload URL instead",
			domain.ErrSizeLimitExceeded, humanize.IBytes(uint64(len(req.Body))), humanize.IBytes(uint64(s.encodedLimit)))
	}

	payload, err := decodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	size := int64(len(payload))
	if size > s.threshold {
		return nil, fmt.Errorf("%w: decoded file of %s exceeds the %s inline limit; request an upload URL instead",
			domain.ErrSizeLimitExceeded, humanize.IBytes(uint64(size)), humanize.IBytes(uint64(s.threshold)))
	}
	if req.DeclaredSize != nil && size > *req.DeclaredSize {
		return nil, fmt.Errorf("%w: decoded %d bytes but %d were declared",
			domain.ErrDecodeFailure, size, *req.DeclaredSize)
	}

	contentType := NormalizeContentType(req.ContentType)
	trust, err := InspectContent(contentType, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: payload is not %s", err, contentType)
	}

	key := s.keys.Generate(s.keyPrefix, req.Filename, contentType)
	digest := sha256.Sum256(payload)

	writeCtx, cancel, err := s.writeContext(ctx)
	if err != nil {
		log.Warn().Str("key", key).Msg("inlineService.Process: not enough time left for store write")
		return nil, err
	}
	defer cancel()

	log.Debug().Str("key", key).Str("content_type", contentType).Str("size", humanize.IBytes(uint64(size))).
		Msg("inlineService.Process: writing object")

	start := time.Now()
	out, err := s.storage.Put(writeCtx, port.PutInput{
		Bucket:         s.bucket,
		Key:            key,
		Body:           bytes.NewReader(payload),
		ContentType:    contentType,
		Size:           size,
		ChecksumSHA256: digest[:],
	})
	metrics.ObserveStoreWrite(start, err)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("inlineService.Process: store write failed")
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(writeCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreWriteFailed, err)
	}
	metrics.ObserveInlineUpload(size)

	log.Info().Str("key", key).Int64("size", size).Msg("inlineService.Process: object stored")

	return &domain.UploadResult{
		Key:         key,
		Size:        size,
		Digest:      hex.EncodeToString(digest[:]),
		ContentType: contentType,
		Trust:       trust,
		ETag:        out.ETag,
	}, nil
}

// writeContext bounds the store write by the request deadline minus the safety
// buffer. It refuses to start a write that could not finish in time, since an
// interrupted inline write cannot be resumed.
func (s *inlineService) writeContext(ctx context.Context) (context.Context, context.CancelFunc, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return ctx, func() {}, nil
	}
	if deadline.Sub(s.now()) <= s.deadlineSafety {
		return nil, nil, domain.ErrDeadlineApproaching
	}
	writeCtx, cancel := context.WithDeadline(ctx, deadline.Add(-s.deadlineSafety))
	return writeCtx, cancel, nil
}

// decodeBody reverses the base64 transport encoding used by the gateway.
func decodeBody(body []byte) ([]byte, error) {
	src := bytes.TrimSpace(body)
	if len(src) == 0 {
		return nil, fmt.Errorf("%w: body is empty", domain.ErrDecodeFailure)
	}
	dst := make([]byte, base64.StdEncoding.DecodedLen(len(src)))
	n, err := base64.StdEncoding.Decode(dst, src)
	if err != nil {
		return nil, fmt.Errorf("%w: body must be base64 encoded: %v", domain.ErrDecodeFailure, err)
	}
	return dst[:n], nil
}
