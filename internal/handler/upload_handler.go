package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"uploadgw/internal/domain"
	"uploadgw/internal/logging"
	"uploadgw/internal/metrics"
	"uploadgw/internal/service"
)

// Request headers understood by POST /upload.
const (
	HeaderUploadSize = "X-Upload-Size"
	HeaderFilename   = "X-Filename"
)

const uploadedMessage = "File uploaded successfully"

// UploadHandler routes upload requests to the inline or deferred path.
type UploadHandler struct {
	classifier   *service.Classifier
	inline       service.InlineService
	grants       service.GrantService
	encodedLimit int64
}

// NewUploadHandler creates a new UploadHandler. encodedLimit caps how many body
// bytes POST /upload will read.
func NewUploadHandler(
	classifier *service.Classifier,
	inline service.InlineService,
	grants service.GrantService,
	encodedLimit int64,
) *UploadHandler {
	return &UploadHandler{
		classifier:   classifier,
		inline:       inline,
		grants:       grants,
		encodedLimit: encodedLimit,
	}
}

// Authorize handles GET /upload
// @Summary Request a direct upload URL
// @Description Issue a time-limited presigned POST for uploading a file straight to the object store
// @Tags upload
// @Produce json
// @Param filename query string false "Original filename; only its extension is used" default(document.pdf)
// @Param contentType query string true "MIME type (application/pdf, image/jpeg, image/png)"
// @Param maxSize query int true "Largest accepted object size in bytes"
// @Param expirySeconds query int false "Grant lifetime in seconds (60 to 604800, default 3600)"
// @Success 200 {object} PresignedUploadResponse "Upload grant issued"
// @Failure 400 {object} ErrorBody "Missing size, invalid expiry or parameter"
// @Failure 403 {object} ErrorBody "Origin not allowed"
// @Failure 413 {object} ErrorBody "Requested size exceeds store limit"
// @Failure 415 {object} ErrorBody "Unsupported content type"
// @Failure 500 {object} ErrorBody "Signing unavailable"
// @Failure 502 {object} ErrorBody "Presign failed"
// @Router /upload [get]
func (h *UploadHandler) Authorize(c *gin.Context) {
	maxSize, err := optionalInt64(c.Query("maxSize"), "maxSize")
	if err != nil {
		HandleError(c, err)
		return
	}
	expiry, err := optionalInt64(c.Query("expirySeconds"), "expirySeconds")
	if err != nil {
		HandleError(c, err)
		return
	}
	contentType := c.Query("contentType")

	decision, err := h.classifier.Classify(maxSize, contentType, false)
	if err != nil {
		HandleError(c, err)
		return
	}
	metrics.ObserveDecision(decision)
	logging.Ctx(c.Request.Context()).Debug().
		Str("route", string(decision.Route)).Str("reason", string(decision.Reason)).
		Msg("uploadHandler.Authorize: classified")

	upload, err := h.grants.Authorize(c.Request.Context(), service.GrantInput{
		Filename:      c.Query("filename"),
		ContentType:   contentType,
		MaxSize:       maxSize,
		ExpirySeconds: expiry,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, PresignedUploadResponse{
		UploadURL: upload.UploadURL,
		Fields:    upload.Fields,
		Key:       upload.Key,
		ExpiresAt: upload.ExpiresAt,
	})
}

// Upload handles POST /upload
// @Summary Upload a small file inline
// @Description Upload a base64-encoded file (PDF, JPG, PNG) through the gateway; larger files must use GET /upload
// @Tags upload
// @Accept plain
// @Produce json
// @Param Content-Type header string true "MIME type of the decoded file"
// @Param X-Upload-Size header int false "Decoded file size in bytes"
// @Param X-Filename header string false "Original filename; only its extension is used"
// @Param body body string true "Base64-encoded file content"
// @Success 200 {object} InlineUploadResponse "File uploaded"
// @Failure 400 {object} ErrorBody "Decode or content validation failure"
// @Failure 403 {object} ErrorBody "Origin not allowed"
// @Failure 413 {object} ErrorBody "File too large for inline upload"
// @Failure 415 {object} ErrorBody "Unsupported content type"
// @Failure 502 {object} ErrorBody "Store write failed"
// @Failure 504 {object} ErrorBody "Deadline approaching or store timeout"
// @Router /upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	declared, err := optionalInt64(c.GetHeader(HeaderUploadSize), HeaderUploadSize)
	if err != nil {
		HandleError(c, err)
		return
	}
	if declared != nil && *declared <= 0 {
		HandleError(c, domain.ErrInvalidSize)
		return
	}
	contentType := c.ContentType()

	decision, err := h.classifier.Classify(declared, contentType, c.Request.ContentLength != 0)
	if err != nil {
		HandleError(c, err)
		return
	}
	metrics.ObserveDecision(decision)
	if !decision.IsInline() {
		HandleError(c, fmt.Errorf("%w: declared size %s is above the %s inline limit; request an upload URL with GET /upload",
			domain.ErrSizeLimitExceeded, humanize.IBytes(uint64(*declared)), humanize.IBytes(uint64(h.classifier.Threshold()))))
		return
	}

	body, err := h.readBody(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	result, err := h.inline.Process(c.Request.Context(), domain.UploadRequest{
		RequestID:    c.GetString("request_id"),
		Filename:     c.GetHeader(HeaderFilename),
		ContentType:  contentType,
		DeclaredSize: declared,
		Body:         body,
		Origin:       c.GetHeader("Origin"),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, InlineUploadResponse{
		Message:  uploadedMessage,
		Filename: result.Key,
		Size:     result.Size,
	})
}

// MethodNotAllowed answers verbs that have no route on a known path.
func (h *UploadHandler) MethodNotAllowed(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/upload") {
		c.Header("Allow", "GET, POST, OPTIONS")
	}
	HandleError(c, domain.ErrMethodNotAllowed)
}

// readBody reads at most encodedLimit bytes; anything longer is rejected
// without buffering the remainder.
func (h *UploadHandler) readBody(c *gin.Context) ([]byte, error) {
	tooLarge := fmt.Errorf("%w: encoded body exceeds the %s inline limit; request an upload URL with GET /upload",
		domain.ErrSizeLimitExceeded, humanize.IBytes(uint64(h.encodedLimit)))

	if c.Request.ContentLength > h.encodedLimit {
		return nil, tooLarge
	}
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, h.encodedLimit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrDecodeFailure, err)
	}
	if int64(len(body)) > h.encodedLimit {
		return nil, tooLarge
	}
	return body, nil
}

func optionalInt64(raw, name string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidParameter, name)
	}
	return &n, nil
}
