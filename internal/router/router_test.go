package router_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"uploadgw/internal/config"
	"uploadgw/internal/grant"
	"uploadgw/internal/handler"
	"uploadgw/internal/port"
	"uploadgw/internal/router"
	"uploadgw/internal/service"
	"uploadgw/mocks"
)

const (
	mib           = 1024 * 1024
	allowedOrigin = "https://app.example.com"
)

var keyPattern = regexp.MustCompile(`^\d{8}_\d{6}_[0-9a-f]{16}\.pdf$`)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           ":0",
			RequestBudget:  29 * time.Second,
			DeadlineSafety: 2 * time.Second,
		},
		Storage: config.StorageConfig{
			Provider:      "s3",
			Region:        "us-east-1",
			Bucket:        "test-bucket",
			MaxObjectSize: 5 * 1024 * mib,
		},
		Upload: config.UploadConfig{
			InlineThreshold:        6 * mib,
			EncodingOverhead:       4.0 / 3.0,
			PlatformPayloadCeiling: 10 * mib,
			SafetyMargin:           mib,
			AllowedContentTypes:    []string{"application/pdf", "image/jpeg", "image/png"},
		},
		Token: config.TokenConfig{
			SigningSecret: "test-secret",
			Issuer:        "uploadgw",
			DefaultExpiry: time.Hour,
			MinExpiry:     time.Minute,
			MaxExpiry:     7 * 24 * time.Hour,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{allowedOrigin}},
	}
}

func setup(cfg *config.Config, storage port.ObjectStorage) *gin.Engine {
	codec := grant.NewCodec(grant.NewSigningKey(cfg.Token.SigningSecret), cfg.Token.Issuer, nil)
	classifier := service.NewClassifier(cfg.Upload.DecodedLimit(), cfg.Upload.AllowedContentTypes)
	keys := service.NewKeyGenerator(nil, nil)
	uploadH := handler.NewUploadHandler(
		classifier,
		service.NewInlineService(storage, keys, cfg, nil),
		service.NewGrantService(storage, codec, classifier, keys, cfg, nil),
		cfg.Upload.EncodedLimit(),
	)
	healthH := handler.NewHealthHandler(storage, cfg.Storage.Bucket)
	return router.Setup(cfg, zerolog.Nop(), uploadH, healthH)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func pdf(size int) []byte {
	head := []byte("%PDF-1.7\n")
	return append(head, bytes.Repeat([]byte{'x'}, size-len(head))...)
}

func encoded(b []byte) *bytes.Reader {
	return bytes.NewReader([]byte(base64.StdEncoding.EncodeToString(b)))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body handler.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestUpload_DeferredGrant(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	r := setup(testConfig(), storage)

	storage.On("PresignPost", mock.Anything, mock.MatchedBy(func(in port.PresignPostInput) bool {
		return in.ContentType == "application/pdf" && in.MaxSize == 104857600 && in.Metadata[service.GrantMetadataKey] != ""
	})).Return(&port.PresignedPost{
		URL:    "https://test-bucket.s3.us-east-1.amazonaws.com",
		Fields: map[string]string{"policy": "p", "x-amz-signature": "s"},
	}, nil)

	req, _ := http.NewRequest(http.MethodGet, "/upload?filename=report.pdf&contentType=application/pdf&maxSize=104857600", http.NoBody)
	req.Header.Set("Origin", allowedOrigin)
	w := serve(r, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp handler.PresignedUploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Regexp(t, keyPattern, resp.Key)
	assert.Equal(t, resp.Key, resp.Fields["key"])
	assert.WithinDuration(t, time.Now().Add(time.Hour), resp.ExpiresAt, 5*time.Second)
	assert.Equal(t, allowedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	storage.AssertExpectations(t)
}

func TestUpload_InlineTooLarge(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	r := setup(testConfig(), storage)

	req, _ := http.NewRequest(http.MethodPost, "/upload", encoded(pdf(7*mib)))
	req.Header.Set("Content-Type", "application/pdf")
	w := serve(r, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, handler.CodeSizeLimitExceeded, errorCode(t, w))
	storage.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestUpload_SevenMegabyteEncodedBody(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	r := setup(testConfig(), storage)

	body := base64.StdEncoding.EncodeToString(pdf(5250000))
	require.Len(t, body, 7000000)

	req, _ := http.NewRequest(http.MethodPost, "/upload", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Origin", allowedOrigin)
	w := serve(r, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, handler.CodeSizeLimitExceeded, errorCode(t, w))
	storage.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestUpload_InlineContentMismatch(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	r := setup(testConfig(), storage)

	notPDF := bytes.Repeat([]byte{0x00, 0x01, 0x02, 0x03}, 2*mib/4)
	req, _ := http.NewRequest(http.MethodPost, "/upload", encoded(notPDF))
	req.Header.Set("Content-Type", "application/pdf")
	w := serve(r, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handler.CodeContentValidationFailed, errorCode(t, w))
	storage.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestUpload_OriginNotAllowed(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodOptions, http.MethodPut, http.MethodTrace, "PROPFIND"} {
		t.Run(method, func(t *testing.T) {
			storage := new(mocks.MockObjectStorage)
			r := setup(testConfig(), storage)

			req, _ := http.NewRequest(method, "/upload?contentType=application/pdf&maxSize=1024", encoded(pdf(1024)))
			req.Header.Set("Origin", "https://evil.example.net")
			req.Header.Set("Content-Type", "application/pdf")
			w := serve(r, req)

			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Equal(t, handler.CodeOriginNotAllowed, errorCode(t, w))
			storage.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
			storage.AssertNotCalled(t, "PresignPost", mock.Anything, mock.Anything)
		})
	}
}

func TestUpload_ExpiryAboveMaximum(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	r := setup(testConfig(), storage)

	req, _ := http.NewRequest(http.MethodGet, "/upload?contentType=application/pdf&maxSize=1048576&expirySeconds=999999", http.NoBody)
	w := serve(r, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handler.CodeInvalidExpiry, errorCode(t, w))
	storage.AssertNotCalled(t, "PresignPost", mock.Anything, mock.Anything)
}

func TestUpload_InlineSuccess(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	r := setup(testConfig(), storage)

	payload := pdf(512 * 1024)
	storage.On("Put", mock.Anything, mock.MatchedBy(func(in port.PutInput) bool {
		return in.Bucket == "test-bucket" && in.Size == int64(len(payload)) && keyPattern.MatchString(in.Key)
	})).Return(&port.PutOutput{ETag: `"abc"`}, nil).Once()

	req, _ := http.NewRequest(http.MethodPost, "/upload", encoded(payload))
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Origin", allowedOrigin)
	req.Header.Set(handler.HeaderFilename, "scan.pdf")
	w := serve(r, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp handler.InlineUploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "File uploaded successfully", resp.Message)
	assert.Regexp(t, keyPattern, resp.Filename)
	assert.Equal(t, int64(len(payload)), resp.Size)
	storage.AssertExpectations(t)
}

func TestUpload_SigningUnavailable(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	cfg := testConfig()
	cfg.Token.SigningSecret = ""
	r := setup(cfg, storage)

	req, _ := http.NewRequest(http.MethodGet, "/upload?contentType=application/pdf&maxSize=1048576", http.NoBody)
	w := serve(r, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, handler.CodeSigningUnavailable, errorCode(t, w))
	assert.NotContains(t, w.Body.String(), "signing material")
	storage.AssertNotCalled(t, "PresignPost", mock.Anything, mock.Anything)
}

func TestUpload_MethodNotAllowed(t *testing.T) {
	for _, method := range []string{http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodTrace} {
		t.Run(method, func(t *testing.T) {
			storage := new(mocks.MockObjectStorage)
			r := setup(testConfig(), storage)

			req, _ := http.NewRequest(method, "/upload", strings.NewReader("x"))
			w := serve(r, req)

			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
			assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Allow"))
			assert.Equal(t, handler.CodeMethodNotAllowed, errorCode(t, w))
			storage.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
		})
	}
}

func TestUpload_Preflight(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	r := setup(testConfig(), storage)

	req, _ := http.NewRequest(http.MethodOptions, "/upload", http.NoBody)
	req.Header.Set("Origin", allowedOrigin)
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := serve(r, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, allowedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUpload_Throttled(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	cfg := testConfig()
	cfg.Throttle = config.ThrottleConfig{RatePerSecond: 0.1, Burst: 1}
	r := setup(cfg, storage)

	req, _ := http.NewRequest(http.MethodGet, "/upload?contentType=application/pdf", http.NoBody)
	first := serve(r, req)
	assert.Equal(t, http.StatusBadRequest, first.Code)

	req, _ = http.NewRequest(http.MethodGet, "/upload?contentType=application/pdf", http.NoBody)
	second := serve(r, req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "10", second.Header().Get("Retry-After"))
	assert.Equal(t, handler.CodeThrottled, errorCode(t, second))
}

func TestOperationalRoutes(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	r := setup(testConfig(), storage)
	storage.On("Ping", mock.Anything, "test-bucket").Return(nil)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		req, _ := http.NewRequest(http.MethodGet, path, http.NoBody)
		req.Header.Set("Origin", "https://evil.example.net")
		w := serve(r, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
