package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const mib = 1024 * 1024

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Upload   UploadConfig
	Token    TokenConfig
	CORS     CORSConfig
	Throttle ThrottleConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	Environment     string        `mapstructure:"environment"`

	// RequestBudget is the hard per-request time ceiling imposed by the hosting gateway.
	RequestBudget time.Duration `mapstructure:"request_budget" validate:"gt=0"`
	// DeadlineSafety is reserved out of RequestBudget for decode and validation work.
	DeadlineSafety time.Duration `mapstructure:"deadline_safety" validate:"gte=0"`
}

// StorageConfig holds object store settings.
type StorageConfig struct {
	Provider             string `mapstructure:"provider" validate:"required,oneof=s3 minio"`
	Region               string `mapstructure:"region" validate:"required"`
	Bucket               string `mapstructure:"bucket" validate:"required"`
	Endpoint             string `mapstructure:"endpoint"`
	AccessKey            string `mapstructure:"access_key"`
	SecretKey            string `mapstructure:"secret_key"`
	UseSSL               bool   `mapstructure:"use_ssl"`
	KeyPrefix            string `mapstructure:"key_prefix"`
	DeferredPrefix       string `mapstructure:"deferred_prefix"`
	MaxObjectSize        int64  `mapstructure:"max_object_size" validate:"gt=0"`
	ServerSideEncryption string `mapstructure:"sse" validate:"omitempty,oneof=AES256"`
}

// UploadConfig holds the inline/deferred routing thresholds.
type UploadConfig struct {
	// InlineThreshold is the largest transport-encoded body accepted through the gateway.
	InlineThreshold int64 `mapstructure:"inline_threshold" validate:"gt=0"`
	// EncodingOverhead is the wire/decoded size ratio of the transport encoding (4/3 for base64).
	EncodingOverhead float64 `mapstructure:"encoding_overhead" validate:"gte=1"`
	// PlatformPayloadCeiling is the gateway's hard synchronous payload limit.
	PlatformPayloadCeiling int64 `mapstructure:"platform_payload_ceiling" validate:"gt=0"`
	// SafetyMargin is kept free below PlatformPayloadCeiling for headers and framing.
	SafetyMargin        int64    `mapstructure:"safety_margin" validate:"gte=0"`
	AllowedContentTypes []string `mapstructure:"allowed_content_types" validate:"min=1,dive,required"`
}

// EncodedLimit returns the largest request body read off the wire.
func (u *UploadConfig) EncodedLimit() int64 {
	return u.InlineThreshold
}

// DecodedLimit returns the largest file that still fits in EncodedLimit once
// encoded. Declared sizes are classified against it.
func (u *UploadConfig) DecodedLimit() int64 {
	if u.EncodingOverhead <= 0 {
		return u.InlineThreshold
	}
	return int64(math.Floor(float64(u.InlineThreshold) / u.EncodingOverhead))
}

// TokenConfig holds upload grant signing and expiry policy.
type TokenConfig struct {
	SigningSecret string        `mapstructure:"signing_secret"`
	Issuer        string        `mapstructure:"issuer" validate:"required"`
	DefaultExpiry time.Duration `mapstructure:"default_expiry" validate:"gt=0"`
	MinExpiry     time.Duration `mapstructure:"min_expiry" validate:"gt=0"`
	MaxExpiry     time.Duration `mapstructure:"max_expiry" validate:"gt=0"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"min=1"`
}

// ThrottleConfig holds the process-wide request rate limit. A zero rate disables throttling.
type ThrottleConfig struct {
	RatePerSecond float64 `mapstructure:"rate_per_second" validate:"gte=0"`
	Burst         int     `mapstructure:"burst" validate:"gte=0"`
}

// Enabled reports whether throttling is configured.
func (t *ThrottleConfig) Enabled() bool {
	return t.RatePerSecond > 0
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// maxGrantExpiry is the longest lifetime an object store accepts for a presigned request.
const maxGrantExpiry = 7 * 24 * time.Hour

// Validate checks field constraints and the cross-field invariants between thresholds.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var errs []error
	limit := c.Upload.PlatformPayloadCeiling - c.Upload.SafetyMargin
	if c.Upload.EncodedLimit() > limit {
		errs = append(errs, fmt.Errorf(
			"upload.inline_threshold %d is above ceiling %d minus margin %d",
			c.Upload.EncodedLimit(), c.Upload.PlatformPayloadCeiling, c.Upload.SafetyMargin))
	}
	if c.Upload.DecodedLimit() > c.Storage.MaxObjectSize {
		errs = append(errs, errors.New("upload.inline_threshold must not exceed storage.max_object_size"))
	}
	if c.Token.MinExpiry > c.Token.MaxExpiry {
		errs = append(errs, errors.New("token.min_expiry must not exceed token.max_expiry"))
	}
	if c.Token.MaxExpiry > maxGrantExpiry {
		errs = append(errs, fmt.Errorf("token.max_expiry must not exceed %s", maxGrantExpiry))
	}
	if c.Token.DefaultExpiry < c.Token.MinExpiry || c.Token.DefaultExpiry > c.Token.MaxExpiry {
		errs = append(errs, errors.New("token.default_expiry must lie within [min_expiry, max_expiry]"))
	}
	if c.Server.DeadlineSafety >= c.Server.RequestBudget {
		errs = append(errs, errors.New("server.deadline_safety must be shorter than server.request_budget"))
	}
	if c.Throttle.Enabled() && c.Throttle.Burst < 1 {
		errs = append(errs, errors.New("throttle.burst must be at least 1 when throttling is enabled"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables with the UPLOADGW_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("UPLOADGW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "35s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.request_budget", "29s")
	v.SetDefault("server.deadline_safety", "2s")

	// Storage defaults
	v.SetDefault("storage.provider", "s3")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", "uploadgw-uploads")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.key_prefix", "")
	v.SetDefault("storage.deferred_prefix", "")
	v.SetDefault("storage.max_object_size", int64(5*1024*mib))
	v.SetDefault("storage.sse", "AES256")

	// Upload defaults
	v.SetDefault("upload.inline_threshold", int64(6*mib))
	v.SetDefault("upload.encoding_overhead", 4.0/3.0)
	v.SetDefault("upload.platform_payload_ceiling", int64(10*mib))
	v.SetDefault("upload.safety_margin", int64(mib))
	v.SetDefault("upload.allowed_content_types", "application/pdf,image/jpeg,image/png")

	// Token defaults
	v.SetDefault("token.signing_secret", "")
	v.SetDefault("token.issuer", "uploadgw")
	v.SetDefault("token.default_expiry", "1h")
	v.SetDefault("token.min_expiry", "60s")
	v.SetDefault("token.max_expiry", "168h")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Throttle defaults
	v.SetDefault("throttle.rate_per_second", 50)
	v.SetDefault("throttle.burst", 100)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                     "UPLOADGW_SERVER_PORT",
		"server.read_timeout":             "UPLOADGW_SERVER_READ_TIMEOUT",
		"server.write_timeout":            "UPLOADGW_SERVER_WRITE_TIMEOUT",
		"server.shutdown_timeout":         "UPLOADGW_SERVER_SHUTDOWN_TIMEOUT",
		"server.environment":              "UPLOADGW_SERVER_ENVIRONMENT",
		"server.request_budget":           "UPLOADGW_SERVER_REQUEST_BUDGET",
		"server.deadline_safety":          "UPLOADGW_SERVER_DEADLINE_SAFETY",
		"storage.provider":                "UPLOADGW_STORAGE_PROVIDER",
		"storage.region":                  "UPLOADGW_STORAGE_REGION",
		"storage.bucket":                  "UPLOADGW_STORAGE_BUCKET",
		"storage.endpoint":                "UPLOADGW_STORAGE_ENDPOINT",
		"storage.access_key":              "UPLOADGW_STORAGE_ACCESS_KEY",
		"storage.secret_key":              "UPLOADGW_STORAGE_SECRET_KEY",
		"storage.use_ssl":                 "UPLOADGW_STORAGE_USE_SSL",
		"storage.key_prefix":              "UPLOADGW_STORAGE_KEY_PREFIX",
		"storage.deferred_prefix":         "UPLOADGW_STORAGE_DEFERRED_PREFIX",
		"storage.max_object_size":         "UPLOADGW_STORAGE_MAX_OBJECT_SIZE",
		"storage.sse":                     "UPLOADGW_STORAGE_SSE",
		"upload.inline_threshold":         "UPLOADGW_UPLOAD_INLINE_THRESHOLD",
		"upload.encoding_overhead":        "UPLOADGW_UPLOAD_ENCODING_OVERHEAD",
		"upload.platform_payload_ceiling": "UPLOADGW_UPLOAD_PLATFORM_PAYLOAD_CEILING",
		"upload.safety_margin":            "UPLOADGW_UPLOAD_SAFETY_MARGIN",
		"upload.allowed_content_types":    "UPLOADGW_UPLOAD_ALLOWED_CONTENT_TYPES",
		"token.signing_secret":            "UPLOADGW_TOKEN_SIGNING_SECRET",
		"token.issuer":                    "UPLOADGW_TOKEN_ISSUER",
		"token.default_expiry":            "UPLOADGW_TOKEN_DEFAULT_EXPIRY",
		"token.min_expiry":                "UPLOADGW_TOKEN_MIN_EXPIRY",
		"token.max_expiry":                "UPLOADGW_TOKEN_MAX_EXPIRY",
		"cors.allowed_origins":            "UPLOADGW_CORS_ALLOWED_ORIGINS",
		"throttle.rate_per_second":        "UPLOADGW_THROTTLE_RATE_PER_SECOND",
		"throttle.burst":                  "UPLOADGW_THROTTLE_BURST",
		"log.level":                       "UPLOADGW_LOG_LEVEL",
		"log.format":                      "UPLOADGW_LOG_FORMAT",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Hosting platforms set PORT. Use it if UPLOADGW_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("UPLOADGW_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:            serverPort,
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		Environment:     v.GetString("server.environment"),
		RequestBudget:   v.GetDuration("server.request_budget"),
		DeadlineSafety:  v.GetDuration("server.deadline_safety"),
	}
	cfg.Storage = StorageConfig{
		Provider:             v.GetString("storage.provider"),
		Region:               v.GetString("storage.region"),
		Bucket:               v.GetString("storage.bucket"),
		Endpoint:             v.GetString("storage.endpoint"),
		AccessKey:            v.GetString("storage.access_key"),
		SecretKey:            v.GetString("storage.secret_key"),
		UseSSL:               v.GetBool("storage.use_ssl"),
		KeyPrefix:            v.GetString("storage.key_prefix"),
		DeferredPrefix:       v.GetString("storage.deferred_prefix"),
		MaxObjectSize:        v.GetInt64("storage.max_object_size"),
		ServerSideEncryption: v.GetString("storage.sse"),
	}
	cfg.Upload = UploadConfig{
		InlineThreshold:        v.GetInt64("upload.inline_threshold"),
		EncodingOverhead:       v.GetFloat64("upload.encoding_overhead"),
		PlatformPayloadCeiling: v.GetInt64("upload.platform_payload_ceiling"),
		SafetyMargin:           v.GetInt64("upload.safety_margin"),
		AllowedContentTypes:    splitList(v.GetString("upload.allowed_content_types")),
	}
	cfg.Token = TokenConfig{
		SigningSecret: v.GetString("token.signing_secret"),
		Issuer:        v.GetString("token.issuer"),
		DefaultExpiry: v.GetDuration("token.default_expiry"),
		MinExpiry:     v.GetDuration("token.min_expiry"),
		MaxExpiry:     v.GetDuration("token.max_expiry"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Throttle = ThrottleConfig{
		RatePerSecond: v.GetFloat64("throttle.rate_per_second"),
		Burst:         v.GetInt("throttle.burst"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	if err := applyLegacyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyLegacyEnv honours the variable names used by the earlier function deployment
// when the prefixed equivalents are not set.
func applyLegacyEnv(cfg *Config) error {
	if bucket := os.Getenv("S3_BUCKET_NAME"); bucket != "" && os.Getenv("UPLOADGW_STORAGE_BUCKET") == "" {
		cfg.Storage.Bucket = bucket
	}
	if raw := os.Getenv("PRESIGNED_URL_EXPIRY"); raw != "" && os.Getenv("UPLOADGW_TOKEN_DEFAULT_EXPIRY") == "" {
		secs, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parsing PRESIGNED_URL_EXPIRY: %w", err)
		}
		cfg.Token.DefaultExpiry = time.Duration(secs) * time.Second
	}
	if raw := os.Getenv("MAX_FILE_SIZE_MB"); raw != "" && os.Getenv("UPLOADGW_UPLOAD_INLINE_THRESHOLD") == "" {
		mb, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing MAX_FILE_SIZE_MB: %w", err)
		}
		// Applied as the wire limit; the decoded cap follows from EncodingOverhead.
		cfg.Upload.InlineThreshold = mb * mib
	}
	return nil
}

// splitList parses a comma-separated string, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
