package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"uploadgw/internal/config"
	"uploadgw/internal/grant"
	"uploadgw/internal/handler"
	"uploadgw/internal/logging"
	"uploadgw/internal/port"
	"uploadgw/internal/router"
	"uploadgw/internal/service"
	miniostorage "uploadgw/internal/storage/minio"
	s3storage "uploadgw/internal/storage/s3"
)

// @title Upload Gateway API
// @version 1.0
// @description Routes file uploads inline or to direct object store transfer via signed upload grants.
// @BasePath /
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(cfg.Log)
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize storage
	storage, err := newStorage(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize %s storage: %w", cfg.Storage.Provider, err)
	}

	// Initialize grant signing
	key := grant.NewSigningKey(cfg.Token.SigningSecret)
	if !key.Available() {
		logger.Warn().Msg("token.signing_secret is not set; GET /upload will fail until it is configured")
	}
	codec := grant.NewCodec(key, cfg.Token.Issuer, nil)

	// Initialize services
	classifier := service.NewClassifier(cfg.Upload.DecodedLimit(), cfg.Upload.AllowedContentTypes)
	keys := service.NewKeyGenerator(nil, uuid.New)
	inlineSvc := service.NewInlineService(storage, keys, cfg, nil)
	grantSvc := service.NewGrantService(storage, codec, classifier, keys, cfg, nil)

	// Initialize handlers
	uploadH := handler.NewUploadHandler(classifier, inlineSvc, grantSvc, cfg.Upload.EncodedLimit())
	healthH := handler.NewHealthHandler(storage, cfg.Storage.Bucket)

	// Setup router
	r := router.Setup(cfg, logger, uploadH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Server.Port).
			Str("provider", cfg.Storage.Provider).
			Str("bucket", cfg.Storage.Bucket).
			Int64("encoded_limit", cfg.Upload.EncodedLimit()).
			Int64("decoded_limit", cfg.Upload.DecodedLimit()).
			Object("signing_key", key).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	return shutdown(srv, cfg.Server.ShutdownTimeout, logger)
}

func newStorage(cfg *config.StorageConfig) (port.ObjectStorage, error) {
	switch cfg.Provider {
	case "minio":
		return miniostorage.NewMinioClient(cfg)
	default:
		return s3storage.NewS3Client(cfg)
	}
}

func shutdown(srv *http.Server, timeout time.Duration, logger zerolog.Logger) error {
	logger.Info().Dur("timeout", timeout).Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
