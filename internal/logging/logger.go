package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"uploadgw/internal/config"
)

type loggerKey struct{}

var nopLogger = zerolog.Nop()

func init() {
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return filepath.Base(file) + ":" + strconv.Itoa(line)
	}
}

// New builds the process logger from config. Unknown levels fall back to info.
func New(cfg config.LogConfig) zerolog.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with an explicit sink.
func NewWithWriter(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		With().
		Timestamp().
		Str("service", "uploadgw").
		Caller().
		Logger().
		Level(level)
}

// Ctx returns the request-scoped logger, or a no-op logger if none was attached.
func Ctx(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &nopLogger
	}
	if l, ok := ctx.Value(loggerKey{}).(*zerolog.Logger); ok {
		return l
	}
	return &nopLogger
}

// WithLogger attaches logger to ctx.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}
