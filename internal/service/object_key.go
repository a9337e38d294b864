package service

import (
	"encoding/hex"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"uploadgw/internal/domain"
)

const maxExtLen = 8

// KeyGenerator builds object keys from the clock and a random suffix. Client
// input only ever contributes a sanitized extension.
type KeyGenerator struct {
	now    func() time.Time
	random func() uuid.UUID
}

// NewKeyGenerator creates a KeyGenerator. Nil arguments fall back to time.Now and uuid.New.
func NewKeyGenerator(now func() time.Time, random func() uuid.UUID) *KeyGenerator {
	if now == nil {
		now = time.Now
	}
	if random == nil {
		random = uuid.New
	}
	return &KeyGenerator{now: now, random: random}
}

// Generate returns prefix + "YYYYMMDD_HHMMSS_<16 hex>.<ext>".
func (g *KeyGenerator) Generate(prefix, filename, contentType string) string {
	id := g.random()
	return prefix + g.now().UTC().Format("20060102_150405") + "_" + hex.EncodeToString(id[:8]) + "." + ExtensionFor(filename, contentType)
}

// ExtensionFor picks the key extension. The filename's extension is used only
// when it is a known extension for contentType; otherwise the canonical one is.
func ExtensionFor(filename, contentType string) string {
	canonical := string(domain.AllowedContentTypes[contentType])
	if canonical == "" {
		canonical = "bin"
	}

	ext := sanitizeExt(filepath.Ext(filepath.Base(filename)))
	if ft, ok := domain.AllowedExtensions[ext]; ok && string(ft) == canonical {
		return ext
	}
	return canonical
}

func sanitizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	var b strings.Builder
	for _, r := range ext {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > maxExtLen {
		out = out[:maxExtLen]
	}
	return out
}
