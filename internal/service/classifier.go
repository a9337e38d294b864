package service

import (
	"mime"
	"strings"

	"uploadgw/internal/domain"
)

// Classifier decides between inline and deferred handling. It holds only
// immutable configuration and is safe for concurrent use.
type Classifier struct {
	threshold int64
	allowed   map[string]struct{}
}

// NewClassifier creates a Classifier for the given inline threshold (decoded bytes)
// and content-type allow-list.
func NewClassifier(inlineThreshold int64, allowedContentTypes []string) *Classifier {
	allowed := make(map[string]struct{}, len(allowedContentTypes))
	for _, ct := range allowedContentTypes {
		allowed[NormalizeContentType(ct)] = struct{}{}
	}
	return &Classifier{threshold: inlineThreshold, allowed: allowed}
}

// Threshold returns the inline threshold in decoded bytes.
func (c *Classifier) Threshold() int64 {
	return c.threshold
}

// Allowed reports whether contentType is on the allow-list.
func (c *Classifier) Allowed(contentType string) bool {
	_, ok := c.allowed[NormalizeContentType(contentType)]
	return ok
}

// Classify is pure: the same inputs always produce the same decision.
func (c *Classifier) Classify(declaredSize *int64, contentType string, hasInlineBody bool) (domain.RoutingDecision, error) {
	if !c.Allowed(contentType) {
		return domain.RoutingDecision{}, domain.ErrUnsupportedContentType
	}
	if declaredSize == nil {
		if !hasInlineBody {
			return domain.RoutingDecision{}, domain.ErrMissingSizeHint
		}
		return domain.RoutingDecision{Route: domain.RouteInline, Reason: domain.ReasonSizeFromBody}, nil
	}
	if *declaredSize > c.threshold {
		return domain.RoutingDecision{Route: domain.RouteDeferred, Reason: domain.ReasonAboveThreshold}, nil
	}
	return domain.RoutingDecision{Route: domain.RouteInline, Reason: domain.ReasonWithinThreshold}, nil
}

// NormalizeContentType lowercases a media type and strips its parameters.
func NormalizeContentType(ct string) string {
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mediaType
}
