package service

import (
	"net/http"

	"uploadgw/internal/domain"
)

const sniffLen = 512

// InspectContent checks the payload's magic bytes against the declared type.
// The declared Content-Type header is never trusted on its own.
func InspectContent(declared string, payload []byte) (domain.ContentTrust, error) {
	head := payload
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	detected := NormalizeContentType(http.DetectContentType(head))
	if detected != NormalizeContentType(declared) {
		return domain.ContentDeclaredOnly, domain.ErrContentValidationFailed
	}
	return domain.ContentTrusted, nil
}
