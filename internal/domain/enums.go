package domain

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// Content types accepted by default.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: ContentTypePDF,
	FileTypeJPG: ContentTypeJPEG,
	FileTypePNG: ContentTypePNG,
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	ContentTypePDF:  FileTypePDF,
	ContentTypeJPEG: FileTypeJPG,
	ContentTypePNG:  FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// Route is the path a request takes through the gateway.
type Route string

const (
	RouteInline   Route = "inline"
	RouteDeferred Route = "deferred"
)

// RouteReason records why the classifier chose a route.
type RouteReason string

const (
	ReasonWithinThreshold RouteReason = "size_within_threshold"
	ReasonAboveThreshold  RouteReason = "size_above_threshold"
	ReasonSizeFromBody    RouteReason = "size_from_body"
)

// ContentTrust tags how far a content type has been verified.
type ContentTrust string

const (
	// ContentTrusted means the payload's magic bytes matched the declared type.
	ContentTrusted ContentTrust = "trusted"
	// ContentDeclaredOnly means only the client's declaration is known (deferred uploads).
	ContentDeclaredOnly ContentTrust = "declared_only"
)
