package handler

import "time"

// Response bodies for the upload endpoints. They double as swag definitions.

// PresignedUploadResponse is returned by GET /upload.
type PresignedUploadResponse struct {
	UploadURL string            `json:"uploadUrl" example:"https://uploads.s3.amazonaws.com/"`
	Fields    map[string]string `json:"fields"`
	Key       string            `json:"key" example:"20261015_093000_4f1c2a9be07d3c55.pdf"`
	ExpiresAt time.Time         `json:"expiresAt" example:"2026-10-15T10:30:00Z"`
}

// InlineUploadResponse is returned by POST /upload.
type InlineUploadResponse struct {
	Message  string `json:"message" example:"File uploaded successfully"`
	Filename string `json:"filename" example:"20261015_093000_4f1c2a9be07d3c55.pdf"`
	Size     int64  `json:"size" example:"524288"`
}
