package api

import (
	"io"
	"slices"

	"resumetracker/internal/errors"
)

// Accepted resume media types
const (
	MimePDF  = "application/pdf"
	MimeDOC  = "application/msword"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// AllowedMimeTypes lists the media types accepted for upload
var AllowedMimeTypes = []string{MimePDF, MimeDOC, MimeDOCX}

// MaxUploadSize is the default upload limit in bytes
const MaxUploadSize int64 = 5 * 1024 * 1024

// FileUpload is a local document about to be uploaded
type FileUpload struct {
	Name     string
	MimeType string
	Size     int64
	Reader   io.Reader
}

// ValidateUpload checks type then size; limit <= 0 uses MaxUploadSize
func ValidateUpload(file FileUpload, limit int64) error {
	if limit <= 0 {
		limit = MaxUploadSize
	}
	if !slices.Contains(AllowedMimeTypes, file.MimeType) {
		return errors.NewValidationError(errors.ErrCodeInvalidFileType, errors.MsgInvalidFileType, nil).
			WithContext("mime_type", file.MimeType)
	}
	if file.Size > limit {
		return errors.NewValidationError(errors.ErrCodeFileTooLarge, errors.MsgFileTooLarge, nil).
			WithContext("size", file.Size)
	}
	if file.Reader == nil {
		return errors.NewValidationError(errors.ErrCodeFileNotReadable, "File content is not readable", nil)
	}
	return nil
}
