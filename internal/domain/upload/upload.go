package upload

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// MaxFileSize is inclusive.
const MaxFileSize int64 = 5 * 1024 * 1024

const SniffLen = 512

// RejectReason explains why one file part was dropped.
type RejectReason string

const (
	ReasonBadExtension RejectReason = "bad_extension"
	ReasonTooLarge     RejectReason = "too_large"
	ReasonUploadError  RejectReason = "upload_error"
	ReasonStorageError RejectReason = "storage_error"
	ReasonBadContent   RejectReason = "bad_content"
)

// Subdirectories of the upload root.
const (
	SubdirReports    = "reports"
	SubdirGISMarkers = "gis_markers"
)

var allowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"webp": {},
}

// Extension returns the lowercased extension without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(strings.TrimSpace(name)), "."))
}

func IsAllowedExtension(name string) bool {
	_, ok := allowedExtensions[Extension(name)]
	return ok
}

// CheckPart applies the extension then the size rule.
func CheckPart(name string, size int64) (RejectReason, bool) {
	if !IsAllowedExtension(name) {
		return ReasonBadExtension, false
	}
	if size < 0 || size > MaxFileSize {
		return ReasonTooLarge, false
	}
	return "", true
}

// IsImageContentType accepts what http.DetectContentType reports for images.
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

// StoredName builds <ownerId>_<index>_<unixTimestamp>.<ext>.
func StoredName(ownerID string, index int, at time.Time, originalName string) string {
	return fmt.Sprintf("%s_%d_%d.%s", sanitizeOwner(ownerID), index, at.Unix(), Extension(originalName))
}

func sanitizeOwner(ownerID string) string {
	trimmed := strings.TrimSpace(ownerID)
	if trimmed == "" {
		return "anonymous"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '-'
		}
	}, trimmed)
}
