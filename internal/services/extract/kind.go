package extract

import (
	"path/filepath"
	"strings"

	"github.com/ternarybob/causa/internal/models"
)

// DetectKind maps a filename and MIME type to an extraction file kind.
// Extension wins when recognized; the MIME type breaks ties for bare names.
func DetectKind(filename, mimeType string) models.FileKind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return models.FileKindPDF
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tif", ".tiff":
		return models.FileKindImage
	case ".doc", ".docx", ".odt", ".rtf":
		return models.FileKindDoc
	case ".txt", ".md", ".csv", ".log":
		return models.FileKindText
	case ".eml", ".msg":
		return models.FileKindEmail
	}

	switch {
	case mimeType == "application/pdf":
		return models.FileKindPDF
	case strings.HasPrefix(mimeType, "image/"):
		return models.FileKindImage
	case mimeType == "message/rfc822":
		return models.FileKindEmail
	case strings.HasPrefix(mimeType, "text/"):
		return models.FileKindText
	case strings.Contains(mimeType, "msword"), strings.Contains(mimeType, "wordprocessingml"):
		return models.FileKindDoc
	}

	return models.FileKindOther
}

// ImageMediaType returns the MIME type to send with a vision OCR request
func ImageMediaType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
