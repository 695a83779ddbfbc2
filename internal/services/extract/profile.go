package extract

import (
	"encoding/json"
	"strings"

	"github.com/ternarybob/causa/internal/models"
)

// profileMarker separates the transcription block from the document profile
// block in a vision OCR response. The response grammar is two named sections
// in fixed order: verbatim transcription first, then the marker line, then a
// JSON profile object.
const profileMarker = "[DOCUMENT PROFILE]"

// ParseOCRResponse splits a two-part OCR response into transcription text and
// an optional document profile. When the marker is absent the whole response
// is treated as plain transcription and the profile is nil.
func ParseOCRResponse(response string) (string, *models.DocumentProfile) {
	idx := strings.Index(response, profileMarker)
	if idx < 0 {
		return strings.TrimSpace(response), nil
	}

	text := strings.TrimSpace(response[:idx])
	profileBlock := strings.TrimSpace(response[idx+len(profileMarker):])

	profile := parseProfileBlock(profileBlock)
	return text, profile
}

// parseProfileBlock parses the JSON profile object, tolerating code fences
// and leading prose around the first balanced object.
func parseProfileBlock(block string) *models.DocumentProfile {
	start := strings.Index(block, "{")
	end := strings.LastIndex(block, "}")
	if start < 0 || end <= start {
		return nil
	}

	var profile models.DocumentProfile
	if err := json.Unmarshal([]byte(block[start:end+1]), &profile); err != nil {
		return nil
	}
	return &profile
}

// ConfidenceForQuality maps an OCR text-quality label to a confidence score.
// The mapping is a tuning decision kept centralized here and overridable via
// extraction config.
func ConfidenceForQuality(quality string, clear, partly, other float64) float64 {
	switch strings.ToLower(strings.TrimSpace(quality)) {
	case "clear":
		return clear
	case "partially legible", "partially_legible", "partial":
		return partly
	default:
		return other
	}
}
