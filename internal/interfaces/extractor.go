package interfaces

import (
	"context"

	"github.com/ternarybob/causa/internal/models"
)

// ExtractionResult is the outcome of running one extraction strategy
type ExtractionResult struct {
	Text       string
	Method     models.ExtractionMethod
	Confidence *float64 // nil when not applicable
	PageCount  int
	Provider   string                  // Strategy or OCR provider name, for audit records
	Profile    *models.DocumentProfile // Present for OCR'd images when the model returned one
}

// Extractor routes an asset's stored file to an extraction strategy based on
// its detected file kind. Unrecognized kinds yield a sentinel empty result
// with zero confidence, not an error. A missing OCR provider yields an
// explicit "[unavailable]" marker with zero confidence so the asset still
// resolves to ready with a clearly low-trust result.
type Extractor interface {
	Extract(ctx context.Context, filePath string, kind models.FileKind) (*ExtractionResult, error)
}
