package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/causa/internal/common"
	"github.com/ternarybob/causa/internal/interfaces"
	"github.com/ternarybob/causa/internal/models"
)

// UnavailableMarker is returned as the extracted text when no OCR provider is
// configured. The asset still resolves to ready with zero confidence so the
// degradation is visible rather than fatal.
const UnavailableMarker = "[unavailable]"

// ocrPrompt instructs the vision model to transcribe verbatim and append a
// structured document profile after a fixed marker line.
const ocrPrompt = `Transcribe all text in this document image verbatim.
Preserve reading order; for multi-column layouts transcribe column by column.
Mark characters you cannot read with [?] rather than guessing.
If the image contains no text, respond with exactly: NO TEXT FOUND

After the transcription, add a line containing exactly:
[DOCUMENT PROFILE]
followed by a JSON object with these fields:
{"document_type": "...", "language": "...", "text_quality": "clear|partially legible|illegible",
"has_handwriting": false, "has_signatures": false, "has_stamps": false, "has_redactions": false,
"visible_dates": [], "key_entities": [], "sections": []}`

// Dispatcher routes assets to extraction strategies by file kind
type Dispatcher struct {
	config *common.ExtractionConfig
	llm    interfaces.LLMService // nil when no OCR provider is configured
	pdf    *pdfStrategy
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.Extractor = (*Dispatcher)(nil)

// NewDispatcher creates an extraction dispatcher. llm may be nil; OCR paths
// then degrade to the unavailable marker instead of failing assets.
func NewDispatcher(config *common.ExtractionConfig, llm interfaces.LLMService, logger arbor.ILogger) *Dispatcher {
	return &Dispatcher{
		config: config,
		llm:    llm,
		pdf:    newPDFStrategy(logger),
		logger: logger,
	}
}

// Extract runs the strategy for the detected file kind. Unrecognized kinds
// return a sentinel empty result with zero confidence rather than an error.
func (d *Dispatcher) Extract(ctx context.Context, filePath string, kind models.FileKind) (*interfaces.ExtractionResult, error) {
	switch kind {
	case models.FileKindPDF:
		return d.extractPDF(ctx, filePath)
	case models.FileKindImage:
		return d.extractImage(ctx, filePath)
	case models.FileKindDoc:
		return d.extractDoc(filePath)
	case models.FileKindText, models.FileKindEmail:
		return d.extractPlain(filePath, kind)
	default:
		d.logger.Warn().Str("kind", string(kind)).Str("path", filePath).Msg("Unrecognized file kind, returning empty result")
		return &interfaces.ExtractionResult{
			Method:     models.MethodExtractedText,
			Confidence: ptr(0.0),
			Provider:   "none",
		}, nil
	}
}

// extractPDF extracts embedded text and falls back to per-page OCR when the
// result is short enough to suggest a scanned document.
func (d *Dispatcher) extractPDF(ctx context.Context, filePath string) (*interfaces.ExtractionResult, error) {
	text, pageCount, err := d.pdf.extractText(ctx, filePath)
	if err != nil {
		return nil, err
	}

	if len(strings.TrimSpace(text)) >= d.config.MinPDFTextLength {
		return &interfaces.ExtractionResult{
			Text:       text,
			Method:     models.MethodExtractedText,
			Confidence: ptr(0.95),
			PageCount:  pageCount,
			Provider:   "pdfcpu",
		}, nil
	}

	// Likely a scanned PDF; hand the file to the vision model as an image.
	// pdfcpu cannot rasterize pages, so the whole file goes in one request.
	d.logger.Debug().
		Str("path", filePath).
		Int("text_length", len(text)).
		Msg("PDF text below threshold, falling back to OCR")

	result, err := d.ocrFile(ctx, filePath, "application/pdf")
	if err != nil {
		return nil, err
	}
	if result.PageCount == 0 {
		result.PageCount = pageCount
	}
	return result, nil
}

func (d *Dispatcher) extractImage(ctx context.Context, filePath string) (*interfaces.ExtractionResult, error) {
	return d.ocrFile(ctx, filePath, ImageMediaType(filePath))
}

// ocrFile sends file bytes to the vision model and parses the two-part
// transcription/profile response.
func (d *Dispatcher) ocrFile(ctx context.Context, filePath, mediaType string) (*interfaces.ExtractionResult, error) {
	if d.llm == nil {
		d.logger.Warn().Str("path", filePath).Msg("No OCR provider configured, marking text unavailable")
		return &interfaces.ExtractionResult{
			Text:       UnavailableMarker,
			Method:     models.MethodOCR,
			Confidence: ptr(0.0),
			Provider:   "none",
		}, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file for OCR: %w", err)
	}

	ocrCtx, cancel := context.WithTimeout(ctx, d.config.OCRTimeoutDuration())
	defer cancel()

	response, err := d.llm.TranscribeImage(ocrCtx, data, mediaType, ocrPrompt)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	text, profile := ParseOCRResponse(response)

	if strings.EqualFold(strings.TrimSpace(text), "NO TEXT FOUND") {
		// Empty text, not a placeholder string
		return &interfaces.ExtractionResult{
			Method:     models.MethodOCR,
			Confidence: ptr(0.1),
			Provider:   d.llm.Name(),
			Profile:    profile,
		}, nil
	}

	confidence := d.config.ConfidenceOther
	if profile != nil {
		confidence = ConfidenceForQuality(profile.TextQuality, d.config.ConfidenceClear, d.config.ConfidencePartly, d.config.ConfidenceOther)
	}

	return &interfaces.ExtractionResult{
		Text:       text,
		Method:     models.MethodOCR,
		Confidence: ptr(confidence),
		Provider:   d.llm.Name(),
		Profile:    profile,
	}, nil
}

func (d *Dispatcher) extractDoc(filePath string) (*interfaces.ExtractionResult, error) {
	if strings.ToLower(filepath.Ext(filePath)) != ".docx" {
		// Legacy binary formats have no Go-native reader in this stack
		return &interfaces.ExtractionResult{
			Method:     models.MethodExtractedText,
			Confidence: ptr(0.0),
			Provider:   "none",
		}, nil
	}

	text, err := readDocx(filePath)
	if err != nil {
		return nil, err
	}

	return &interfaces.ExtractionResult{
		Text:       text,
		Method:     models.MethodExtractedText,
		Confidence: ptr(0.95),
		Provider:   "docx",
	}, nil
}

func (d *Dispatcher) extractPlain(filePath string, kind models.FileKind) (*interfaces.ExtractionResult, error) {
	var text string
	var err error
	provider := "text"

	if kind == models.FileKindEmail {
		provider = "email"
		text, err = readEmail(filePath)
		if err != nil {
			// A malformed message still has readable raw bytes
			d.logger.Warn().Err(err).Str("path", filePath).Msg("Email parse failed, reading raw content")
			text, err = readPlainText(filePath)
		}
	} else {
		text, err = readPlainText(filePath)
	}
	if err != nil {
		return nil, err
	}

	return &interfaces.ExtractionResult{
		Text:       text,
		Method:     models.MethodExtractedText,
		Confidence: ptr(1.0),
		Provider:   provider,
	}, nil
}

func ptr(f float64) *float64 {
	return &f
}
