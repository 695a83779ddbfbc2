package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/causa/internal/common"
	"github.com/ternarybob/causa/internal/interfaces"
	"github.com/ternarybob/causa/internal/models"
)

func testExtractionConfig() *common.ExtractionConfig {
	return &common.ExtractionConfig{
		MinPDFTextLength: 100,
		ChunkSize:        4000,
		ChunkOverlap:     400,
		OCRTimeout:       "5s",
		ConfidenceClear:  0.9,
		ConfidencePartly: 0.7,
		ConfidenceOther:  0.5,
	}
}

// fakeVision is an LLMService stub returning a canned OCR response
type fakeVision struct {
	response string
	err      error
}

func (f *fakeVision) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	return f.response, f.err
}

func (f *fakeVision) TranscribeImage(ctx context.Context, imageData []byte, mediaType string, prompt string) (string, error) {
	return f.response, f.err
}

func (f *fakeVision) Name() string { return "fake" }
func (f *fakeVision) Close() error { return nil }

func TestExtractPlainText(t *testing.T) {
	content := "Alpha\nBeta\nGamma"
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d := NewDispatcher(testExtractionConfig(), nil, arbor.NewLogger())
	result, err := d.Extract(context.Background(), path, models.FileKindText)
	require.NoError(t, err)

	assert.Equal(t, models.MethodExtractedText, result.Method)
	require.NotNil(t, result.Confidence)
	assert.Equal(t, 1.0, *result.Confidence)
	assert.Equal(t, content, result.Text, "plain text must be byte-faithful")
}

func TestExtractUnknownKind(t *testing.T) {
	d := NewDispatcher(testExtractionConfig(), nil, arbor.NewLogger())

	result, err := d.Extract(context.Background(), "whatever.bin", models.FileKindOther)
	require.NoError(t, err, "unrecognized kinds must not error")

	assert.Empty(t, result.Text)
	require.NotNil(t, result.Confidence)
	assert.Equal(t, 0.0, *result.Confidence)
}

func TestExtractImageWithoutProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(path, []byte("not really a png"), 0o644))

	d := NewDispatcher(testExtractionConfig(), nil, arbor.NewLogger())
	result, err := d.Extract(context.Background(), path, models.FileKindImage)
	require.NoError(t, err, "missing OCR provider must degrade, not fail")

	assert.Equal(t, UnavailableMarker, result.Text)
	assert.Equal(t, models.MethodOCR, result.Method)
	require.NotNil(t, result.Confidence)
	assert.Equal(t, 0.0, *result.Confidence)
}

func TestExtractImageWithProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(path, []byte("fake image bytes"), 0o644))

	llm := &fakeVision{response: "Invoice No. 42\n[DOCUMENT PROFILE]\n{\"text_quality\": \"clear\", \"document_type\": \"invoice\"}"}
	d := NewDispatcher(testExtractionConfig(), llm, arbor.NewLogger())

	result, err := d.Extract(context.Background(), path, models.FileKindImage)
	require.NoError(t, err)

	assert.Equal(t, "Invoice No. 42", result.Text)
	assert.Equal(t, models.MethodOCR, result.Method)
	assert.Equal(t, "fake", result.Provider)
	require.NotNil(t, result.Confidence)
	assert.Equal(t, 0.9, *result.Confidence)
	require.NotNil(t, result.Profile)
	assert.Equal(t, "invoice", result.Profile.DocumentType)
}

func TestExtractImageNoTextFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.png")
	require.NoError(t, os.WriteFile(path, []byte("fake image bytes"), 0o644))

	llm := &fakeVision{response: "NO TEXT FOUND"}
	d := NewDispatcher(testExtractionConfig(), llm, arbor.NewLogger())

	result, err := d.Extract(context.Background(), path, models.FileKindImage)
	require.NoError(t, err)

	assert.Empty(t, result.Text, "the placeholder must not leak into extracted text")
	require.NotNil(t, result.Confidence)
	assert.Equal(t, 0.1, *result.Confidence)
}

func TestExtractEmailFallsBackToRaw(t *testing.T) {
	// Not a valid RFC 822 message; the raw bytes are still the text
	content := "this is not an email at all"
	path := filepath.Join(t.TempDir(), "broken.eml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d := NewDispatcher(testExtractionConfig(), nil, arbor.NewLogger())
	result, err := d.Extract(context.Background(), path, models.FileKindEmail)
	require.NoError(t, err)

	assert.Equal(t, content, result.Text)
	require.NotNil(t, result.Confidence)
	assert.Equal(t, 1.0, *result.Confidence)
}

func TestExtractEmailHeadersAndBody(t *testing.T) {
	content := "From: alice@example.com\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: Settlement terms\r\n" +
		"Date: Mon, 02 Jan 2006 15:04:05 -0700\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"Please review the attached terms.\r\n"
	path := filepath.Join(t.TempDir(), "mail.eml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d := NewDispatcher(testExtractionConfig(), nil, arbor.NewLogger())
	result, err := d.Extract(context.Background(), path, models.FileKindEmail)
	require.NoError(t, err)

	assert.Contains(t, result.Text, "alice@example.com")
	assert.Contains(t, result.Text, "Settlement terms")
	assert.Contains(t, result.Text, "Please review the attached terms.")
}

func TestExtractLegacyDocSentinel(t *testing.T) {
	d := NewDispatcher(testExtractionConfig(), nil, arbor.NewLogger())

	result, err := d.Extract(context.Background(), "old.doc", models.FileKindDoc)
	require.NoError(t, err)

	assert.Empty(t, result.Text)
	require.NotNil(t, result.Confidence)
	assert.Equal(t, 0.0, *result.Confidence)
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		mimeType string
		expected models.FileKind
	}{
		{"pdf extension", "brief.pdf", "", models.FileKindPDF},
		{"image extension", "scan.PNG", "", models.FileKindImage},
		{"docx extension", "contract.docx", "", models.FileKindDoc},
		{"text extension", "notes.txt", "", models.FileKindText},
		{"email extension", "thread.eml", "", models.FileKindEmail},
		{"extension wins over mime", "scan.png", "application/pdf", models.FileKindImage},
		{"mime fallback pdf", "upload", "application/pdf", models.FileKindPDF},
		{"mime fallback image", "upload", "image/jpeg", models.FileKindImage},
		{"mime fallback email", "upload", "message/rfc822", models.FileKindEmail},
		{"nothing recognized", "blob", "application/octet-stream", models.FileKindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectKind(tt.filename, tt.mimeType))
		})
	}
}
