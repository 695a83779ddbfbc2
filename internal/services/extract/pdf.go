package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
)

// pdfStrategy extracts embedded text from PDFs using pdfcpu
type pdfStrategy struct {
	tempDir string
	logger  arbor.ILogger
}

func newPDFStrategy(logger arbor.ILogger) *pdfStrategy {
	tempDir := filepath.Join(os.TempDir(), "causa-pdf")
	os.MkdirAll(tempDir, 0755)
	return &pdfStrategy{tempDir: tempDir, logger: logger}
}

// extractText returns the concatenated page texts and the page count
func (p *pdfStrategy) extractText(ctx context.Context, filePath string) (string, int, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(filePath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read PDF context: %w", err)
	}
	pageCount := pdfCtx.PageCount

	outDir := filepath.Join(p.tempDir, "pages_"+uuid.New().String())
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", pageCount, fmt.Errorf("failed to create extraction directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(filePath, outDir, nil, conf); err != nil {
		p.logger.Warn().Err(err).Str("path", filePath).Msg("PDF content extraction failed")
		return "", pageCount, nil
	}

	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		} else if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		}
	}

	var text string
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		if pageText, ok := pageTexts[pageNum]; ok {
			if text != "" {
				text += "\n\n"
			}
			text += pageText
		}
	}

	return text, pageCount, nil
}
