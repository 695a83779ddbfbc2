package summary

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-pdf/fpdf"
)

// RenderPDF renders the matter's scan summary as a one-page PDF report
func (s *Service) RenderPDF(ctx context.Context, matterID string) ([]byte, error) {
	summary, err := s.Summarize(ctx, matterID)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Scan Summary %s", matterID), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Document Scan Summary")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Matter: %s", matterID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", summary.GeneratedAt.Format(time.RFC1123)))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Overview")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Total files: %d", summary.TotalFiles))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total pages: %d", summary.TotalPages))
	pdf.Ln(5)
	if summary.DateFrom != nil && summary.DateTo != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Upload range: %s to %s",
			summary.DateFrom.Format("2006-01-02"), summary.DateTo.Format("2006-01-02")))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Files by type")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 10)
	for _, kind := range sortedKeys(summary.FileTypes) {
		pdf.Cell(0, 6, fmt.Sprintf("%s: %d", kind, summary.FileTypes[kind]))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Status")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 10)
	for _, status := range sortedKeys(summary.StatusCounts) {
		pdf.Cell(0, 6, fmt.Sprintf("%s: %d", status, summary.StatusCounts[status]))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Extraction confidence")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("High: %d    Medium: %d    Low: %d    Unknown: %d",
		summary.Confidence.High, summary.Confidence.Medium,
		summary.Confidence.Low, summary.Confidence.Unknown))
	pdf.Ln(9)

	if len(summary.ProblemFiles) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, fmt.Sprintf("Problem files (%d)", len(summary.ProblemFiles)))
		pdf.Ln(7)
		pdf.SetFont("Helvetica", "", 9)
		for _, problem := range summary.ProblemFiles {
			pdf.MultiCell(0, 5, fmt.Sprintf("%s: %s", problem.OriginalName, problem.Reason), "", "L", false)
			pdf.Ln(1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
