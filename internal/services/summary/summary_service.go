package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/causa/internal/interfaces"
	"github.com/ternarybob/causa/internal/models"
)

// Service computes matter-wide scan statistics. Pure read-side aggregation
// over asset and text records; it never mutates pipeline state.
type Service struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.SummaryService = (*Service)(nil)

// NewService creates a new summary service
func NewService(storage interfaces.StorageManager, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// Summarize aggregates a matter's assets into file/page counts, a confidence
// histogram, status counts, the upload date range, and a problem-file list.
func (s *Service) Summarize(ctx context.Context, matterID string) (*models.ScanSummary, error) {
	assets, err := s.storage.AssetStorage().ListAssets(&interfaces.ListOptions{MatterID: matterID})
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	result := &models.ScanSummary{
		MatterID:     matterID,
		TotalFiles:   len(assets),
		FileTypes:    make(map[string]int),
		StatusCounts: make(map[string]int),
		ProblemFiles: []models.ProblemFile{},
		GeneratedAt:  time.Now(),
	}

	for _, asset := range assets {
		result.FileTypes[string(asset.FileKind)]++
		result.StatusCounts[string(asset.Status)]++
		result.TotalPages += asset.PageCount

		created := asset.CreatedAt
		if result.DateFrom == nil || created.Before(*result.DateFrom) {
			t := created
			result.DateFrom = &t
		}
		if result.DateTo == nil || created.After(*result.DateTo) {
			t := created
			result.DateTo = &t
		}

		s.tally(result, asset)
	}

	return result, nil
}

// tally buckets one asset's confidence and flags it as a problem file when
// it failed, produced near-empty text, or came back with low confidence.
func (s *Service) tally(result *models.ScanSummary, asset *models.Asset) {
	if asset.Status == models.AssetStatusFailed {
		result.Confidence.Unknown++
		result.ProblemFiles = append(result.ProblemFiles, models.ProblemFile{
			AssetID:      asset.ID,
			OriginalName: asset.OriginalName,
			Reason:       fmt.Sprintf("processing failed: %s", asset.Error),
		})
		return
	}
	if asset.Status != models.AssetStatusReady {
		result.Confidence.Unknown++
		return
	}

	text, err := s.storage.TextStorage().GetText(asset.ID)
	if err != nil {
		result.Confidence.Unknown++
		return
	}

	switch {
	case text.Confidence == nil:
		result.Confidence.Unknown++
	case *text.Confidence >= 0.8:
		result.Confidence.High++
	case *text.Confidence >= 0.6:
		result.Confidence.Medium++
	default:
		result.Confidence.Low++
		result.ProblemFiles = append(result.ProblemFiles, models.ProblemFile{
			AssetID:      asset.ID,
			OriginalName: asset.OriginalName,
			Reason:       fmt.Sprintf("low extraction confidence (%.2f)", *text.Confidence),
		})
	}

	if len(text.Text) < 10 {
		result.ProblemFiles = append(result.ProblemFiles, models.ProblemFile{
			AssetID:      asset.ID,
			OriginalName: asset.OriginalName,
			Reason:       "extracted text is nearly empty",
		})
	}
}
