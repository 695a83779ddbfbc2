package processing

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/causa/internal/common"
	"github.com/ternarybob/causa/internal/interfaces"
	"github.com/ternarybob/causa/internal/models"
	"github.com/ternarybob/causa/internal/services/chunk"
)

// Processor takes a queued asset through extraction, persists the text unit,
// and resolves the asset status. One Process call per worker slot; a failure
// is fully isolated to its asset.
type Processor struct {
	storage   interfaces.StorageManager
	extractor interfaces.Extractor
	config    *common.ExtractionConfig
	logger    arbor.ILogger
}

// NewProcessor creates a new asset processor
func NewProcessor(storage interfaces.StorageManager, extractor interfaces.Extractor, config *common.ExtractionConfig, logger arbor.ILogger) *Processor {
	return &Processor{
		storage:   storage,
		extractor: extractor,
		config:    config,
		logger:    logger,
	}
}

// Process runs the full pipeline for one asset: mark processing, extract,
// persist text + anchors + chunks as a unit, mark ready. Any error marks the
// asset failed with a message; an asset is never left in processing.
func (p *Processor) Process(ctx context.Context, assetID string) error {
	asset, err := p.storage.AssetStorage().GetAsset(assetID)
	if err != nil {
		return fmt.Errorf("failed to load asset for processing: %w", err)
	}

	asset.Status = models.AssetStatusProcessing
	asset.Error = ""
	if err := p.storage.AssetStorage().SaveAsset(asset); err != nil {
		return fmt.Errorf("failed to mark asset processing: %w", err)
	}

	startTime := time.Now()
	result, err := p.extractor.Extract(ctx, asset.StoragePath, asset.FileKind)
	duration := time.Since(startTime)

	p.appendAudit(asset, result, duration, err)

	if err != nil {
		p.logger.Warn().
			Err(err).
			Str("asset_id", asset.ID).
			Str("kind", string(asset.FileKind)).
			Msg("Extraction failed")
		return p.markFailed(asset, err)
	}

	if err := p.persistTextUnit(asset, result); err != nil {
		return p.markFailed(asset, err)
	}

	asset.Status = models.AssetStatusReady
	asset.PageCount = result.PageCount
	if result.Profile != nil {
		asset.Profile = result.Profile
		if asset.DocumentType == "" && result.Profile.DocumentType != "" {
			asset.DocumentType = result.Profile.DocumentType
		}
	}
	if err := p.storage.AssetStorage().SaveAsset(asset); err != nil {
		return fmt.Errorf("failed to mark asset ready: %w", err)
	}

	p.logger.Info().
		Str("asset_id", asset.ID).
		Str("method", string(result.Method)).
		Int("text_length", len(result.Text)).
		Dur("duration", duration).
		Msg("Asset processed")

	return nil
}

// persistTextUnit writes the AssetText with its anchors and chunks
func (p *Processor) persistTextUnit(asset *models.Asset, result *interfaces.ExtractionResult) error {
	text := &models.AssetText{
		AssetID:    asset.ID,
		MatterID:   asset.MatterID,
		Method:     result.Method,
		Text:       result.Text,
		Confidence: result.Confidence,
	}
	if result.Profile != nil {
		text.Language = result.Profile.Language
	}

	var anchors []*models.TextAnchor
	for _, span := range chunk.Anchor(result.Text, result.PageCount) {
		anchors = append(anchors, &models.TextAnchor{
			AssetID:    asset.ID,
			Page:       span.Page,
			StartLine:  span.StartLine,
			EndLine:    span.EndLine,
			Snippet:    span.Snippet,
			Confidence: result.Confidence,
		})
	}

	var chunks []*models.TextChunk
	for _, piece := range chunk.Split(result.Text, p.config.ChunkSize, p.config.ChunkOverlap) {
		chunks = append(chunks, &models.TextChunk{
			AssetID:  asset.ID,
			MatterID: asset.MatterID,
			Index:    piece.Index,
			Text:     piece.Text,
		})
	}

	if err := p.storage.TextStorage().SaveTextUnit(text, anchors, chunks); err != nil {
		return fmt.Errorf("failed to persist text unit: %w", err)
	}
	return nil
}

// markFailed resolves the asset to failed with a short message
func (p *Processor) markFailed(asset *models.Asset, cause error) error {
	asset.Status = models.AssetStatusFailed
	asset.Error = cause.Error()
	if err := p.storage.AssetStorage().SaveAsset(asset); err != nil {
		p.logger.Error().Err(err).Str("asset_id", asset.ID).Msg("Failed to mark asset failed")
	}
	return cause
}

// appendAudit records the processing attempt; audit failures are logged, not
// propagated, so diagnostics never fail an asset.
func (p *Processor) appendAudit(asset *models.Asset, result *interfaces.ExtractionResult, duration time.Duration, extractErr error) {
	audit := &models.ExtractionAudit{
		AssetID:    asset.ID,
		MatterID:   asset.MatterID,
		Success:    extractErr == nil,
		DurationMs: duration.Milliseconds(),
	}
	if result != nil {
		audit.Method = result.Method
		audit.Provider = result.Provider
		audit.Confidence = result.Confidence
	}
	if extractErr != nil {
		audit.Error = extractErr.Error()
	}

	if err := p.storage.AuditStorage().AppendAudit(audit); err != nil {
		p.logger.Warn().Err(err).Str("asset_id", asset.ID).Msg("Failed to append audit record")
	}
}
