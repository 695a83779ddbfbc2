package processing

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
	"github.com/ternarybob/causa/internal/services/extract"
	"github.com/ternarybob/causa/internal/storage/badger"
)

func newTestProcessor(t *testing.T) (*Processor, interfaces.StorageManager) {
	t.Helper()
	logger := arbor.NewLogger()
	storage, err := badger.NewManager(logger, &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "causa.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	config := &common.ExtractionConfig{
		MinPDFTextLength: 100,
		ChunkSize:        4000,
		ChunkOverlap:     400,
		OCRTimeout:       "5s",
		ConfidenceClear:  0.9,
		ConfidencePartly: 0.7,
		ConfidenceOther:  0.5,
	}
	dispatcher := extract.NewDispatcher(config, nil, logger)
	return NewProcessor(storage, dispatcher, config, logger), storage
}

func seedTextAsset(t *testing.T, storage interfaces.StorageManager, content string) *models.Asset {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	asset := &models.Asset{
		ID:           "asset_1",
		MatterID:     "matter-1",
		OriginalName: "doc.txt",
		FileKind:     models.FileKindText,
		StoragePath:  path,
		Status:       models.AssetStatusQueued,
	}
	require.NoError(t, storage.AssetStorage().SaveAsset(asset))
	return asset
}

func TestProcessPlainTextEndToEnd(t *testing.T) {
	processor, storage := newTestProcessor(t)
	seedTextAsset(t, storage, "Alpha\nBeta\nGamma")

	require.NoError(t, processor.Process(context.Background(), "asset_1"))

	asset, err := storage.AssetStorage().GetAsset("asset_1")
	require.NoError(t, err)
	assert.Equal(t, models.AssetStatusReady, asset.Status)
	assert.Empty(t, asset.Error)

	text, err := storage.TextStorage().GetText("asset_1")
	require.NoError(t, err)
	assert.Equal(t, models.MethodExtractedText, text.Method)
	assert.Equal(t, "Alpha\nBeta\nGamma", text.Text)
	require.NotNil(t, text.Confidence)
	assert.Equal(t, 1.0, *text.Confidence)

	chunks, err := storage.TextStorage().GetChunks("asset_1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Alpha\nBeta\nGamma", chunks[0].Text)

	anchors, err := storage.TextStorage().GetAnchors("asset_1")
	require.NoError(t, err)
	require.Len(t, anchors, 1)
	assert.Equal(t, 1, anchors[0].Page)
	assert.Equal(t, 1, anchors[0].StartLine)
	assert.Equal(t, 3, anchors[0].EndLine)

	audits, err := storage.AuditStorage().ListAudits("asset_1")
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.True(t, audits[0].Success)
}

func TestProcessMissingFileFails(t *testing.T) {
	processor, storage := newTestProcessor(t)

	asset := &models.Asset{
		ID:           "asset_1",
		MatterID:     "matter-1",
		OriginalName: "gone.txt",
		FileKind:     models.FileKindText,
		StoragePath:  filepath.Join(t.TempDir(), "does-not-exist.txt"),
		Status:       models.AssetStatusQueued,
	}
	require.NoError(t, storage.AssetStorage().SaveAsset(asset))

	err := processor.Process(context.Background(), "asset_1")
	require.Error(t, err)

	got, err := storage.AssetStorage().GetAsset("asset_1")
	require.NoError(t, err)
	assert.Equal(t, models.AssetStatusFailed, got.Status)
	assert.NotEmpty(t, got.Error)

	// The failed attempt still leaves an audit record
	audits, err := storage.AuditStorage().ListAudits("asset_1")
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.False(t, audits[0].Success)
	assert.NotEmpty(t, audits[0].Error)
}

func TestProcessUnknownAsset(t *testing.T) {
	processor, _ := newTestProcessor(t)

	err := processor.Process(context.Background(), "asset_missing")
	assert.Error(t, err)
}

func TestProcessReprocessReplacesTextUnit(t *testing.T) {
	processor, storage := newTestProcessor(t)
	asset := seedTextAsset(t, storage, "first version")

	require.NoError(t, processor.Process(context.Background(), asset.ID))
	require.NoError(t, os.WriteFile(asset.StoragePath, []byte("second version"), 0o644))
	require.NoError(t, processor.Process(context.Background(), asset.ID))

	text, err := storage.TextStorage().GetText(asset.ID)
	require.NoError(t, err)
	assert.Equal(t, "second version", text.Text)

	chunks, err := storage.TextStorage().GetChunks(asset.ID)
	require.NoError(t, err)
	assert.Len(t, chunks, 1, "reprocessing must not orphan rows")

	// Both attempts remain in the audit trail
	audits, err := storage.AuditStorage().ListAudits(asset.ID)
	require.NoError(t, err)
	assert.Len(t, audits, 2)
}

func TestProcessDegradedOCRStillReady(t *testing.T) {
	processor, storage := newTestProcessor(t)

	path := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(path, []byte("image bytes"), 0o644))
	require.NoError(t, storage.AssetStorage().SaveAsset(&models.Asset{
		ID:           "asset_img",
		MatterID:     "matter-1",
		OriginalName: "scan.png",
		FileKind:     models.FileKindImage,
		StoragePath:  path,
		Status:       models.AssetStatusQueued,
	}))

	// No OCR provider configured: the asset still resolves to ready with the
	// unavailable marker and zero confidence
	require.NoError(t, processor.Process(context.Background(), "asset_img"))

	asset, err := storage.AssetStorage().GetAsset("asset_img")
	require.NoError(t, err)
	assert.Equal(t, models.AssetStatusReady, asset.Status)

	text, err := storage.TextStorage().GetText("asset_img")
	require.NoError(t, err)
	assert.Equal(t, extract.UnavailableMarker, text.Text)
	require.NotNil(t, text.Confidence)
	assert.Equal(t, 0.0, *text.Confidence)
}
