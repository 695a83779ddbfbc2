package badger

import (
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/causa/internal/interfaces"
	"github.com/ternarybob/causa/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// TextStorage implements the TextStorage interface for Badger.
// AssetText, TextAnchor, and TextChunk rows are written and deleted as a unit
// keyed by asset ID so reprocessing never orphans rows.
type TextStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewTextStorage creates a new TextStorage instance
func NewTextStorage(db *BadgerDB, logger arbor.ILogger) interfaces.TextStorage {
	return &TextStorage{
		db:     db,
		logger: logger,
	}
}

// SaveTextUnit replaces the asset's previous text unit and writes the new one
// inside a single transaction, so a mid-write failure never leaves a partial
// unit behind.
func (s *TextStorage) SaveTextUnit(text *models.AssetText, anchors []*models.TextAnchor, chunks []*models.TextChunk) error {
	if text == nil || text.AssetID == "" {
		return fmt.Errorf("asset text with asset ID is required")
	}

	if text.ID == "" {
		text.ID = text.AssetID
	}
	if text.CreatedAt.IsZero() {
		text.CreatedAt = time.Now()
	}

	return s.db.Store().Badger().Update(func(tx *badgerdb.Txn) error {
		// Replace any previous unit first so a reprocess is delete-then-redo
		if err := s.deleteUnitTx(tx, text.AssetID); err != nil {
			return fmt.Errorf("failed to clear previous text unit: %w", err)
		}

		if err := s.db.Store().TxUpsert(tx, text.ID, text); err != nil {
			return fmt.Errorf("failed to save asset text: %w", err)
		}

		for i, anchor := range anchors {
			if anchor.ID == "" {
				anchor.ID = fmt.Sprintf("%s:anchor:%d", text.AssetID, i)
			}
			if err := s.db.Store().TxUpsert(tx, anchor.ID, anchor); err != nil {
				return fmt.Errorf("failed to save anchor %d: %w", i, err)
			}
		}

		for i, chunk := range chunks {
			if chunk.ID == "" {
				chunk.ID = fmt.Sprintf("%s:chunk:%d", text.AssetID, chunk.Index)
			}
			if err := s.db.Store().TxUpsert(tx, chunk.ID, chunk); err != nil {
				return fmt.Errorf("failed to save chunk %d: %w", i, err)
			}
		}

		return nil
	})
}

func (s *TextStorage) GetText(assetID string) (*models.AssetText, error) {
	var text models.AssetText
	if err := s.db.Store().Get(assetID, &text); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("asset text not found: %s", assetID)
		}
		return nil, fmt.Errorf("failed to get asset text: %w", err)
	}
	return &text, nil
}

func (s *TextStorage) GetAnchors(assetID string) ([]*models.TextAnchor, error) {
	var anchors []models.TextAnchor
	if err := s.db.Store().Find(&anchors, badgerhold.Where("AssetID").Eq(assetID).Index("AssetID").SortBy("Page", "StartLine")); err != nil {
		return nil, fmt.Errorf("failed to get anchors: %w", err)
	}
	result := make([]*models.TextAnchor, len(anchors))
	for i := range anchors {
		result[i] = &anchors[i]
	}
	return result, nil
}

func (s *TextStorage) GetChunks(assetID string) ([]*models.TextChunk, error) {
	var chunks []models.TextChunk
	if err := s.db.Store().Find(&chunks, badgerhold.Where("AssetID").Eq(assetID).Index("AssetID").SortBy("Index")); err != nil {
		return nil, fmt.Errorf("failed to get chunks: %w", err)
	}
	result := make([]*models.TextChunk, len(chunks))
	for i := range chunks {
		result[i] = &chunks[i]
	}
	return result, nil
}

func (s *TextStorage) ListReadyTexts(matterID string) ([]*models.AssetText, error) {
	var texts []models.AssetText
	if err := s.db.Store().Find(&texts, badgerhold.Where("MatterID").Eq(matterID).Index("MatterID").SortBy("CreatedAt").Reverse()); err != nil {
		return nil, fmt.Errorf("failed to list texts: %w", err)
	}
	result := make([]*models.AssetText, len(texts))
	for i := range texts {
		result[i] = &texts[i]
	}
	return result, nil
}

func (s *TextStorage) DeleteTextUnit(assetID string) error {
	return s.db.Store().Badger().Update(func(tx *badgerdb.Txn) error {
		return s.deleteUnitTx(tx, assetID)
	})
}

func (s *TextStorage) deleteUnitTx(tx *badgerdb.Txn, assetID string) error {
	if err := s.db.Store().TxDelete(tx, assetID, &models.AssetText{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete asset text: %w", err)
	}
	if err := s.db.Store().TxDeleteMatching(tx, &models.TextAnchor{}, badgerhold.Where("AssetID").Eq(assetID).Index("AssetID")); err != nil {
		return fmt.Errorf("failed to delete anchors: %w", err)
	}
	if err := s.db.Store().TxDeleteMatching(tx, &models.TextChunk{}, badgerhold.Where("AssetID").Eq(assetID).Index("AssetID")); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}
