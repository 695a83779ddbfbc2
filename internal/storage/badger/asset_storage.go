package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/causa/internal/interfaces"
	"github.com/ternarybob/causa/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// AssetStorage implements the AssetStorage interface for Badger
type AssetStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAssetStorage creates a new AssetStorage instance
func NewAssetStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AssetStorage {
	return &AssetStorage{
		db:     db,
		logger: logger,
	}
}

func (s *AssetStorage) SaveAsset(asset *models.Asset) error {
	if asset.ID == "" {
		return fmt.Errorf("asset ID is required")
	}

	now := time.Now()
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = now
	}
	asset.UpdatedAt = now

	if err := s.db.Store().Upsert(asset.ID, asset); err != nil {
		return fmt.Errorf("failed to save asset: %w", err)
	}
	return nil
}

func (s *AssetStorage) GetAsset(id string) (*models.Asset, error) {
	var asset models.Asset
	if err := s.db.Store().Get(id, &asset); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("asset not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return &asset, nil
}

func (s *AssetStorage) ListAssets(opts *interfaces.ListOptions) ([]*models.Asset, error) {
	query := badgerhold.Where("ID").Ne("") // Select all

	if opts != nil {
		if opts.MatterID != "" {
			query = query.And("MatterID").Eq(opts.MatterID).Index("MatterID")
		}
		if opts.Status != "" {
			query = query.And("Status").Eq(opts.Status)
		}
	}

	var assets []models.Asset
	if err := s.db.Store().Find(&assets, query.SortBy("CreatedAt").Reverse()); err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	// Skip/Limit are applied after the sort so pages are stable newest-first
	if opts != nil {
		if opts.Offset > 0 {
			if opts.Offset >= len(assets) {
				assets = nil
			} else {
				assets = assets[opts.Offset:]
			}
		}
		if opts.Limit > 0 && len(assets) > opts.Limit {
			assets = assets[:opts.Limit]
		}
	}

	result := make([]*models.Asset, len(assets))
	for i := range assets {
		result[i] = &assets[i]
	}
	return result, nil
}

func (s *AssetStorage) CountAssetsByMatter(matterID string) (int, error) {
	count, err := s.db.Store().Count(&models.Asset{}, badgerhold.Where("MatterID").Eq(matterID).Index("MatterID"))
	if err != nil {
		return 0, fmt.Errorf("failed to count assets: %w", err)
	}
	return int(count), nil
}

func (s *AssetStorage) DeleteAsset(id string) error {
	if err := s.db.Store().Delete(id, &models.Asset{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return nil
}
