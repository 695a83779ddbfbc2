package interfaces

import (
	"github.com/ternarybob/causa/internal/models"
)

// ListOptions controls pagination for asset listings
type ListOptions struct {
	MatterID string
	Status   models.AssetStatus
	Limit    int
	Offset   int
}

// AssetStorage persists Asset records
type AssetStorage interface {
	SaveAsset(asset *models.Asset) error
	GetAsset(id string) (*models.Asset, error)
	ListAssets(opts *ListOptions) ([]*models.Asset, error)
	CountAssetsByMatter(matterID string) (int, error)
	DeleteAsset(id string) error
}

// TextStorage persists AssetText records together with their anchors and
// chunks. The three row types are deletable/recreatable as a unit keyed by
// asset ID so reprocessing never orphans rows.
type TextStorage interface {
	SaveTextUnit(text *models.AssetText, anchors []*models.TextAnchor, chunks []*models.TextChunk) error
	GetText(assetID string) (*models.AssetText, error)
	GetAnchors(assetID string) ([]*models.TextAnchor, error)
	GetChunks(assetID string) ([]*models.TextChunk, error)
	ListReadyTexts(matterID string) ([]*models.AssetText, error)
	DeleteTextUnit(assetID string) error
}

// InsightStorage persists InsightRun and InsightOutput records
type InsightStorage interface {
	SaveRun(run *models.InsightRun) error
	GetRun(id string) (*models.InsightRun, error)
	ListRuns(matterID string) ([]*models.InsightRun, error)
	SaveOutput(output *models.InsightOutput) error
	GetOutputs(runID string) ([]*models.InsightOutput, error)
}

// AuditStorage persists append-only extraction audit records
type AuditStorage interface {
	AppendAudit(audit *models.ExtractionAudit) error
	ListAudits(assetID string) ([]*models.ExtractionAudit, error)
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	AssetStorage() AssetStorage
	TextStorage() TextStorage
	InsightStorage() InsightStorage
	AuditStorage() AuditStorage
	Close() error
}
