package interfaces

import (
	"context"
	"io"

	"github.com/ternarybob/causa/internal/models"
)

// SubmitRequest carries one upload into the pipeline
type SubmitRequest struct {
	MatterID     string `validate:"required"`
	OriginalName string `validate:"required"`
	MimeType     string
	OwnerID      string
	Size         int64

	// Optional classification metadata set at upload time
	DocumentType    string
	Custodian       string
	Confidentiality string
}

// AssetService is the collaborator-facing upload and asset query surface
type AssetService interface {
	// Submit validates the upload, stores the bytes content-addressed, creates
	// a queued Asset record, and schedules processing asynchronously. Input
	// rejections (bad type, size, matter ceiling) are returned synchronously
	// before any storage is touched.
	Submit(ctx context.Context, req *SubmitRequest, content io.Reader) (*models.Asset, error)

	GetAsset(ctx context.Context, id string) (*models.Asset, error)
	ListAssets(ctx context.Context, matterID string, page, limit int) ([]*models.Asset, error)

	// DeleteAsset removes the Asset record, its text unit, and the stored
	// bytes (unless another asset record still references the same file).
	DeleteAsset(ctx context.Context, id string) error
}

// StartRunRequest carries one insight run request
type StartRunRequest struct {
	MatterID    string   `validate:"required"`
	Intents     []string `validate:"required,min=1"`
	RequesterID string
	Rules       *models.PriorityRules
	FormatHint  string
	Scope       *models.RunScope
}

// InsightService orchestrates LLM analysis runs over a matter's ready assets
type InsightService interface {
	// StartRun validates intents against the allow-list, persists a queued
	// run, and triggers execution asynchronously.
	StartRun(ctx context.Context, req *StartRunRequest) (*models.InsightRun, error)

	GetRun(ctx context.Context, id string) (*models.InsightRun, error)
	ListRuns(ctx context.Context, matterID string) ([]*models.InsightRun, error)

	// GetOutputs returns the run's validated sections keyed by section name
	GetOutputs(ctx context.Context, runID string) (map[string]any, error)

	// MaterializeActionItems reads the run's action_items section and asks
	// the external task-board collaborator to create one work item per entry.
	MaterializeActionItems(ctx context.Context, runID string) ([]*WorkItem, error)
}

// WorkItem is the shape handed to the external task-board collaborator
type WorkItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"` // "high", "medium", "low"
	MatterID    string `json:"matter_id"`
	RunID       string `json:"run_id"`
}

// TaskBoard is the external task-board collaborator. Out of scope for this
// service; the insight orchestrator only calls CreateWorkItem.
type TaskBoard interface {
	CreateWorkItem(ctx context.Context, item *WorkItem) error
}

// SummaryService computes matter-wide scan statistics
type SummaryService interface {
	Summarize(ctx context.Context, matterID string) (*models.ScanSummary, error)
	RenderPDF(ctx context.Context, matterID string) ([]byte, error)
}
