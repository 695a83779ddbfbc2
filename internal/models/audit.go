package models

import (
	"time"
)

// ExtractionAudit captures one processing attempt for operational diagnosis.
// Append-only; written for every attempt regardless of outcome.
type ExtractionAudit struct {
	ID         string           `json:"id" badgerhold:"key"`
	AssetID    string           `json:"asset_id" badgerholdIndex:"AssetID"`
	MatterID   string           `json:"matter_id"`
	Method     ExtractionMethod `json:"method,omitempty"`
	Provider   string           `json:"provider,omitempty"` // Extraction strategy or OCR provider name
	Success    bool             `json:"success"`
	Error      string           `json:"error,omitempty"`
	Confidence *float64         `json:"confidence,omitempty"`
	DurationMs int64            `json:"duration_ms"`
	Timestamp  time.Time        `json:"timestamp"`
}
