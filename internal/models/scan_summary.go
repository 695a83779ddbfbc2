package models

import (
	"time"
)

// ConfidenceHistogram buckets asset confidence scores.
// High >= 0.8, medium >= 0.6, low < 0.6, unknown when no confidence recorded.
type ConfidenceHistogram struct {
	High    int `json:"high"`
	Medium  int `json:"medium"`
	Low     int `json:"low"`
	Unknown int `json:"unknown"`
}

// ProblemFile flags an asset needing attention, with a human-readable reason
type ProblemFile struct {
	AssetID      string `json:"asset_id"`
	OriginalName string `json:"original_name"`
	Reason       string `json:"reason"`
}

// ScanSummary is a matter-wide reporting view over asset and text records
type ScanSummary struct {
	MatterID     string              `json:"matter_id"`
	TotalFiles   int                 `json:"total_files"`
	TotalPages   int                 `json:"total_pages"`
	DateFrom     *time.Time          `json:"date_from,omitempty"`
	DateTo       *time.Time          `json:"date_to,omitempty"`
	FileTypes    map[string]int      `json:"file_types"`
	Confidence   ConfidenceHistogram `json:"confidence"`
	ProblemFiles []ProblemFile       `json:"problem_files"`
	StatusCounts map[string]int      `json:"status_counts"`
	GeneratedAt  time.Time           `json:"generated_at"`
}
