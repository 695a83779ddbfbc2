package models

import (
	"time"
)

// FileKind classifies an uploaded file for extraction dispatch
type FileKind string

const (
	FileKindPDF   FileKind = "pdf"
	FileKindImage FileKind = "image"
	FileKindDoc   FileKind = "doc"
	FileKindText  FileKind = "text"
	FileKindEmail FileKind = "email"
	FileKindOther FileKind = "other"
)

// AssetStatus is the processing lifecycle state of an asset.
// Transitions: queued -> processing -> ready | failed.
type AssetStatus string

const (
	AssetStatusQueued     AssetStatus = "queued"
	AssetStatusProcessing AssetStatus = "processing"
	AssetStatusReady      AssetStatus = "ready"
	AssetStatusFailed     AssetStatus = "failed"
)

// Asset represents one uploaded file belonging to a matter.
// Content hash plus matter ID determines the storage path; identical bytes
// uploaded twice for the same matter share one stored file but get separate
// Asset records so upload history is preserved.
type Asset struct {
	ID           string      `json:"id" badgerhold:"key"`
	MatterID     string      `json:"matter_id" badgerholdIndex:"MatterID"`
	OwnerID      string      `json:"owner_id,omitempty"`
	OriginalName string      `json:"original_name"`
	FileKind     FileKind    `json:"file_kind"`
	ContentHash  string      `json:"content_hash"` // SHA-256, hex
	SizeBytes    int64       `json:"size_bytes"`
	StoragePath  string      `json:"storage_path"`
	Status       AssetStatus `json:"status"`
	Error        string      `json:"error,omitempty"` // Set when status is failed
	PageCount    int         `json:"page_count,omitempty"`

	// Classification metadata set at upload time, enriched post-extraction
	// with the detected document profile.
	DocumentType    string           `json:"document_type,omitempty"`
	Custodian       string           `json:"custodian,omitempty"`
	Confidentiality string           `json:"confidentiality,omitempty"`
	Profile         *DocumentProfile `json:"profile,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentProfile is structured metadata produced alongside OCR transcription
type DocumentProfile struct {
	DocumentType   string   `json:"document_type,omitempty"`
	Language       string   `json:"language,omitempty"`
	TextQuality    string   `json:"text_quality,omitempty"` // "clear", "partially legible", "illegible"
	HasHandwriting bool     `json:"has_handwriting,omitempty"`
	HasSignatures  bool     `json:"has_signatures,omitempty"`
	HasStamps      bool     `json:"has_stamps,omitempty"`
	HasRedactions  bool     `json:"has_redactions,omitempty"`
	VisibleDates   []string `json:"visible_dates,omitempty"`
	KeyEntities    []string `json:"key_entities,omitempty"`
	Sections       []string `json:"sections,omitempty"`
}

// ExtractionMethod identifies how text was produced from an asset
type ExtractionMethod string

const (
	MethodExtractedText ExtractionMethod = "extracted_text"
	MethodOCR           ExtractionMethod = "ocr"
)

// AssetText holds the extracted text for a successfully processed asset.
// Exactly one per ready asset; absent if processing failed before text was
// produced. Immutable once written; reprocessing deletes and recreates it.
type AssetText struct {
	ID         string           `json:"id" badgerhold:"key"` // Same as AssetID (1:1)
	AssetID    string           `json:"asset_id" badgerholdIndex:"AssetID"`
	MatterID   string           `json:"matter_id" badgerholdIndex:"MatterID"`
	Method     ExtractionMethod `json:"method"`
	Text       string           `json:"text"`
	Confidence *float64         `json:"confidence,omitempty"` // 0-1, nil if not applicable
	Language   string           `json:"language,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// TextAnchor is a coarse page/line addressable span used for citation display
type TextAnchor struct {
	ID         string   `json:"id" badgerhold:"key"`
	AssetID    string   `json:"asset_id" badgerholdIndex:"AssetID"`
	Page       int      `json:"page"`
	StartLine  int      `json:"start_line"` // 1-based, inclusive
	EndLine    int      `json:"end_line"`   // 1-based, inclusive
	Snippet    string   `json:"snippet"`
	Confidence *float64 `json:"confidence,omitempty"` // Carried over from the parent AssetText
}

// TextChunk is an overlapping slice of the full text sized for prompting
type TextChunk struct {
	ID       string `json:"id" badgerhold:"key"`
	AssetID  string `json:"asset_id" badgerholdIndex:"AssetID"`
	MatterID string `json:"matter_id" badgerholdIndex:"MatterID"`
	Index    int    `json:"index"` // 0-based, dense
	Text     string `json:"text"`
}

// IsTerminal reports whether the status is a terminal lifecycle state
func (s AssetStatus) IsTerminal() bool {
	return s == AssetStatusReady || s == AssetStatusFailed
}
