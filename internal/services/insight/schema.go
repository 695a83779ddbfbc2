package insight

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/causa/internal/models"
)

// Citation points a section record back to its source document
type Citation struct {
	AssetID  string `json:"assetId" validate:"required"`
	Filename string `json:"filename"`
	Snippet  string `json:"snippet"`
}

// ThemeRecord is one recurring theme found across the matter's documents
type ThemeRecord struct {
	Theme      string     `json:"theme" validate:"required"`
	Summary    string     `json:"summary"`
	Confidence *float64   `json:"confidence"`
	Citations  []Citation `json:"citations"`
}

// TimelineRecord is one dated event reconstructed from the documents
type TimelineRecord struct {
	Date       string     `json:"date" validate:"required"`
	Event      string     `json:"event" validate:"required"`
	Confidence *float64   `json:"confidence"`
	Citations  []Citation `json:"citations"`
}

// EntityRecord is one person or organization mentioned in the documents
type EntityRecord struct {
	Name       string     `json:"name" validate:"required"`
	Role       string     `json:"role"`
	EntityType string     `json:"entity_type"`
	Confidence *float64   `json:"confidence"`
	Citations  []Citation `json:"citations"`
}

// ContradictionRecord is one inconsistency between two or more documents
type ContradictionRecord struct {
	Description string     `json:"description" validate:"required"`
	Confidence  *float64   `json:"confidence"`
	Citations   []Citation `json:"citations"`
}

// ActionItemRecord is one follow-up task suggested by the documents
type ActionItemRecord struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Confidence  *float64   `json:"confidence"`
	Citations   []Citation `json:"citations"`
}

// RiskRecord is one legal or factual risk surfaced by the documents
type RiskRecord struct {
	Risk       string     `json:"risk" validate:"required"`
	Severity   string     `json:"severity"`
	Confidence *float64   `json:"confidence"`
	Citations  []Citation `json:"citations"`
}

// ToneRecord describes the tone of one document or correspondent
type ToneRecord struct {
	Subject    string     `json:"subject"`
	Tone       string     `json:"tone" validate:"required"`
	Notes      string     `json:"notes"`
	Confidence *float64   `json:"confidence"`
	Citations  []Citation `json:"citations"`
}

// ConsistencyRecord is one finding from a cross-document consistency check
type ConsistencyRecord struct {
	Finding    string     `json:"finding" validate:"required"`
	Status     string     `json:"status"`
	Confidence *float64   `json:"confidence"`
	Citations  []Citation `json:"citations"`
}

const defaultConfidence = 0.5

var validate = validator.New()

// extractJSON pulls the first balanced JSON object out of a model response,
// tolerating markdown code fences and leading prose.
func extractJSON(response string) (string, error) {
	text := strings.TrimSpace(response)

	if idx := strings.Index(text, "```json"); idx != -1 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end != -1 {
			text = text[:end]
		}
		return strings.TrimSpace(text), nil
	}
	if idx := strings.Index(text, "```"); idx != -1 {
		text = text[idx+3:]
		if end := strings.Index(text, "```"); end != -1 {
			text = text[:end]
		}
		return strings.TrimSpace(text), nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return text[start : end+1], nil
}

// validateSection coerces one section's raw array into its concrete record
// type, filling defaults (missing confidence 0.5, missing citations empty)
// and dropping records that fail required-field validation. Returns the
// re-marshaled array and the number of records dropped. An empty result after
// filtering means the section should be omitted.
func validateSection(section string, raw json.RawMessage) (json.RawMessage, int, error) {
	switch section {
	case models.IntentThemes:
		return coerceRecords[ThemeRecord](raw)
	case models.IntentTimeline:
		return coerceRecords[TimelineRecord](raw)
	case models.IntentEntities:
		return coerceRecords[EntityRecord](raw)
	case models.IntentContradictions:
		return coerceRecords[ContradictionRecord](raw)
	case models.IntentActionItems:
		return coerceRecords[ActionItemRecord](raw)
	case models.IntentRisks:
		return coerceRecords[RiskRecord](raw)
	case models.IntentToneAnalysis:
		return coerceRecords[ToneRecord](raw)
	case models.IntentConsistencyCheck:
		return coerceRecords[ConsistencyRecord](raw)
	default:
		return nil, 0, fmt.Errorf("unknown section %q", section)
	}
}

// sectionDefaulter lets coerceRecords fill per-type defaults generically
type sectionDefaulter interface {
	applyDefaults()
}

func (r *ThemeRecord) applyDefaults()         { r.Confidence, r.Citations = fillDefaults(r.Confidence, r.Citations) }
func (r *TimelineRecord) applyDefaults()      { r.Confidence, r.Citations = fillDefaults(r.Confidence, r.Citations) }
func (r *EntityRecord) applyDefaults()        { r.Confidence, r.Citations = fillDefaults(r.Confidence, r.Citations) }
func (r *ContradictionRecord) applyDefaults() { r.Confidence, r.Citations = fillDefaults(r.Confidence, r.Citations) }
func (r *ActionItemRecord) applyDefaults()    { r.Confidence, r.Citations = fillDefaults(r.Confidence, r.Citations) }
func (r *RiskRecord) applyDefaults()          { r.Confidence, r.Citations = fillDefaults(r.Confidence, r.Citations) }
func (r *ToneRecord) applyDefaults()          { r.Confidence, r.Citations = fillDefaults(r.Confidence, r.Citations) }
func (r *ConsistencyRecord) applyDefaults()   { r.Confidence, r.Citations = fillDefaults(r.Confidence, r.Citations) }

func fillDefaults(confidence *float64, citations []Citation) (*float64, []Citation) {
	if confidence == nil {
		c := defaultConfidence
		confidence = &c
	}
	if citations == nil {
		citations = []Citation{}
	}
	return confidence, citations
}

func coerceRecords[T any, PT interface {
	*T
	sectionDefaulter
}](raw json.RawMessage) (json.RawMessage, int, error) {
	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, 0, fmt.Errorf("section is not an array of records: %w", err)
	}

	kept := make([]T, 0, len(records))
	dropped := 0
	for i := range records {
		rec := PT(&records[i])
		rec.applyDefaults()
		if err := validate.Struct(rec); err != nil {
			dropped++
			continue
		}
		kept = append(kept, records[i])
	}
	if len(kept) == 0 {
		return nil, dropped, nil
	}

	out, err := json.Marshal(kept)
	if err != nil {
		return nil, dropped, fmt.Errorf("failed to re-marshal section: %w", err)
	}
	return out, dropped, nil
}
