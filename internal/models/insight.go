package models

import (
	"encoding/json"
	"strings"
	"time"
)

// RunStatus is the lifecycle state of an insight run.
// Transitions: queued -> running -> complete | failed.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Known intent section keys. StartInsightRun rejects anything outside this set
// before any model call is made.
const (
	IntentThemes           = "themes"
	IntentTimeline         = "timeline"
	IntentEntities         = "entities"
	IntentContradictions   = "contradictions"
	IntentActionItems      = "action_items"
	IntentRisks            = "risks"
	IntentToneAnalysis     = "tone_analysis"
	IntentConsistencyCheck = "consistency_check"
)

// KnownIntents lists every intent the orchestrator can serve
var KnownIntents = []string{
	IntentThemes,
	IntentTimeline,
	IntentEntities,
	IntentContradictions,
	IntentActionItems,
	IntentRisks,
	IntentToneAnalysis,
	IntentConsistencyCheck,
}

// IsKnownIntent reports whether name is in the intent allow-list
func IsKnownIntent(name string) bool {
	for _, intent := range KnownIntents {
		if intent == name {
			return true
		}
	}
	return false
}

// PriorityRules narrow or re-rank the documents gathered for a run
type PriorityRules struct {
	DateFrom      *time.Time `json:"date_from,omitempty"`
	DateTo        *time.Time `json:"date_to,omitempty"`
	DocumentTypes []string   `json:"document_types,omitempty"`
	Custodians    []string   `json:"custodians,omitempty"`
	PreferRecent  bool       `json:"prefer_recent,omitempty"`
}

// RunScope selects which ready documents a run covers. Zero value means the
// default policy (most recent N when the matter exceeds the threshold).
type RunScope struct {
	RecentCount int `json:"recent_count,omitempty"` // Take only the most recent N
	Offset      int `json:"offset,omitempty"`       // Next-batch pagination across large matters
}

// InsightRun is one request to analyze a matter's ready assets for one or
// more named intents. Transitions are driven solely by the orchestrator;
// terminal once complete or failed.
type InsightRun struct {
	ID          string         `json:"id" badgerhold:"key"`
	MatterID    string         `json:"matter_id" badgerholdIndex:"MatterID"`
	RequesterID string         `json:"requester_id,omitempty"`
	Intents     string         `json:"intents"` // Comma-joined intent list
	Rules       *PriorityRules `json:"rules,omitempty"`
	FormatHint  string         `json:"format_hint,omitempty"`
	Scope       *RunScope      `json:"scope,omitempty"`
	Status      RunStatus      `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// InsightOutput is one validated section of a run's results. Sections are
// independent: a run may produce some and omit others.
type InsightOutput struct {
	ID        string          `json:"id" badgerhold:"key"` // runID + ":" + section
	RunID     string          `json:"run_id" badgerholdIndex:"RunID"`
	Section   string          `json:"section"`
	Content   json.RawMessage `json:"content"` // Schema-validated array of section records
	CreatedAt time.Time       `json:"created_at"`
}

// IntentList splits the comma-joined intent field
func (r *InsightRun) IntentList() []string {
	if r.Intents == "" {
		return nil
	}
	var intents []string
	for _, intent := range strings.Split(r.Intents, ",") {
		if trimmed := strings.TrimSpace(intent); trimmed != "" {
			intents = append(intents, trimmed)
		}
	}
	return intents
}
