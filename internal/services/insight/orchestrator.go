package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/causa/internal/common"
	"github.com/ternarybob/causa/internal/interfaces"
	"github.com/ternarybob/causa/internal/models"
)

// Service orchestrates insight runs: it gathers a matter's ready document
// text, composes a single prompt covering every requested intent, invokes the
// language model, validates the JSON response per section, and persists each
// surviving section independently.
type Service struct {
	storage   interfaces.StorageManager
	llm       interfaces.LLMService
	taskBoard interfaces.TaskBoard
	config    *common.InsightConfig
	validate  *validator.Validate
	logger    arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.InsightService = (*Service)(nil)

// NewService creates a new insight service. llm may be nil when no provider
// is configured; runs then fail with a clear message instead of panicking.
func NewService(storage interfaces.StorageManager, llm interfaces.LLMService, taskBoard interfaces.TaskBoard, config *common.InsightConfig, logger arbor.ILogger) *Service {
	return &Service{
		storage:   storage,
		llm:       llm,
		taskBoard: taskBoard,
		config:    config,
		validate:  validator.New(),
		logger:    logger,
	}
}

// StartRun validates the request, persists a queued run, and triggers
// execution asynchronously. Unknown intents are rejected before anything is
// persisted.
func (s *Service) StartRun(ctx context.Context, req *interfaces.StartRunRequest) (*models.InsightRun, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid run request: %w", err)
	}
	for _, intent := range req.Intents {
		if !models.IsKnownIntent(intent) {
			return nil, fmt.Errorf("unknown intent %q", intent)
		}
	}

	run := &models.InsightRun{
		ID:          common.NewRunID(),
		MatterID:    req.MatterID,
		RequesterID: req.RequesterID,
		Intents:     strings.Join(req.Intents, ","),
		Rules:       req.Rules,
		FormatHint:  req.FormatHint,
		Scope:       req.Scope,
		Status:      models.RunStatusQueued,
		CreatedAt:   time.Now(),
	}
	if err := s.storage.InsightStorage().SaveRun(run); err != nil {
		return nil, fmt.Errorf("failed to save run: %w", err)
	}

	s.logger.Info().
		Str("run_id", run.ID).
		Str("matter_id", run.MatterID).
		Str("intents", run.Intents).
		Msg("Insight run started")

	go s.execute(run.ID)

	return run, nil
}

// GetRun returns one run by ID
func (s *Service) GetRun(ctx context.Context, id string) (*models.InsightRun, error) {
	return s.storage.InsightStorage().GetRun(id)
}

// ListRuns returns a matter's runs, newest first
func (s *Service) ListRuns(ctx context.Context, matterID string) ([]*models.InsightRun, error) {
	return s.storage.InsightStorage().ListRuns(matterID)
}

// GetOutputs returns the run's validated sections keyed by section name
func (s *Service) GetOutputs(ctx context.Context, runID string) (map[string]any, error) {
	outputs, err := s.storage.InsightStorage().GetOutputs(runID)
	if err != nil {
		return nil, err
	}
	result := make(map[string]any, len(outputs))
	for _, output := range outputs {
		var content any
		if err := json.Unmarshal(output.Content, &content); err != nil {
			return nil, fmt.Errorf("failed to decode section %s: %w", output.Section, err)
		}
		result[output.Section] = content
	}
	return result, nil
}

// execute drives one run through its forward-only lifecycle. Any step error
// marks the run failed with the error's message; there are no retries inside
// a run.
func (s *Service) execute(runID string) {
	run, err := s.storage.InsightStorage().GetRun(runID)
	if err != nil {
		s.logger.Error().Err(err).Str("run_id", runID).Msg("Failed to load run for execution")
		return
	}

	now := time.Now()
	run.Status = models.RunStatusRunning
	run.StartedAt = &now
	if err := s.storage.InsightStorage().SaveRun(run); err != nil {
		s.logger.Error().Err(err).Str("run_id", runID).Msg("Failed to mark run running")
		return
	}

	if err := s.runSteps(run); err != nil {
		s.fail(run, err)
		return
	}

	completed := time.Now()
	run.Status = models.RunStatusComplete
	run.CompletedAt = &completed
	if err := s.storage.InsightStorage().SaveRun(run); err != nil {
		s.logger.Error().Err(err).Str("run_id", runID).Msg("Failed to mark run complete")
		return
	}

	s.logger.Info().
		Str("run_id", run.ID).
		Str("duration", completed.Sub(now).String()).
		Msg("Insight run complete")
}

func (s *Service) runSteps(run *models.InsightRun) error {
	if s.llm == nil {
		return fmt.Errorf("no language model provider configured")
	}

	docs, err := s.gather(run)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no processed documents available for matter %s", run.MatterID)
	}

	prompt := composePrompt(run, docs, s.config.MaxDocumentText)

	ctx, cancel := context.WithTimeout(context.Background(), s.config.RunTimeoutDuration())
	defer cancel()

	response, err := s.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: systemPreamble},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return fmt.Errorf("language model call failed: %w", err)
	}

	jsonText, err := extractJSON(response)
	if err != nil {
		return fmt.Errorf("model response contained no JSON: %w", err)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
		return fmt.Errorf("failed to parse model response: %w", err)
	}

	return s.persistSections(run, payload)
}

// gather fetches the matter's ready text units newest first and applies the
// run's priority rules and scope. With no explicit scope, matters above the
// configured threshold are capped to the most recent N documents. The
// surviving documents are presented to the model oldest first unless the
// run's rules prefer recency.
func (s *Service) gather(run *models.InsightRun) ([]*promptDocument, error) {
	texts, err := s.storage.TextStorage().ListReadyTexts(run.MatterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ready texts: %w", err)
	}

	docs := make([]*promptDocument, 0, len(texts))
	for _, text := range texts {
		asset, err := s.storage.AssetStorage().GetAsset(text.AssetID)
		if err != nil {
			// Asset deleted since its text was written, skip
			s.logger.Debug().Str("asset_id", text.AssetID).Msg("Skipping text without asset")
			continue
		}
		if asset.Status != models.AssetStatusReady {
			// A failed or mid-flight reprocess leaves the previous text unit
			// behind until the next successful write; never cite it
			s.logger.Debug().
				Str("asset_id", text.AssetID).
				Str("status", string(asset.Status)).
				Msg("Skipping text of non-ready asset")
			continue
		}
		if !s.matchesRules(run.Rules, asset) {
			continue
		}
		docs = append(docs, &promptDocument{
			AssetID:  asset.ID,
			Filename: asset.OriginalName,
			Text:     text.Text,
		})
	}

	docs = s.applyScope(run.Scope, docs)

	// Scoping works on the newest-first list so recency caps keep the latest
	// documents; the prompt itself reads chronologically unless the caller
	// asked for newest first.
	if run.Rules == nil || !run.Rules.PreferRecent {
		for i, j := 0, len(docs)-1; i < j; i, j = i+1, j-1 {
			docs[i], docs[j] = docs[j], docs[i]
		}
	}

	return docs, nil
}

func (s *Service) matchesRules(rules *models.PriorityRules, asset *models.Asset) bool {
	if rules == nil {
		return true
	}
	if rules.DateFrom != nil && asset.CreatedAt.Before(*rules.DateFrom) {
		return false
	}
	if rules.DateTo != nil && asset.CreatedAt.After(*rules.DateTo) {
		return false
	}
	if len(rules.DocumentTypes) > 0 && !contains(rules.DocumentTypes, asset.DocumentType) {
		return false
	}
	if len(rules.Custodians) > 0 && !contains(rules.Custodians, asset.Custodian) {
		return false
	}
	return true
}

// applyScope narrows the newest-first document list. An explicit scope wins;
// otherwise the recent-N default kicks in above the threshold.
func (s *Service) applyScope(scope *models.RunScope, docs []*promptDocument) []*promptDocument {
	if scope != nil && (scope.RecentCount > 0 || scope.Offset > 0) {
		if scope.Offset >= len(docs) {
			return nil
		}
		docs = docs[scope.Offset:]
		if scope.RecentCount > 0 && len(docs) > scope.RecentCount {
			docs = docs[:scope.RecentCount]
		}
		return docs
	}
	if s.config.ScopeThreshold > 0 && len(docs) > s.config.ScopeThreshold && s.config.MaxDocuments > 0 {
		return docs[:s.config.MaxDocuments]
	}
	return docs
}

// persistSections validates each requested section present in the payload and
// writes one InsightOutput per section that survives. Absent sections and
// sections emptied by validation are omitted silently; extra top-level keys
// in the payload are ignored.
func (s *Service) persistSections(run *models.InsightRun, payload map[string]json.RawMessage) error {
	for _, intent := range run.IntentList() {
		raw, ok := payload[intent]
		if !ok {
			continue
		}

		content, dropped, err := validateSection(intent, raw)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("run_id", run.ID).
				Str("section", intent).
				Msg("Dropping section that failed validation")
			continue
		}
		if dropped > 0 {
			s.logger.Warn().
				Str("run_id", run.ID).
				Str("section", intent).
				Int("dropped", dropped).
				Msg("Dropped invalid records from section")
		}
		if content == nil {
			continue
		}

		output := &models.InsightOutput{
			ID:        run.ID + ":" + intent,
			RunID:     run.ID,
			Section:   intent,
			Content:   content,
			CreatedAt: time.Now(),
		}
		if err := s.storage.InsightStorage().SaveOutput(output); err != nil {
			return fmt.Errorf("failed to save %s output: %w", intent, err)
		}
	}
	return nil
}

func (s *Service) fail(run *models.InsightRun, cause error) {
	now := time.Now()
	run.Status = models.RunStatusFailed
	run.Error = cause.Error()
	run.CompletedAt = &now
	if err := s.storage.InsightStorage().SaveRun(run); err != nil {
		s.logger.Error().Err(err).Str("run_id", run.ID).Msg("Failed to mark run failed")
		return
	}
	s.logger.Warn().Str("run_id", run.ID).Str("error", cause.Error()).Msg("Insight run failed")
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
