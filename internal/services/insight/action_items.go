package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/causa/internal/interfaces"
	"github.com/ternarybob/causa/internal/models"
)

// MaterializeActionItems reads a complete run's action_items section and asks
// the task-board collaborator to create one work item per record. Confidence
// maps to a priority tier and the citations are embedded as free text in the
// work item description.
func (s *Service) MaterializeActionItems(ctx context.Context, runID string) ([]*interfaces.WorkItem, error) {
	if s.taskBoard == nil {
		return nil, fmt.Errorf("no task board configured")
	}

	run, err := s.storage.InsightStorage().GetRun(runID)
	if err != nil {
		return nil, err
	}
	if run.Status != models.RunStatusComplete {
		return nil, fmt.Errorf("run %s is %s, not complete", runID, run.Status)
	}

	outputs, err := s.storage.InsightStorage().GetOutputs(runID)
	if err != nil {
		return nil, err
	}

	var records []ActionItemRecord
	found := false
	for _, output := range outputs {
		if output.Section == models.IntentActionItems {
			if err := json.Unmarshal(output.Content, &records); err != nil {
				return nil, fmt.Errorf("failed to decode action items: %w", err)
			}
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("run %s has no action_items section", runID)
	}

	items := make([]*interfaces.WorkItem, 0, len(records))
	for _, record := range records {
		item := &interfaces.WorkItem{
			Title:       record.Title,
			Description: describeActionItem(&record),
			Priority:    priorityForConfidence(record.Confidence),
			MatterID:    run.MatterID,
			RunID:       run.ID,
		}
		if err := s.taskBoard.CreateWorkItem(ctx, item); err != nil {
			return items, fmt.Errorf("failed to create work item %q: %w", item.Title, err)
		}
		items = append(items, item)
	}

	s.logger.Info().
		Str("run_id", runID).
		Int("count", len(items)).
		Msg("Action items materialized")

	return items, nil
}

// priorityForConfidence maps a record's confidence to a task priority tier
func priorityForConfidence(confidence *float64) string {
	if confidence == nil {
		return "low"
	}
	switch {
	case *confidence >= 0.8:
		return "high"
	case *confidence >= 0.5:
		return "medium"
	default:
		return "low"
	}
}

func describeActionItem(record *ActionItemRecord) string {
	var sb strings.Builder
	sb.WriteString(record.Description)
	if len(record.Citations) > 0 {
		sb.WriteString("\n\nSources:")
		for _, citation := range record.Citations {
			sb.WriteString(fmt.Sprintf("\n- %s (%s)", citation.Filename, citation.AssetID))
			if citation.Snippet != "" {
				sb.WriteString(fmt.Sprintf(": %q", citation.Snippet))
			}
		}
	}
	return sb.String()
}

// LoggingTaskBoard is the default task-board collaborator. The real board
// lives outside this service; this implementation records created items in
// the log so the materialization path stays exercisable without it.
type LoggingTaskBoard struct {
	logger arbor.ILogger
}

var _ interfaces.TaskBoard = (*LoggingTaskBoard)(nil)

// NewLoggingTaskBoard creates a task board that only logs created items
func NewLoggingTaskBoard(logger arbor.ILogger) *LoggingTaskBoard {
	return &LoggingTaskBoard{logger: logger}
}

// CreateWorkItem logs the work item
func (b *LoggingTaskBoard) CreateWorkItem(ctx context.Context, item *interfaces.WorkItem) error {
	b.logger.Info().
		Str("title", item.Title).
		Str("priority", item.Priority).
		Str("matter_id", item.MatterID).
		Str("run_id", item.RunID).
		Msg("Work item created")
	return nil
}
