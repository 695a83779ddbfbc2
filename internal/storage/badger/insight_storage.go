package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/causa/internal/interfaces"
	"github.com/ternarybob/causa/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// InsightStorage implements the InsightStorage interface for Badger
type InsightStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewInsightStorage creates a new InsightStorage instance
func NewInsightStorage(db *BadgerDB, logger arbor.ILogger) interfaces.InsightStorage {
	return &InsightStorage{
		db:     db,
		logger: logger,
	}
}

func (s *InsightStorage) SaveRun(run *models.InsightRun) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	if err := s.db.Store().Upsert(run.ID, run); err != nil {
		return fmt.Errorf("failed to save insight run: %w", err)
	}
	return nil
}

func (s *InsightStorage) GetRun(id string) (*models.InsightRun, error) {
	var run models.InsightRun
	if err := s.db.Store().Get(id, &run); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("insight run not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get insight run: %w", err)
	}
	return &run, nil
}

func (s *InsightStorage) ListRuns(matterID string) ([]*models.InsightRun, error) {
	var runs []models.InsightRun
	if err := s.db.Store().Find(&runs, badgerhold.Where("MatterID").Eq(matterID).Index("MatterID").SortBy("CreatedAt").Reverse()); err != nil {
		return nil, fmt.Errorf("failed to list insight runs: %w", err)
	}
	result := make([]*models.InsightRun, len(runs))
	for i := range runs {
		result[i] = &runs[i]
	}
	return result, nil
}

func (s *InsightStorage) SaveOutput(output *models.InsightOutput) error {
	if output.RunID == "" || output.Section == "" {
		return fmt.Errorf("output run ID and section are required")
	}
	if output.ID == "" {
		output.ID = output.RunID + ":" + output.Section
	}
	if output.CreatedAt.IsZero() {
		output.CreatedAt = time.Now()
	}
	if err := s.db.Store().Upsert(output.ID, output); err != nil {
		return fmt.Errorf("failed to save insight output: %w", err)
	}
	return nil
}

func (s *InsightStorage) GetOutputs(runID string) ([]*models.InsightOutput, error) {
	var outputs []models.InsightOutput
	if err := s.db.Store().Find(&outputs, badgerhold.Where("RunID").Eq(runID).Index("RunID")); err != nil {
		return nil, fmt.Errorf("failed to get insight outputs: %w", err)
	}
	result := make([]*models.InsightOutput, len(outputs))
	for i := range outputs {
		result[i] = &outputs[i]
	}
	return result, nil
}
