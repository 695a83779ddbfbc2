package badger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/causa/internal/interfaces"
	"github.com/ternarybob/causa/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// AuditStorage implements the AuditStorage interface for Badger.
// Audit records are append-only; there is no update or delete path.
type AuditStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAuditStorage creates a new AuditStorage instance
func NewAuditStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AuditStorage {
	return &AuditStorage{
		db:     db,
		logger: logger,
	}
}

func (s *AuditStorage) AppendAudit(audit *models.ExtractionAudit) error {
	if audit.AssetID == "" {
		return fmt.Errorf("audit asset ID is required")
	}
	if audit.ID == "" {
		audit.ID = "audit_" + uuid.New().String()
	}
	if audit.Timestamp.IsZero() {
		audit.Timestamp = time.Now()
	}
	if err := s.db.Store().Insert(audit.ID, audit); err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

func (s *AuditStorage) ListAudits(assetID string) ([]*models.ExtractionAudit, error) {
	var audits []models.ExtractionAudit
	if err := s.db.Store().Find(&audits, badgerhold.Where("AssetID").Eq(assetID).Index("AssetID").SortBy("Timestamp")); err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	result := make([]*models.ExtractionAudit, len(audits))
	for i := range audits {
		result[i] = &audits[i]
	}
	return result, nil
}
