package assets

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/causa/internal/common"
	"github.com/ternarybob/causa/internal/interfaces"
	"github.com/ternarybob/causa/internal/models"
	"github.com/ternarybob/causa/internal/queue"
	"github.com/ternarybob/causa/internal/services/content"
	"github.com/ternarybob/causa/internal/services/extract"
)

// Service implements the collaborator-facing asset operations. Upload
// admission (extension/MIME pairing, size and per-matter ceilings) is
// enforced synchronously before storage is touched.
type Service struct {
	storage  interfaces.StorageManager
	store    *content.Store
	pool     *queue.Pool
	uploads  *common.UploadsConfig
	validate *validator.Validate
	logger   arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.AssetService = (*Service)(nil)

// NewService creates a new asset service
func NewService(storage interfaces.StorageManager, store *content.Store, pool *queue.Pool, uploads *common.UploadsConfig, logger arbor.ILogger) *Service {
	return &Service{
		storage:  storage,
		store:    store,
		pool:     pool,
		uploads:  uploads,
		validate: validator.New(),
		logger:   logger,
	}
}

// Submit validates the upload, stores the bytes, creates a queued Asset
// record, and schedules processing. The processing handoff is asynchronous
// and does not block the caller.
func (s *Service) Submit(ctx context.Context, req *interfaces.SubmitRequest, body io.Reader) (*models.Asset, error) {
	asset, _, err := s.submit(ctx, req, body)
	return asset, err
}

// SubmitAndTrack is Submit returning the queue task handle so tests and
// internal callers can deterministically wait for processing completion.
func (s *Service) SubmitAndTrack(ctx context.Context, req *interfaces.SubmitRequest, body io.Reader) (*models.Asset, *queue.Task, error) {
	return s.submit(ctx, req, body)
}

func (s *Service) submit(ctx context.Context, req *interfaces.SubmitRequest, body io.Reader) (*models.Asset, *queue.Task, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, nil, fmt.Errorf("invalid upload request: %w", err)
	}
	if err := s.admit(req); err != nil {
		return nil, nil, err
	}

	result, err := s.store.Save(req.MatterID, body, req.OriginalName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to store upload: %w", err)
	}

	asset := &models.Asset{
		ID:              common.NewAssetID(),
		MatterID:        req.MatterID,
		OwnerID:         req.OwnerID,
		OriginalName:    req.OriginalName,
		FileKind:        extract.DetectKind(req.OriginalName, req.MimeType),
		ContentHash:     result.Hash,
		SizeBytes:       result.SizeBytes,
		StoragePath:     result.Path,
		Status:          models.AssetStatusQueued,
		DocumentType:    req.DocumentType,
		Custodian:       req.Custodian,
		Confidentiality: req.Confidentiality,
	}

	if err := s.storage.AssetStorage().SaveAsset(asset); err != nil {
		// No orphaned bytes: undo the copy unless an earlier upload owns it
		if !result.Deduped {
			s.store.Delete(result.Path)
		}
		return nil, nil, fmt.Errorf("failed to save asset record: %w", err)
	}

	task := s.pool.Submit(asset.ID)

	s.logger.Info().
		Str("asset_id", asset.ID).
		Str("matter_id", asset.MatterID).
		Str("kind", string(asset.FileKind)).
		Bool("deduped", result.Deduped).
		Msg("Asset submitted")

	return asset, task, nil
}

// admit enforces upload ceilings and the extension allow-list before any
// bytes are written.
func (s *Service) admit(req *interfaces.SubmitRequest) error {
	ext := strings.ToLower(filepath.Ext(req.OriginalName))
	if ext == "" {
		return fmt.Errorf("file %q has no extension", req.OriginalName)
	}

	allowed := false
	for _, a := range s.uploads.AllowedExtensions {
		if ext == a {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("file type %q is not allowed", ext)
	}

	if req.MimeType != "" && extract.DetectKind(req.OriginalName, "") != models.FileKindOther {
		// Extension and MIME must agree on the detected kind when both are present
		byExt := extract.DetectKind(req.OriginalName, "")
		byMime := extract.DetectKind("", req.MimeType)
		if byMime != models.FileKindOther && byMime != byExt {
			return fmt.Errorf("file extension %q does not match content type %q", ext, req.MimeType)
		}
	}

	if req.Size > 0 && req.Size > s.uploads.MaxFileSize {
		return fmt.Errorf("file exceeds maximum size of %d bytes", s.uploads.MaxFileSize)
	}

	count, err := s.storage.AssetStorage().CountAssetsByMatter(req.MatterID)
	if err != nil {
		return fmt.Errorf("failed to check matter file count: %w", err)
	}
	if count >= s.uploads.MaxFilesPerMatter {
		return fmt.Errorf("matter has reached the maximum of %d files", s.uploads.MaxFilesPerMatter)
	}

	return nil
}

// GetAsset returns one asset by ID
func (s *Service) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	return s.storage.AssetStorage().GetAsset(id)
}

// ListAssets returns one page of a matter's assets, newest first
func (s *Service) ListAssets(ctx context.Context, matterID string, page, limit int) ([]*models.Asset, error) {
	if limit <= 0 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}
	return s.storage.AssetStorage().ListAssets(&interfaces.ListOptions{
		MatterID: matterID,
		Limit:    limit,
		Offset:   (page - 1) * limit,
	})
}

// Reprocess re-enqueues a terminal asset. The processor replaces the text
// unit wholesale, so a reprocess is a delete-then-recreate of the extracted
// text without touching the stored bytes.
func (s *Service) Reprocess(ctx context.Context, id string) (*queue.Task, error) {
	asset, err := s.storage.AssetStorage().GetAsset(id)
	if err != nil {
		return nil, err
	}
	if !asset.Status.IsTerminal() {
		return nil, fmt.Errorf("asset %s is still %s", id, asset.Status)
	}

	asset.Status = models.AssetStatusQueued
	asset.Error = ""
	if err := s.storage.AssetStorage().SaveAsset(asset); err != nil {
		return nil, fmt.Errorf("failed to requeue asset: %w", err)
	}

	s.logger.Info().Str("asset_id", id).Msg("Asset requeued for reprocessing")
	return s.pool.Submit(id), nil
}

// DeleteAsset removes the asset record, its text unit, and the stored bytes.
// Bytes shared with another asset record (dedup) are kept.
func (s *Service) DeleteAsset(ctx context.Context, id string) error {
	asset, err := s.storage.AssetStorage().GetAsset(id)
	if err != nil {
		return err
	}

	if err := s.storage.TextStorage().DeleteTextUnit(id); err != nil {
		return fmt.Errorf("failed to delete text unit: %w", err)
	}
	if err := s.storage.AssetStorage().DeleteAsset(id); err != nil {
		return err
	}

	// Only remove bytes when no surviving record references the same path
	siblings, err := s.storage.AssetStorage().ListAssets(&interfaces.ListOptions{MatterID: asset.MatterID})
	if err == nil {
		for _, sibling := range siblings {
			if sibling.StoragePath == asset.StoragePath {
				s.logger.Debug().Str("asset_id", id).Msg("Stored bytes shared with another asset, keeping file")
				return nil
			}
		}
	}
	if err := s.store.Delete(asset.StoragePath); err != nil {
		return err
	}

	s.logger.Info().Str("asset_id", id).Msg("Asset deleted")
	return nil
}
