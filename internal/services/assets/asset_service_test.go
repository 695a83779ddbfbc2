package assets

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/causa/internal/common"
	"github.com/ternarybob/causa/internal/interfaces"
	"github.com/ternarybob/causa/internal/models"
	"github.com/ternarybob/causa/internal/queue"
	"github.com/ternarybob/causa/internal/services/content"
	badgerstore "github.com/ternarybob/causa/internal/storage/badger"
)

func testUploadsConfig() *common.UploadsConfig {
	return &common.UploadsConfig{
		MaxFileSize:       1 << 20,
		MaxFilesPerMatter: 3,
		AllowedExtensions: []string{".pdf", ".txt", ".jpg", ".eml"},
	}
}

// newTestService wires a real store, storage manager, and a pool whose
// worker marks each asset ready so submitted tasks complete quickly.
func newTestService(t *testing.T) (*Service, interfaces.StorageManager, *content.Store) {
	t.Helper()
	logger := arbor.NewLogger()

	manager, err := badgerstore.NewManager(logger, &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "causa.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	store, err := content.NewStore(filepath.Join(t.TempDir(), "content"), logger)
	require.NoError(t, err)

	pool := queue.NewPool(1, func(ctx context.Context, assetID string) error {
		asset, err := manager.AssetStorage().GetAsset(assetID)
		if err != nil {
			return err
		}
		asset.Status = models.AssetStatusReady
		return manager.AssetStorage().SaveAsset(asset)
	}, logger)
	t.Cleanup(pool.Shutdown)

	return NewService(manager, store, pool, testUploadsConfig(), logger), manager, store
}

func submitReq(name string) *interfaces.SubmitRequest {
	return &interfaces.SubmitRequest{
		MatterID:     "matter-1",
		OriginalName: name,
	}
}

func TestSubmitStoresAndQueues(t *testing.T) {
	svc, m, _ := newTestService(t)

	asset, task, err := svc.SubmitAndTrack(context.Background(), submitReq("contract.txt"),
		strings.NewReader("Term sheet for the asset purchase."))
	require.NoError(t, err)
	require.NoError(t, task.Wait(context.Background()))

	assert.Equal(t, models.FileKindText, asset.FileKind)
	assert.NotEmpty(t, asset.ContentHash)
	assert.FileExists(t, asset.StoragePath)

	got, err := m.AssetStorage().GetAsset(asset.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssetStatusReady, got.Status)
}

func TestSubmitRejectsMissingMatter(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), &interfaces.SubmitRequest{
		OriginalName: "contract.txt",
	}, strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid upload request")
}

func TestSubmitRejectsDisallowedExtension(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), submitReq("malware.exe"), strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed")

	_, err = svc.Submit(context.Background(), submitReq("noextension"), strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no extension")
}

func TestSubmitRejectsMimeMismatch(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := submitReq("scan.pdf")
	req.MimeType = "image/png"
	_, err := svc.Submit(context.Background(), req, strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match content type")
}

func TestSubmitRejectsOversizedFile(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := submitReq("big.pdf")
	req.Size = 2 << 20
	_, err := svc.Submit(context.Background(), req, strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum size")
}

func TestSubmitEnforcesMatterCeiling(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for i, name := range []string{"a.txt", "b.txt", "c.txt"} {
		_, err := svc.Submit(ctx, submitReq(name), strings.NewReader(name))
		require.NoError(t, err, "upload %d", i)
	}

	_, err := svc.Submit(ctx, submitReq("d.txt"), strings.NewReader("d"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum of 3 files")
}

func TestSubmitDedupSharesBytes(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, submitReq("original.txt"), strings.NewReader("identical bytes"))
	require.NoError(t, err)
	second, err := svc.Submit(ctx, submitReq("copy.txt"), strings.NewReader("identical bytes"))
	require.NoError(t, err)

	// Separate records preserve upload history; the stored file is shared
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.ContentHash, second.ContentHash)
	assert.Equal(t, first.StoragePath, second.StoragePath)
}

func TestDeleteKeepsSharedBytes(t *testing.T) {
	svc, m, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, submitReq("original.txt"), strings.NewReader("identical bytes"))
	require.NoError(t, err)
	second, err := svc.Submit(ctx, submitReq("copy.txt"), strings.NewReader("identical bytes"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAsset(ctx, first.ID))

	_, err = m.AssetStorage().GetAsset(first.ID)
	require.Error(t, err)
	assert.FileExists(t, second.StoragePath)

	// Deleting the last reference removes the bytes too
	require.NoError(t, svc.DeleteAsset(ctx, second.ID))
	_, err = os.Stat(second.StoragePath)
	assert.True(t, os.IsNotExist(err))
}

func TestReprocessRequiresTerminalStatus(t *testing.T) {
	svc, m, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, m.AssetStorage().SaveAsset(&models.Asset{
		ID:           "asset_busy",
		MatterID:     "matter-1",
		OriginalName: "busy.txt",
		FileKind:     models.FileKindText,
		Status:       models.AssetStatusProcessing,
	}))

	_, err := svc.Reprocess(ctx, "asset_busy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "still processing")
}

func TestReprocessRequeuesFailedAsset(t *testing.T) {
	svc, m, store := newTestService(t)
	ctx := context.Background()

	path, err := storeFixture(store, "matter-1", "retry.txt", "retry me")
	require.NoError(t, err)
	require.NoError(t, m.AssetStorage().SaveAsset(&models.Asset{
		ID:           "asset_retry",
		MatterID:     "matter-1",
		OriginalName: "retry.txt",
		FileKind:     models.FileKindText,
		StoragePath:  path,
		Status:       models.AssetStatusFailed,
		Error:        "transient extraction error",
	}))

	task, err := svc.Reprocess(ctx, "asset_retry")
	require.NoError(t, err)
	require.NoError(t, task.Wait(ctx))

	got, err := m.AssetStorage().GetAsset("asset_retry")
	require.NoError(t, err)
	assert.Equal(t, models.AssetStatusReady, got.Status)
	assert.Empty(t, got.Error)
}

func TestListAssetsPaginates(t *testing.T) {
	svc, m, _ := newTestService(t)
	ctx := context.Background()

	for _, id := range []string{"asset_a", "asset_b", "asset_c"} {
		require.NoError(t, m.AssetStorage().SaveAsset(&models.Asset{
			ID:           id,
			MatterID:     "matter-1",
			OriginalName: id + ".txt",
			FileKind:     models.FileKindText,
			Status:       models.AssetStatusQueued,
		}))
	}

	page1, err := svc.ListAssets(ctx, "matter-1", 1, 2)
	require.NoError(t, err)
	assert.Len(t, page1, 2)

	page2, err := svc.ListAssets(ctx, "matter-1", 2, 2)
	require.NoError(t, err)
	assert.Len(t, page2, 1)
}

func storeFixture(store *content.Store, matterID, name, text string) (string, error) {
	result, err := store.Save(matterID, strings.NewReader(text), name)
	if err != nil {
		return "", err
	}
	return result.Path, nil
}
