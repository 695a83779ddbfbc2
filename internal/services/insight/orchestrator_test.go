package insight

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/causa/internal/common"
	"github.com/ternarybob/causa/internal/interfaces"
	"github.com/ternarybob/causa/internal/models"
	"github.com/ternarybob/causa/internal/storage/badger"
)

// fakeLLM returns a canned chat response and records the prompt it was given
type fakeLLM struct {
	response string
	err      error
	lastMsgs []interfaces.Message
}

func (f *fakeLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	f.lastMsgs = messages
	return f.response, f.err
}

func (f *fakeLLM) TranscribeImage(ctx context.Context, imageData []byte, mediaType string, prompt string) (string, error) {
	return f.response, f.err
}

func (f *fakeLLM) Name() string { return "fake" }
func (f *fakeLLM) Close() error { return nil }

func testInsightConfig() *common.InsightConfig {
	return &common.InsightConfig{
		MaxDocuments:    20,
		ScopeThreshold:  50,
		MaxDocumentText: 10000,
		RunTimeout:      "30s",
	}
}

func newTestService(t *testing.T, llm interfaces.LLMService) (*Service, interfaces.StorageManager) {
	t.Helper()
	logger := arbor.NewLogger()
	storage, err := badger.NewManager(logger, &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "causa.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	svc := NewService(storage, llm, NewLoggingTaskBoard(logger), testInsightConfig(), logger)
	return svc, storage
}

func seedReadyDocument(t *testing.T, storage interfaces.StorageManager, assetID, matterID, text string) {
	t.Helper()
	require.NoError(t, storage.AssetStorage().SaveAsset(&models.Asset{
		ID:           assetID,
		MatterID:     matterID,
		OriginalName: assetID + ".txt",
		FileKind:     models.FileKindText,
		Status:       models.AssetStatusReady,
	}))
	require.NoError(t, storage.TextStorage().SaveTextUnit(&models.AssetText{
		AssetID:  assetID,
		MatterID: matterID,
		Method:   models.MethodExtractedText,
		Text:     text,
	}, nil, nil))
}

func waitForRun(t *testing.T, svc *Service, runID string) *models.InsightRun {
	t.Helper()
	var run *models.InsightRun
	require.Eventually(t, func() bool {
		var err error
		run, err = svc.GetRun(context.Background(), runID)
		if err != nil {
			return false
		}
		return run.Status == models.RunStatusComplete || run.Status == models.RunStatusFailed
	}, 5*time.Second, 10*time.Millisecond, "run did not reach a terminal state")
	return run
}

func TestStartRunRejectsUnknownIntent(t *testing.T) {
	svc, _ := newTestService(t, &fakeLLM{})

	_, err := svc.StartRun(context.Background(), &interfaces.StartRunRequest{
		MatterID: "matter-1",
		Intents:  []string{"themes", "astrology"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "astrology")
}

func TestStartRunRejectsEmptyIntents(t *testing.T) {
	svc, _ := newTestService(t, &fakeLLM{})

	_, err := svc.StartRun(context.Background(), &interfaces.StartRunRequest{
		MatterID: "matter-1",
		Intents:  []string{},
	})
	assert.Error(t, err)
}

func TestRunFailsWithoutDocuments(t *testing.T) {
	svc, _ := newTestService(t, &fakeLLM{response: "{}"})

	run, err := svc.StartRun(context.Background(), &interfaces.StartRunRequest{
		MatterID: "matter-empty",
		Intents:  []string{"themes"},
	})
	require.NoError(t, err, "the run is accepted; the failure surfaces in its status")

	final := waitForRun(t, svc, run.ID)
	assert.Equal(t, models.RunStatusFailed, final.Status)
	assert.Contains(t, final.Error, "no processed documents")
	assert.NotNil(t, final.CompletedAt)
}

func TestRunFailsWithoutProvider(t *testing.T) {
	svc, storage := newTestService(t, nil)
	seedReadyDocument(t, storage, "asset_1", "matter-1", "some text")

	run, err := svc.StartRun(context.Background(), &interfaces.StartRunRequest{
		MatterID: "matter-1",
		Intents:  []string{"themes"},
	})
	require.NoError(t, err)

	final := waitForRun(t, svc, run.ID)
	assert.Equal(t, models.RunStatusFailed, final.Status)
	assert.Contains(t, final.Error, "no language model provider")
}

func TestRunCompletesAndPersistsSections(t *testing.T) {
	llm := &fakeLLM{response: `Here is what I found:
{
  "themes": [{"theme": "late delivery", "summary": "supplier repeatedly missed deadlines", "confidence": 0.9,
              "citations": [{"assetId": "asset_1", "filename": "asset_1.txt", "snippet": "missed the deadline"}]}],
  "unrequested_extra": [{"whatever": true}]
}`}
	svc, storage := newTestService(t, llm)
	seedReadyDocument(t, storage, "asset_1", "matter-1", "The supplier missed the deadline again in March.")

	run, err := svc.StartRun(context.Background(), &interfaces.StartRunRequest{
		MatterID: "matter-1",
		Intents:  []string{"themes", "risks"},
	})
	require.NoError(t, err)

	final := waitForRun(t, svc, run.ID)
	require.Equal(t, models.RunStatusComplete, final.Status, "error: %s", final.Error)
	assert.NotNil(t, final.StartedAt)
	assert.NotNil(t, final.CompletedAt)

	outputs, err := svc.GetOutputs(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Contains(t, outputs, "themes")
	// risks was requested but absent from the response: silently omitted
	assert.NotContains(t, outputs, "risks")
	// extra top-level keys are tolerated but never persisted
	assert.NotContains(t, outputs, "unrequested_extra")

	// The prompt carried the document context and both intents
	require.Len(t, llm.lastMsgs, 2)
	prompt := llm.lastMsgs[1].Content
	assert.Contains(t, prompt, "asset_1.txt")
	assert.Contains(t, prompt, "missed the deadline")
	assert.Contains(t, prompt, `"themes"`)
	assert.Contains(t, prompt, `"risks"`)
}

func TestRunFailsOnUnparsableResponse(t *testing.T) {
	svc, storage := newTestService(t, &fakeLLM{response: "I am sorry, I cannot help with that."})
	seedReadyDocument(t, storage, "asset_1", "matter-1", "text")

	run, err := svc.StartRun(context.Background(), &interfaces.StartRunRequest{
		MatterID: "matter-1",
		Intents:  []string{"themes"},
	})
	require.NoError(t, err)

	final := waitForRun(t, svc, run.ID)
	assert.Equal(t, models.RunStatusFailed, final.Status)
	assert.Contains(t, final.Error, "no JSON")
}

func TestRunScopeRecentCount(t *testing.T) {
	llm := &fakeLLM{response: `{"themes": []}`}
	svc, storage := newTestService(t, llm)

	seedReadyDocument(t, storage, "asset_old", "matter-1", "oldest document body")
	time.Sleep(5 * time.Millisecond)
	seedReadyDocument(t, storage, "asset_new", "matter-1", "newest document body")

	run, err := svc.StartRun(context.Background(), &interfaces.StartRunRequest{
		MatterID: "matter-1",
		Intents:  []string{"themes"},
		Scope:    &models.RunScope{RecentCount: 1},
	})
	require.NoError(t, err)
	waitForRun(t, svc, run.ID)

	prompt := llm.lastMsgs[1].Content
	assert.Contains(t, prompt, "newest document body")
	assert.NotContains(t, prompt, "oldest document body")
}

func TestRunExcludesTextOfNonReadyAssets(t *testing.T) {
	llm := &fakeLLM{response: `{"themes": []}`}
	svc, storage := newTestService(t, llm)

	seedReadyDocument(t, storage, "asset_good", "matter-1", "healthy document body")

	// A failed reprocess leaves the asset failed with its previous text
	// unit still stored; that text must never reach the model
	require.NoError(t, storage.AssetStorage().SaveAsset(&models.Asset{
		ID:           "asset_stale",
		MatterID:     "matter-1",
		OriginalName: "asset_stale.txt",
		FileKind:     models.FileKindText,
		Status:       models.AssetStatusFailed,
		Error:        "reprocess failed",
	}))
	require.NoError(t, storage.TextStorage().SaveTextUnit(&models.AssetText{
		AssetID:  "asset_stale",
		MatterID: "matter-1",
		Method:   models.MethodExtractedText,
		Text:     "stale text from a failed asset",
	}, nil, nil))

	run, err := svc.StartRun(context.Background(), &interfaces.StartRunRequest{
		MatterID: "matter-1",
		Intents:  []string{"themes"},
	})
	require.NoError(t, err)

	final := waitForRun(t, svc, run.ID)
	require.Equal(t, models.RunStatusComplete, final.Status, "error: %s", final.Error)

	prompt := llm.lastMsgs[1].Content
	assert.Contains(t, prompt, "healthy document body")
	assert.NotContains(t, prompt, "stale text from a failed asset")
	assert.NotContains(t, prompt, "asset_stale.txt")
}

func TestRunDocumentOrderFollowsRecencyRule(t *testing.T) {
	llm := &fakeLLM{response: `{"themes": []}`}
	svc, storage := newTestService(t, llm)

	seedReadyDocument(t, storage, "asset_old", "matter-1", "earliest filing text")
	time.Sleep(5 * time.Millisecond)
	seedReadyDocument(t, storage, "asset_new", "matter-1", "latest filing text")

	// Default: documents read chronologically, oldest first
	run, err := svc.StartRun(context.Background(), &interfaces.StartRunRequest{
		MatterID: "matter-1",
		Intents:  []string{"themes"},
	})
	require.NoError(t, err)
	waitForRun(t, svc, run.ID)

	prompt := llm.lastMsgs[1].Content
	assert.Less(t, strings.Index(prompt, "earliest filing text"), strings.Index(prompt, "latest filing text"))

	// With the recency rule the newest document leads
	run, err = svc.StartRun(context.Background(), &interfaces.StartRunRequest{
		MatterID: "matter-1",
		Intents:  []string{"themes"},
		Rules:    &models.PriorityRules{PreferRecent: true},
	})
	require.NoError(t, err)
	waitForRun(t, svc, run.ID)

	prompt = llm.lastMsgs[1].Content
	assert.Less(t, strings.Index(prompt, "latest filing text"), strings.Index(prompt, "earliest filing text"))
}

func TestMaterializeActionItems(t *testing.T) {
	svc, storage := newTestService(t, &fakeLLM{})

	now := time.Now()
	require.NoError(t, storage.InsightStorage().SaveRun(&models.InsightRun{
		ID:          "run_1",
		MatterID:    "matter-1",
		Intents:     "action_items",
		Status:      models.RunStatusComplete,
		CompletedAt: &now,
	}))
	require.NoError(t, storage.InsightStorage().SaveOutput(&models.InsightOutput{
		RunID:   "run_1",
		Section: models.IntentActionItems,
		Content: []byte(`[
			{"title": "File response brief", "description": "Due in 14 days", "confidence": 0.9,
			 "citations": [{"assetId": "asset_1", "filename": "order.pdf", "snippet": "within 14 days"}]},
			{"title": "Confirm custodian list", "confidence": 0.6, "citations": []},
			{"title": "Maybe follow up", "confidence": 0.2, "citations": []}
		]`),
	}))

	items, err := svc.MaterializeActionItems(context.Background(), "run_1")
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "high", items[0].Priority)
	assert.Equal(t, "medium", items[1].Priority)
	assert.Equal(t, "low", items[2].Priority)
	assert.Equal(t, "matter-1", items[0].MatterID)
	assert.Contains(t, items[0].Description, "order.pdf", "citations are embedded as free text")
}

func TestMaterializeActionItemsRequiresCompleteRun(t *testing.T) {
	svc, storage := newTestService(t, &fakeLLM{})

	require.NoError(t, storage.InsightStorage().SaveRun(&models.InsightRun{
		ID:       "run_1",
		MatterID: "matter-1",
		Intents:  "action_items",
		Status:   models.RunStatusRunning,
	}))

	_, err := svc.MaterializeActionItems(context.Background(), "run_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not complete")
}
