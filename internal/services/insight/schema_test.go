package insight

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/causa/internal/models"
)

func TestExtractJSONPlain(t *testing.T) {
	got, err := extractJSON(`{"themes": []}`)
	require.NoError(t, err)
	assert.Equal(t, `{"themes": []}`, got)
}

func TestExtractJSONLeadingProse(t *testing.T) {
	got, err := extractJSON("Here is the analysis you asked for:\n{\"themes\": [{\"theme\": \"x\"}]}\nLet me know if you need more.")
	require.NoError(t, err)

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(got), &payload))
	assert.Contains(t, payload, "themes")
}

func TestExtractJSONCodeFence(t *testing.T) {
	got, err := extractJSON("```json\n{\"risks\": []}\n```")
	require.NoError(t, err)
	assert.JSONEq(t, `{"risks": []}`, got)
}

func TestExtractJSONNoObject(t *testing.T) {
	_, err := extractJSON("I could not produce any structured output.")
	assert.Error(t, err)
}

func TestValidateSectionCoercion(t *testing.T) {
	raw := json.RawMessage(`[
		{"theme": "payment delays", "summary": "recurring late payments"},
		{"theme": "termination", "confidence": 0.85, "citations": [{"assetId": "asset_1", "filename": "a.pdf", "snippet": "notice"}]}
	]`)

	content, dropped, err := validateSection(models.IntentThemes, raw)
	require.NoError(t, err)
	assert.Zero(t, dropped)

	var records []ThemeRecord
	require.NoError(t, json.Unmarshal(content, &records))
	require.Len(t, records, 2)

	// Missing confidence defaults to 0.5, missing citations to empty
	require.NotNil(t, records[0].Confidence)
	assert.Equal(t, 0.5, *records[0].Confidence)
	assert.NotNil(t, records[0].Citations)
	assert.Empty(t, records[0].Citations)

	assert.Equal(t, 0.85, *records[1].Confidence)
	require.Len(t, records[1].Citations, 1)
	assert.Equal(t, "asset_1", records[1].Citations[0].AssetID)
}

func TestValidateSectionDropsInvalidRecords(t *testing.T) {
	raw := json.RawMessage(`[
		{"date": "2024-01-05", "event": "contract signed"},
		{"event": "missing its date"},
		{"date": "2024-02-01"}
	]`)

	content, dropped, err := validateSection(models.IntentTimeline, raw)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)

	var records []TimelineRecord
	require.NoError(t, json.Unmarshal(content, &records))
	assert.Len(t, records, 1)
}

func TestValidateSectionAllInvalid(t *testing.T) {
	content, dropped, err := validateSection(models.IntentRisks, json.RawMessage(`[{"severity": "high"}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
	assert.Nil(t, content, "a fully emptied section is omitted")
}

func TestValidateSectionNotAnArray(t *testing.T) {
	_, _, err := validateSection(models.IntentThemes, json.RawMessage(`{"theme": "not wrapped"}`))
	assert.Error(t, err)
}

func TestValidateSectionUnknownKey(t *testing.T) {
	_, _, err := validateSection("extra_section", json.RawMessage(`[]`))
	assert.Error(t, err)
}
