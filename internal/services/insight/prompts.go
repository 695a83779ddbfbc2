package insight

import (
	"fmt"
	"strings"

	"github.com/ternarybob/causa/internal/models"
)

const systemPreamble = `You are a legal document analyst. You are given the extracted text of documents belonging to a single legal matter, followed by one or more analysis tasks.

Rules:
- Base every statement only on the provided document text. Never invent facts.
- Respond with a single JSON object and nothing else. Its keys must be exactly the requested task names, each holding an array of records.
- Every record must include a "citations" array. Each citation is an object {"assetId": "...", "filename": "...", "snippet": "..."} pointing at the document text that supports the record.
- Every record must include a "confidence" number between 0 and 1.
- If a task yields no findings, return an empty array for that key.`

// intentInstructions holds the fixed per-intent instruction block appended to
// the prompt for each requested intent.
var intentInstructions = map[string]string{
	models.IntentThemes: `"themes": identify the recurring themes across the documents. Each record: {"theme": "...", "summary": "...", "confidence": 0.0, "citations": [...]}.`,

	models.IntentTimeline: `"timeline": reconstruct a chronology of events mentioned in the documents, oldest first. Each record: {"date": "YYYY-MM-DD or as written", "event": "...", "confidence": 0.0, "citations": [...]}.`,

	models.IntentEntities: `"entities": list the people and organizations that appear, with their role in the matter. Each record: {"name": "...", "role": "...", "entity_type": "person|organization|other", "confidence": 0.0, "citations": [...]}.`,

	models.IntentContradictions: `"contradictions": find statements in different documents that conflict with each other. Each record: {"description": "...", "confidence": 0.0, "citations": [...]} with citations for each side of the conflict.`,

	models.IntentActionItems: `"action_items": list concrete follow-up tasks the documents call for, such as deadlines, required filings, or outstanding requests. Each record: {"title": "...", "description": "...", "confidence": 0.0, "citations": [...]}.`,

	models.IntentRisks: `"risks": identify legal or factual risks the documents expose. Each record: {"risk": "...", "severity": "high|medium|low", "confidence": 0.0, "citations": [...]}.`,

	models.IntentToneAnalysis: `"tone_analysis": characterize the tone of the correspondence per document or correspondent. Each record: {"subject": "...", "tone": "...", "notes": "...", "confidence": 0.0, "citations": [...]}.`,

	models.IntentConsistencyCheck: `"consistency_check": check whether facts repeated across documents stay consistent. Each record: {"finding": "...", "status": "consistent|inconsistent|unclear", "confidence": 0.0, "citations": [...]}.`,
}

// promptDocument is one gathered document as it appears in the prompt
type promptDocument struct {
	AssetID  string
	Filename string
	Text     string
}

// composePrompt builds the single user prompt for a run: instruction blocks
// for each requested intent, then a context block per gathered document with
// the text truncated to maxDocText runes.
func composePrompt(run *models.InsightRun, docs []*promptDocument, maxDocText int) string {
	var sb strings.Builder

	sb.WriteString("Tasks:\n")
	for _, intent := range run.IntentList() {
		if instruction, ok := intentInstructions[intent]; ok {
			sb.WriteString("- ")
			sb.WriteString(instruction)
			sb.WriteString("\n")
		}
	}

	if run.FormatHint != "" {
		sb.WriteString("\nOutput formatting hint: ")
		sb.WriteString(run.FormatHint)
		sb.WriteString("\n")
	}

	sb.WriteString("\nDocuments:\n")
	for _, doc := range docs {
		text := doc.Text
		if maxDocText > 0 {
			if runes := []rune(text); len(runes) > maxDocText {
				text = string(runes[:maxDocText]) + "\n[...truncated]"
			}
		}
		sb.WriteString(fmt.Sprintf("\n--- Document: %s (asset id: %s) ---\n%s\n", doc.Filename, doc.AssetID, text))
	}

	sb.WriteString("\nReturn the JSON object now.")
	return sb.String()
}
