package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/causa/internal/interfaces"
)

// InsightHandler handles HTTP requests for insight runs
type InsightHandler struct {
	insightService interfaces.InsightService
	logger         arbor.ILogger
}

// NewInsightHandler creates a new InsightHandler
func NewInsightHandler(insightService interfaces.InsightService, logger arbor.ILogger) *InsightHandler {
	return &InsightHandler{
		insightService: insightService,
		logger:         logger,
	}
}

// StartRunHandler handles POST /api/insights
func (h *InsightHandler) StartRunHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req interfaces.StartRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	run, err := h.insightService.StartRun(r.Context(), &req)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusAccepted, run)
}

// ListRunsHandler handles GET /api/insights?matter_id=
func (h *InsightHandler) ListRunsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	matterID := r.URL.Query().Get("matter_id")
	if matterID == "" {
		WriteError(w, http.StatusBadRequest, "Missing matter_id parameter")
		return
	}

	runs, err := h.insightService.ListRuns(r.Context(), matterID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// GetRunHandler handles GET /api/insights/{id}
func (h *InsightHandler) GetRunHandler(w http.ResponseWriter, r *http.Request) {
	id := runIDFromPath(r.URL.Path)
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Missing run id")
		return
	}

	run, err := h.insightService.GetRun(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, run)
}

// GetOutputsHandler handles GET /api/insights/{id}/outputs
func (h *InsightHandler) GetOutputsHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(runIDFromPath(r.URL.Path), "/outputs")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Missing run id")
		return
	}

	outputs, err := h.insightService.GetOutputs(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, outputs)
}

// ActionItemsHandler handles POST /api/insights/{id}/action-items
func (h *InsightHandler) ActionItemsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	id := strings.TrimSuffix(runIDFromPath(r.URL.Path), "/action-items")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Missing run id")
		return
	}

	items, err := h.insightService.MaterializeActionItems(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusConflict, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"created": len(items),
		"items":   items,
	})
}

func runIDFromPath(path string) string {
	return strings.TrimPrefix(path, "/api/insights/")
}
