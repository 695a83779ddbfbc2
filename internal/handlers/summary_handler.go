package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/causa/internal/interfaces"
)

// SummaryHandler handles HTTP requests for matter scan summaries
type SummaryHandler struct {
	summaryService interfaces.SummaryService
	logger         arbor.ILogger
}

// NewSummaryHandler creates a new SummaryHandler
func NewSummaryHandler(summaryService interfaces.SummaryService, logger arbor.ILogger) *SummaryHandler {
	return &SummaryHandler{
		summaryService: summaryService,
		logger:         logger,
	}
}

// GetSummaryHandler handles GET /api/matters/{id}/summary
func (h *SummaryHandler) GetSummaryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	matterID := matterIDFromPath(r.URL.Path, "/summary")
	if matterID == "" {
		WriteError(w, http.StatusBadRequest, "Missing matter id")
		return
	}

	result, err := h.summaryService.Summarize(r.Context(), matterID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// GetSummaryPDFHandler handles GET /api/matters/{id}/summary/pdf
func (h *SummaryHandler) GetSummaryPDFHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	matterID := matterIDFromPath(r.URL.Path, "/summary/pdf")
	if matterID == "" {
		WriteError(w, http.StatusBadRequest, "Missing matter id")
		return
	}

	data, err := h.summaryService.RenderPDF(r.Context(), matterID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "scan-summary-"+matterID+".pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func matterIDFromPath(path, suffix string) string {
	trimmed := strings.TrimPrefix(path, "/api/matters/")
	return strings.TrimSuffix(trimmed, suffix)
}
