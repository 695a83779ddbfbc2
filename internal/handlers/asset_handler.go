package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/causa/internal/interfaces"
	"github.com/ternarybob/causa/internal/services/assets"
)

// AssetHandler handles HTTP requests for asset upload and lifecycle
type AssetHandler struct {
	assetService *assets.Service
	maxFileSize  int64
	logger       arbor.ILogger
}

// NewAssetHandler creates a new AssetHandler
func NewAssetHandler(assetService *assets.Service, maxFileSize int64, logger arbor.ILogger) *AssetHandler {
	return &AssetHandler{
		assetService: assetService,
		maxFileSize:  maxFileSize,
		logger:       logger,
	}
}

// UploadHandler handles POST /api/assets (multipart upload)
func (h *AssetHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	req := &interfaces.SubmitRequest{
		MatterID:        r.FormValue("matter_id"),
		OriginalName:    header.Filename,
		MimeType:        header.Header.Get("Content-Type"),
		OwnerID:         r.FormValue("owner_id"),
		Size:            header.Size,
		DocumentType:    r.FormValue("document_type"),
		Custodian:       r.FormValue("custodian"),
		Confidentiality: r.FormValue("confidentiality"),
	}

	asset, err := h.assetService.Submit(r.Context(), req, file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusAccepted, asset)
}

// ListHandler handles GET /api/assets?matter_id=&page=&limit=
func (h *AssetHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	matterID := r.URL.Query().Get("matter_id")
	if matterID == "" {
		WriteError(w, http.StatusBadRequest, "Missing matter_id parameter")
		return
	}

	page, limit := GetPaginationParams(r)
	list, err := h.assetService.ListAssets(r.Context(), matterID, page, limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"assets": list,
		"page":   page,
		"limit":  limit,
	})
}

// GetHandler handles GET /api/assets/{id}
func (h *AssetHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id := assetIDFromPath(r.URL.Path)
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Missing asset id")
		return
	}

	asset, err := h.assetService.GetAsset(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, asset)
}

// DeleteHandler handles DELETE /api/assets/{id}
func (h *AssetHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id := assetIDFromPath(r.URL.Path)
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Missing asset id")
		return
	}

	if err := h.assetService.DeleteAsset(r.Context(), id); err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	WriteSuccess(w, "Asset deleted")
}

// ReprocessHandler handles POST /api/assets/{id}/reprocess
func (h *AssetHandler) ReprocessHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	id := strings.TrimSuffix(assetIDFromPath(r.URL.Path), "/reprocess")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Missing asset id")
		return
	}

	if _, err := h.assetService.Reprocess(r.Context(), id); err != nil {
		WriteError(w, http.StatusConflict, err.Error())
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"status":  "started",
		"message": "Asset requeued for processing",
	})
}

func assetIDFromPath(path string) string {
	return strings.TrimPrefix(path, "/api/assets/")
}
