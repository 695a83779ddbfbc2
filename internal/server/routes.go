package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Assets
	mux.HandleFunc("/api/assets", s.handleAssetsRoute)  // GET (list), POST (upload)
	mux.HandleFunc("/api/assets/", s.handleAssetRoutes) // GET/DELETE /{id}, POST /{id}/reprocess

	// API routes - Matter summaries
	mux.HandleFunc("/api/matters/", s.handleMatterRoutes) // GET /{id}/summary, /{id}/summary/pdf

	// API routes - Insight runs
	mux.HandleFunc("/api/insights", s.handleInsightsRoute)  // GET (list), POST (start)
	mux.HandleFunc("/api/insights/", s.handleInsightRoutes) // GET /{id}, /{id}/outputs, POST /{id}/action-items

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)
	mux.HandleFunc("/api/health", s.app.StatusHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.StatusHandler.VersionHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.StatusHandler.NotFoundHandler)

	return mux
}

// handleAssetsRoute routes /api/assets requests (list and upload)
func (s *Server) handleAssetsRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		s.app.AssetHandler.ListHandler(w, r)
	case "POST":
		s.app.AssetHandler.UploadHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAssetRoutes routes /api/assets/{id} requests
func (s *Server) handleAssetRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method == "POST" && strings.HasSuffix(r.URL.Path, "/reprocess") {
		s.app.AssetHandler.ReprocessHandler(w, r)
		return
	}

	switch r.Method {
	case "GET":
		s.app.AssetHandler.GetHandler(w, r)
	case "DELETE":
		s.app.AssetHandler.DeleteHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleMatterRoutes routes /api/matters/{id}/summary requests
func (s *Server) handleMatterRoutes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if strings.HasSuffix(path, "/summary/pdf") {
		s.app.SummaryHandler.GetSummaryPDFHandler(w, r)
		return
	}
	if strings.HasSuffix(path, "/summary") {
		s.app.SummaryHandler.GetSummaryHandler(w, r)
		return
	}

	http.Error(w, "Not found", http.StatusNotFound)
}

// handleInsightsRoute routes /api/insights requests (list and start)
func (s *Server) handleInsightsRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		s.app.InsightHandler.ListRunsHandler(w, r)
	case "POST":
		s.app.InsightHandler.StartRunHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleInsightRoutes routes /api/insights/{id} requests and subpaths
func (s *Server) handleInsightRoutes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if r.Method == "POST" && strings.HasSuffix(path, "/action-items") {
		s.app.InsightHandler.ActionItemsHandler(w, r)
		return
	}
	if r.Method == "GET" && strings.HasSuffix(path, "/outputs") {
		s.app.InsightHandler.GetOutputsHandler(w, r)
		return
	}
	if r.Method == "GET" {
		s.app.InsightHandler.GetRunHandler(w, r)
		return
	}

	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}
