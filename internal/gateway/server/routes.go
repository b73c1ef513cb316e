package server

import (
	"net/http"

	"evaltrack/internal/gateway/handler"
	"evaltrack/internal/gateway/middleware"
)

func NewMux(h *handler.Service) http.Handler {
	mux := http.NewServeMux()

	// Runs
	mux.HandleFunc("GET /api/runs", h.HandleListRuns)
	mux.HandleFunc("POST /api/runs", h.HandleUpsertRun)
	mux.HandleFunc("GET /api/runs/pending", h.HandlePendingRuns)
	mux.HandleFunc("DELETE /api/runs/{id}", h.HandleDeleteRun)

	// Capture flow
	mux.HandleFunc("POST /api/capture/start", h.HandleCaptureStart)
	mux.HandleFunc("POST /api/capture/prompt", h.HandleCapturePrompt)
	mux.HandleFunc("POST /api/capture/complete", h.HandleCaptureComplete)
	mux.HandleFunc("POST /api/capture/import", h.HandleImportPrompts)
	mux.HandleFunc("POST /api/score", h.HandleScore)

	// Annotations
	mux.HandleFunc("GET /api/annotations", h.HandleListAnnotations)
	mux.HandleFunc("POST /api/annotations", h.HandleUpsertAnnotation)
	mux.HandleFunc("DELETE /api/annotations", h.HandleDeleteAnnotationsByMessage)
	mux.HandleFunc("DELETE /api/annotations/{id}", h.HandleDeleteAnnotation)

	// Planned fixes
	mux.HandleFunc("GET /api/planned-fixes", h.HandleListPlannedFixes)
	mux.HandleFunc("POST /api/planned-fixes", h.HandleUpsertPlannedFix)
	mux.HandleFunc("GET /api/planned-fixes/{id}", h.HandleGetPlannedFix)
	mux.HandleFunc("DELETE /api/planned-fixes/{id}", h.HandleDeletePlannedFix)

	// Aggregated issues
	mux.HandleFunc("GET /api/issues", h.HandleIssues)
	mux.HandleFunc("GET /api/issues/themes", h.HandleIssueThemes)

	// Artifact images
	mux.HandleFunc("POST /api/artifacts/{runId}/{file}", h.HandleUploadArtifact)
	mux.HandleFunc("GET /api/artifacts/{runId}/{file}", h.HandleGetArtifact)

	// Live change feed
	mux.HandleFunc("GET /api/events", h.HandleEventsWS)

	return middleware.CORS(mux)
}
