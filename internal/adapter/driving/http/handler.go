// Package httphandler is the HTTP driving adapter that serves the REST API.
package httphandler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mardi4nfdi/mardikit/internal/application"
)

// Handler serves the REST API. The archive and publish services are nil when
// the corresponding backend is not configured; their endpoints then return
// 503.
type Handler struct {
	lookupSvc  *application.LookupService
	archiveSvc *application.ArchiveService
	publishSvc *application.PublishService
	healthSvc  *application.HealthService
	logger     *slog.Logger
}

// NewHandler creates a Handler. archiveSvc and publishSvc may be nil.
func NewHandler(
	lookupSvc *application.LookupService,
	archiveSvc *application.ArchiveService,
	publishSvc *application.PublishService,
	healthSvc *application.HealthService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		lookupSvc:  lookupSvc,
		archiveSvc: archiveSvc,
		publishSvc: publishSvc,
		healthSvc:  healthSvc,
		logger:     logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/publications/arxiv/{id}", h.LookupArxiv)
	mux.HandleFunc("GET /api/v1/publications/doi/{doi...}", h.LookupDOI)
	mux.HandleFunc("POST /api/v1/archive", h.Archive)
	mux.HandleFunc("POST /api/v1/publish", h.Publish)
	mux.HandleFunc("GET /api/v1/pins", h.ListPins)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// LookupArxiv returns publications mentioning an arXiv identifier.
func (h *Handler) LookupArxiv(w http.ResponseWriter, r *http.Request) {
	arxivID := r.PathValue("id")
	if arxivID == "" {
		writeError(w, http.StatusBadRequest, "missing arXiv identifier")
		return
	}

	result, err := h.lookupSvc.LookupArxiv(r.Context(), arxivID, refreshRequested(r))
	if err != nil {
		h.logger.Error("arxiv lookup failed", "arxiv_id", arxivID, "error", err)
		writeError(w, http.StatusBadGateway, "knowledge graph query failed")
		return
	}

	writeJSON(w, http.StatusOK, toLookupResponse(result))
}

// LookupDOI returns publications mentioning a DOI. The DOI is taken from the
// remaining path so identifiers with slashes need no encoding.
func (h *Handler) LookupDOI(w http.ResponseWriter, r *http.Request) {
	doi := r.PathValue("doi")
	if doi == "" {
		writeError(w, http.StatusBadRequest, "missing DOI")
		return
	}

	result, err := h.lookupSvc.LookupDOI(r.Context(), doi, refreshRequested(r))
	if err != nil {
		h.logger.Error("doi lookup failed", "doi", doi, "error", err)
		writeError(w, http.StatusBadGateway, "knowledge graph query failed")
		return
	}

	writeJSON(w, http.StatusOK, toLookupResponse(result))
}

// refreshRequested reports whether the request asks to bypass the cache.
func refreshRequested(r *http.Request) bool {
	v := r.URL.Query().Get("refresh")
	return v == "1" || v == "true"
}

// Archive uploads server-local files into the archive repository and commits.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	if h.archiveSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "archive backend not configured")
		return
	}

	var req ArchiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Paths) == 0 {
		writeError(w, http.StatusBadRequest, "paths must not be empty")
		return
	}
	if req.Subpath == "" {
		writeError(w, http.StatusBadRequest, "subpath must not be empty")
		return
	}

	commitID, err := h.archiveSvc.Archive(r.Context(), req.Paths, req.Subpath, req.Message)
	if err != nil {
		h.logger.Error("archive failed", "subpath", req.Subpath, "error", err)
		writeError(w, http.StatusBadGateway, "archive upload failed")
		return
	}

	writeJSON(w, http.StatusOK, ArchiveResponse{CommitID: commitID, Committed: commitID != ""})
}

// Publish adds a server-local file to IPFS.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	if h.publishSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "ipfs backend not configured")
		return
	}

	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path must not be empty")
		return
	}

	result, err := h.publishSvc.Publish(r.Context(), req.Path, req.Pin, req.Tag)
	if err != nil {
		h.logger.Error("publish failed", "path", req.Path, "error", err)
		writeError(w, http.StatusBadGateway, "ipfs publish failed")
		return
	}

	writeJSON(w, http.StatusOK, toPublishResponse(result))
}

// ListPins returns the pinned CIDs of the IPFS node.
func (h *Handler) ListPins(w http.ResponseWriter, r *http.Request) {
	if h.publishSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "ipfs backend not configured")
		return
	}

	pins, err := h.publishSvc.Pins(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		h.logger.Error("pin listing failed", "error", err)
		writeError(w, http.StatusBadGateway, "pin listing failed")
		return
	}

	resp := make([]PinResponse, 0, len(pins))
	for _, p := range pins {
		resp = append(resp, PinResponse{CID: p.CID, Type: p.Type})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health reports the status of the configured backends. The status code is
// 200 when all probes pass and 503 otherwise.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	report := h.healthSvc.Check(r.Context())

	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}
