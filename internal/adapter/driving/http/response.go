package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mardi4nfdi/mardikit/internal/application"
	"github.com/mardi4nfdi/mardikit/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// PublicationResponse is the JSON representation of a publication match.
type PublicationResponse struct {
	QID     string `json:"qid,omitempty"`
	ArxivID string `json:"arxiv_id,omitempty"`
	DOI     string `json:"doi,omitempty"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// LookupResponse is the JSON representation of a lookup result.
type LookupResponse struct {
	Matches   []PublicationResponse `json:"matches"`
	FromCache bool                  `json:"from_cache"`
	FetchedAt string                `json:"fetched_at"`
}

// ArchiveRequest is the JSON body for the archive endpoint. Paths are
// server-local files.
type ArchiveRequest struct {
	Paths   []string `json:"paths"`
	Subpath string   `json:"subpath"`
	Message string   `json:"message"`
}

// ArchiveResponse is the JSON representation of an archive result.
// CommitID is empty when the upload changed nothing.
type ArchiveResponse struct {
	CommitID  string `json:"commit_id"`
	Committed bool   `json:"committed"`
}

// PublishRequest is the JSON body for the publish endpoint. Path is a
// server-local file; Tag is an optional MFS path for the resulting CID.
type PublishRequest struct {
	Path string `json:"path"`
	Pin  bool   `json:"pin"`
	Tag  string `json:"tag"`
}

// PublishResponse is the JSON representation of a publish result.
type PublishResponse struct {
	CID        string `json:"cid"`
	GatewayURL string `json:"gateway_url"`
	Tag        string `json:"tag,omitempty"`
}

// PinResponse is the JSON representation of a pinned CID.
type PinResponse struct {
	CID  string `json:"cid"`
	Type string `json:"type"`
}

// toLookupResponse converts an application LookupResult to its JSON representation.
func toLookupResponse(result *application.LookupResult) LookupResponse {
	matches := make([]PublicationResponse, 0, len(result.Matches))
	for _, m := range result.Matches {
		matches = append(matches, toPublicationResponse(m))
	}

	return LookupResponse{
		Matches:   matches,
		FromCache: result.FromCache,
		FetchedAt: result.FetchedAt.UTC().Format(time.RFC3339),
	}
}

// toPublicationResponse converts a domain PublicationMatch to its JSON representation.
func toPublicationResponse(m model.PublicationMatch) PublicationResponse {
	return PublicationResponse{
		QID:     m.QID,
		ArxivID: m.ArxivID,
		DOI:     m.DOI,
		Title:   m.Title,
		Snippet: m.Snippet,
	}
}

// toPublishResponse converts an application PublishResult to its JSON representation.
func toPublishResponse(result *application.PublishResult) PublishResponse {
	return PublishResponse{
		CID:        result.CID,
		GatewayURL: result.GatewayURL,
		Tag:        result.TagPath,
	}
}
