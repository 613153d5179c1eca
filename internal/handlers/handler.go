package handlers

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/passport-extractor/passport-extractor/internal/images"
	"github.com/passport-extractor/passport-extractor/internal/pipeline"
	"github.com/passport-extractor/passport-extractor/internal/storage"
)

// DefaultMaxUploadBytes caps the multipart body when no limit is configured
const DefaultMaxUploadBytes = 10 << 20

type Handler struct {
	pipeline       *pipeline.Pipeline
	store          *storage.TempStore
	maxUploadBytes int64
	page           *template.Template
}

func New(p *pipeline.Pipeline, store *storage.TempStore, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		pipeline:       p,
		store:          store,
		maxUploadBytes: maxUploadBytes,
		page:           template.Must(template.New("index").Parse(indexTemplate)),
	}
}

// Response helpers
func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message, "status", code)
	http.Error(w, message, code)
}

// writeFailure logs err in full and sends only message to the client, so
// paths and backend details stay in the server log.
func (h *Handler) writeFailure(w http.ResponseWriter, message string, err error, code int) {
	slog.Error(message, "status", code, "err", err)
	http.Error(w, message, code)
}

// pipelineFailure maps a pipeline error to a response code and client
// message. Bad input is the client's problem; everything past decoding is ours.
func pipelineFailure(err error) (int, string) {
	switch {
	case errors.Is(err, images.ErrNotFound), errors.Is(err, images.ErrDecode):
		return http.StatusBadRequest, "Invalid image"
	default:
		return http.StatusInternalServerError, "Extraction failed"
	}
}
