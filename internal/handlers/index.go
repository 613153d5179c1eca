package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/passport-extractor/passport-extractor/internal/passport"
)

type pageData struct {
	OCRText     string
	JSON        string
	MetricsJSON string
	Issues      []passport.Issue
}

func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.render(w, pageData{})
	case http.MethodPost:
		h.handleUpload(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.writeError(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	path, cleanup, err := h.store.Save(file, header.Filename)
	if err != nil {
		h.writeFailure(w, "Failed to save upload", err, http.StatusInternalServerError)
		return
	}
	defer cleanup()

	slog.Info("Image uploaded", "filename", header.Filename, "size", header.Size)

	result, err := h.pipeline.Run(r.Context(), path)
	if err != nil {
		code, message := pipelineFailure(err)
		h.writeFailure(w, message, err, code)
		return
	}

	pretty, err := result.Extraction.Record.PrettyJSON()
	if err != nil {
		h.writeFailure(w, "Unable to format result", err, http.StatusInternalServerError)
		return
	}
	metrics, err := json.MarshalIndent(result.Extraction.Metrics, "", "  ")
	if err != nil {
		h.writeFailure(w, "Unable to encode metrics", err, http.StatusInternalServerError)
		return
	}

	h.render(w, pageData{
		OCRText:     result.OCRText,
		JSON:        pretty,
		MetricsJSON: string(metrics),
		Issues:      result.Extraction.Issues,
	})
}

func (h *Handler) render(w http.ResponseWriter, data pageData) {
	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		h.writeFailure(w, "Unable to render page", err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("Unable to write response", "err", err)
	}
}

const indexTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Passport Extractor</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
pre { background: #f4f4f4; padding: 1rem; white-space: pre-wrap; }
</style>
</head>
<body>
<h1>Passport Extractor</h1>
<form method="post" action="/" enctype="multipart/form-data">
<input type="file" name="file" accept="image/*" required>
<button type="submit">Extract</button>
</form>
{{- if .JSON}}
<h2>OCR Text</h2>
<pre>{{.OCRText}}</pre>
<h2>Extracted JSON</h2>
<pre>{{.JSON}}</pre>
<h2>Metrics</h2>
<pre>{{.MetricsJSON}}</pre>
{{- if .Issues}}
<h2>Validation Notes</h2>
<ul>
{{- range .Issues}}
<li>{{.Field}}: {{.Problem}}</li>
{{- end}}
</ul>
{{- end}}
{{- end}}
</body>
</html>
`
