package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/passport-extractor/passport-extractor/internal/images"
	"github.com/passport-extractor/passport-extractor/internal/ocr"
	"github.com/passport-extractor/passport-extractor/internal/passport"
	"github.com/passport-extractor/passport-extractor/internal/pipeline"
	"github.com/passport-extractor/passport-extractor/internal/providers"
	"github.com/passport-extractor/passport-extractor/internal/storage"
)

type fakeEngine struct {
	mu    sync.Mutex
	pages []ocr.Page
	err   error
	calls int
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Predict(ctx context.Context, img *images.Image) ([]ocr.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.pages, f.err
}

func (f *fakeEngine) Close() error { return nil }

type fakeProvider struct {
	mu       sync.Mutex
	response string
	calls    int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, cfg providers.Config) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.response, nil
}

// passportResponse has all schema keys with the first five set to null
func passportResponse() string {
	parts := make([]string, 0, len(passport.Fields))
	for i, name := range passport.Fields {
		if i < 5 {
			parts = append(parts, fmt.Sprintf("%q: null", name))
		} else {
			parts = append(parts, fmt.Sprintf("%q: \"X\"", name))
		}
	}
	return "```json\n{" + strings.Join(parts, ", ") + "}\n```"
}

type testServer struct {
	handler  http.Handler
	store    *storage.TempStore
	engine   *fakeEngine
	provider *fakeProvider
	dir      string
}

func newTestServer(t *testing.T, engine *fakeEngine, provider *fakeProvider) *testServer {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.New(dir)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	p := pipeline.New(
		ocr.NewService(engine),
		passport.NewService(provider, passport.DefaultOptions("test-model")),
		0,
	)
	return &testServer{
		handler:  New(p, store, 0).Routes(),
		store:    store,
		engine:   engine,
		provider: provider,
		dir:      dir,
	}
}

func (s *testServer) assertNoTempFiles(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected upload directory to be empty, got %d entries", len(entries))
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	return uploadRequestNamed(t, field, "passport.png", data)
}

func uploadRequestNamed(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	} else if err := mw.WriteField("note", "no file here"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *testServer, req *http.Request) (*http.Response, string) {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	resp := rec.Result()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestGetIndexShowsForm(t *testing.T) {
	s := newTestServer(t, &fakeEngine{}, &fakeProvider{})

	resp, body := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, `enctype="multipart/form-data"`) || !strings.Contains(body, `name="file"`) {
		t.Errorf("Expected upload form, got %s", body)
	}
	if strings.Contains(body, "Extracted JSON") {
		t.Error("Expected no result section on GET")
	}
}

func TestPostWithoutFile(t *testing.T) {
	s := newTestServer(t, &fakeEngine{}, &fakeProvider{})

	resp, body := serve(s, uploadRequest(t, "", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
	if strings.TrimSpace(body) != "No file uploaded" {
		t.Errorf("Expected %q, got %q", "No file uploaded", body)
	}
	if s.engine.calls != 0 || s.provider.calls != 0 {
		t.Errorf("Expected no OCR or LLM calls, got %d and %d", s.engine.calls, s.provider.calls)
	}
	s.assertNoTempFiles(t)
}

func TestPostWrongFieldName(t *testing.T) {
	s := newTestServer(t, &fakeEngine{}, &fakeProvider{})

	resp, _ := serve(s, uploadRequest(t, "image", pngBytes(t)))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
	if s.engine.calls != 0 {
		t.Errorf("Expected no OCR calls, got %d", s.engine.calls)
	}
}

func TestPostEndToEnd(t *testing.T) {
	engine := &fakeEngine{pages: []ocr.Page{{RecTexts: []string{"P<INDIND"}}}}
	provider := &fakeProvider{response: passportResponse()}
	s := newTestServer(t, engine, provider)

	resp, body := serve(s, uploadRequest(t, "file", pngBytes(t)))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected text/html, got %s", ct)
	}

	text := html.UnescapeString(body)
	for _, want := range []string{
		"P<INDIND",
		"{\n  \"country\": null,",
		"\"holder_signature_present\": \"X\"\n}",
		`"total_fields": 19`,
		`"null_fields": 5`,
		`"extracted_fields": 14`,
		`"accuracy_percent": 73.68`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected response to contain %q", want)
		}
	}
	if engine.calls != 1 || provider.calls != 1 {
		t.Errorf("Expected one OCR and one LLM call, got %d and %d", engine.calls, provider.calls)
	}
	s.assertNoTempFiles(t)
}

func TestPostErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		engine   *fakeEngine
		provider *fakeProvider
		status   int
		message  string
		llmCalls int
	}{
		{
			name:     "undecodable image",
			data:     []byte("not an image"),
			engine:   &fakeEngine{},
			provider: &fakeProvider{},
			status:   http.StatusBadRequest,
			message:  "Invalid image",
		},
		{
			name:     "ocr engine failure",
			engine:   &fakeEngine{err: errors.New("tesseract crashed")},
			provider: &fakeProvider{},
			status:   http.StatusInternalServerError,
			message:  "Extraction failed",
		},
		{
			name:     "malformed model response",
			engine:   &fakeEngine{pages: []ocr.Page{{RecTexts: []string{"P<INDIND"}}}},
			provider: &fakeProvider{response: "Sorry, I cannot help with that."},
			status:   http.StatusInternalServerError,
			message:  "Extraction failed",
			llmCalls: 1,
		},
		{
			name:     "empty model object",
			engine:   &fakeEngine{pages: []ocr.Page{{RecTexts: []string{"P<INDIND"}}}},
			provider: &fakeProvider{response: "{}"},
			status:   http.StatusInternalServerError,
			message:  "Extraction failed",
			llmCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.engine, tt.provider)
			data := tt.data
			if data == nil {
				data = pngBytes(t)
			}

			resp, body := serve(s, uploadRequest(t, "file", data))
			if resp.StatusCode != tt.status {
				t.Errorf("Expected %d, got %d: %s", tt.status, resp.StatusCode, body)
			}
			if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
				t.Errorf("Expected plain text error, got %s", ct)
			}
			if strings.TrimSpace(body) != tt.message {
				t.Errorf("Expected body %q, got %q", tt.message, body)
			}
			if strings.Contains(body, s.dir) || strings.Contains(body, "tesseract crashed") {
				t.Errorf("Expected internal details to stay out of the response, got %q", body)
			}
			if tt.provider.calls != tt.llmCalls {
				t.Errorf("Expected %d LLM calls, got %d", tt.llmCalls, tt.provider.calls)
			}
			s.assertNoTempFiles(t)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, &fakeEngine{}, &fakeProvider{})

	resp, _ := serve(s, httptest.NewRequest(http.MethodPut, "/", nil))
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", resp.StatusCode)
	}
}

func TestHealthcheck(t *testing.T) {
	s := newTestServer(t, &fakeEngine{}, &fakeProvider{})

	resp, body := serve(s, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if resp.StatusCode != http.StatusOK || body != "OK" {
		t.Errorf("Expected 200 OK, got %d %q", resp.StatusCode, body)
	}
}

func TestUploadTooLarge(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.New(dir)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	engine := &fakeEngine{}
	p := pipeline.New(ocr.NewService(engine), passport.NewService(&fakeProvider{}, passport.DefaultOptions("m")), 0)
	handler := New(p, store, 64).Routes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, uploadRequest(t, "file", bytes.Repeat([]byte("x"), 4096)))
	if rec.Code != http.StatusRequestEntityTooLarge && rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 413 or 400, got %d", rec.Code)
	}
	if engine.calls != 0 {
		t.Errorf("Expected no OCR calls, got %d", engine.calls)
	}
}

func TestPostLongFilename(t *testing.T) {
	engine := &fakeEngine{pages: []ocr.Page{{RecTexts: []string{"P<INDIND"}}}}
	provider := &fakeProvider{response: passportResponse()}
	s := newTestServer(t, engine, provider)

	filename := strings.Repeat("a", 240) + ".png"
	resp, body := serve(s, uploadRequestNamed(t, "file", filename, pngBytes(t)))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}
	if engine.calls != 1 || provider.calls != 1 {
		t.Errorf("Expected one OCR and one LLM call, got %d and %d", engine.calls, provider.calls)
	}
	s.assertNoTempFiles(t)
}

func TestSaveFailureHidesPath(t *testing.T) {
	s := newTestServer(t, &fakeEngine{}, &fakeProvider{})
	if err := os.RemoveAll(s.dir); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	resp, body := serve(s, uploadRequest(t, "file", pngBytes(t)))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", resp.StatusCode)
	}
	if strings.TrimSpace(body) != "Failed to save upload" {
		t.Errorf("Expected %q, got %q", "Failed to save upload", body)
	}
	if s.engine.calls != 0 {
		t.Errorf("Expected no OCR calls, got %d", s.engine.calls)
	}
}

func TestConcurrentUploads(t *testing.T) {
	engine := &fakeEngine{pages: []ocr.Page{{RecTexts: []string{"P<INDIND"}}}}
	provider := &fakeProvider{response: passportResponse()}
	s := newTestServer(t, engine, provider)
	data := pngBytes(t)

	const n = 50
	reqs := make([]*http.Request, n)
	for i := range reqs {
		reqs[i] = uploadRequest(t, "file", data)
	}

	var wg sync.WaitGroup
	codes := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := httptest.NewRecorder()
			s.handler.ServeHTTP(rec, reqs[i])
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		if code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i, code)
		}
	}
	if engine.calls != n || provider.calls != n {
		t.Errorf("Expected %d OCR and LLM calls, got %d and %d", n, engine.calls, provider.calls)
	}
	if s.store.Pending() != 0 {
		t.Errorf("Expected 0 pending uploads, got %d", s.store.Pending())
	}
	s.assertNoTempFiles(t)
}
