package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// TempStore holds uploaded images on disk for the duration of one request.
// Every saved file is tracked until its cleanup runs.
type TempStore struct {
	dir   string
	files map[string]struct{}
	mu    sync.RWMutex
}

// New returns a store rooted at dir, or the OS temp directory when dir is empty.
func New(dir string) (*TempStore, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &TempStore{
		dir:   dir,
		files: make(map[string]struct{}),
	}, nil
}

// Dir returns the directory uploads are written to
func (s *TempStore) Dir() string {
	return s.dir
}

// Save writes r to a new uniquely named file. The returned cleanup removes
// the file, may be called more than once, and must be called on every path.
func (s *TempStore) Save(r io.Reader, filename string) (string, func(), error) {
	path := filepath.Join(s.dir, uuid.NewString()+"_"+sanitize(filename))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create upload file: %w", err)
	}

	s.mu.Lock()
	s.files[path] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	cleanup := func() {
		once.Do(func() { s.remove(path) })
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close upload file: %w", err)
	}

	return path, cleanup, nil
}

// Pending returns the number of saved files whose cleanup has not run
func (s *TempStore) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// RemoveAll deletes every tracked file. Used on shutdown.
func (s *TempStore) RemoveAll() {
	s.mu.RLock()
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	s.mu.RUnlock()

	for _, p := range paths {
		s.remove(p)
	}
}

func (s *TempStore) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Unable to remove upload file", "path", path, "err", err)
	}
	s.mu.Lock()
	delete(s.files, path)
	s.mu.Unlock()
}

// maxNameBytes bounds the client part of a stored file name so that the
// uuid prefix plus the name stays well under the 255 byte limit.
const (
	maxNameBytes = 64
	maxExtBytes  = 16
)

// sanitize keeps the base name and drops characters that are awkward in paths.
// Long names are truncated, keeping the extension.
func sanitize(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == ".." {
		base = ""
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return truncate(b.String())
}

// truncate works on bytes; sanitize output is ASCII.
func truncate(name string) string {
	if len(name) <= maxNameBytes {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) > maxExtBytes {
		ext = ""
	}
	return name[:maxNameBytes-len(ext)] + ext
}
