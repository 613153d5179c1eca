package ocr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownEngine is returned when no engine is registered under a name
var ErrUnknownEngine = errors.New("ocr engine not available")

// Settings carries the configuration an engine factory may use.
type Settings struct {
	// Language is a "+" or "," separated list of ISO 639-1 codes, e.g. "en+hi"
	Language        string
	CredentialsFile string
}

// Factory builds an engine from settings
type Factory func(ctx context.Context, s Settings) (Engine, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes an engine available by name. Engine packages call it from
// init, so an engine exists in a binary only if its package is linked in.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Registered returns the names of all linked engines, sorted
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewEngine builds the engine registered under name.
func NewEngine(ctx context.Context, name string, s Settings) (Engine, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownEngine, name, strings.Join(Registered(), ", "))
	}
	return f(ctx, s)
}

// SplitLanguages splits a "+", "," or space separated language list into
// lower-cased codes. Empty input yields nil.
func SplitLanguages(lang string) []string {
	parts := strings.FieldsFunc(strings.ToLower(lang), func(r rune) bool {
		return r == '+' || r == ',' || r == ' '
	})
	if len(parts) == 0 {
		return nil
	}
	return parts
}
