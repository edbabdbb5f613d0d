package manager

import (
	"sync"

	"github.com/dev-jelly/jellos-sub002/internal/logging"
)

var (
	defaultMu       sync.Mutex
	defaultInstance *Manager
)

// Default returns the process-wide manager, constructing one with default
// options and the built-in provider set on first use. Injection through
// New remains the primary construction path; Default exists for
// embedders that want the zero-config behavior.
func Default() *Manager {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultInstance == nil {
		defaultInstance = New(Options{}, logging.New(false, false))
	}
	return defaultInstance
}

// SetDefault replaces the process-wide manager. The previous instance is
// left untouched; callers that own it keep using it.
func SetDefault(m *Manager) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultInstance = m
}

// ResetDefault destroys the process-wide manager's cached plaintext and
// drops the instance. The next Default call constructs a fresh one.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultInstance != nil {
		defaultInstance.Close()
	}
	defaultInstance = nil
}
