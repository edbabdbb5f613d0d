package manager

import (
	"sync"
	"time"

	"github.com/dev-jelly/jellos-sub002/pkg/provider"
)

// maxAccessEntries bounds the in-memory audit trail. Once the log is
// full, each new entry drops the oldest one.
const maxAccessEntries = 1000

// AccessEntry records the outcome of one resolution attempt. Secret
// values are never recorded, only where the lookup went and how it ended.
// An empty Provider means the whole chain was exhausted.
type AccessEntry struct {
	Key        string        `json:"key"`
	Namespace  string        `json:"namespace"`
	Provider   provider.Type `json:"provider,omitempty"`
	AccessedAt time.Time     `json:"accessedAt"`
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
}

type accessLog struct {
	mu      sync.Mutex
	entries []AccessEntry
}

func newAccessLog() *accessLog {
	return &accessLog{}
}

func (l *accessLog) append(entry AccessEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	if len(l.entries) > maxAccessEntries {
		// Compact in place so the backing array stops growing.
		l.entries = append(l.entries[:0], l.entries[len(l.entries)-maxAccessEntries:]...)
	}
}

func (l *accessLog) snapshot() []AccessEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]AccessEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *accessLog) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
