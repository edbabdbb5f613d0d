// Package masking maintains the process-wide set of tracked secret values
// and rewrites any text, error or nested object in which they appear.
//
// Values enter the set when the environment loader classifies them as
// sensitive or resolves them from a secret store. The set grows
// monotonically until Clear; emission paths (the logger sink, the exec
// command's output writers) consult it on every write.
package masking

import (
	"sort"
	"strings"
	"sync"
)

// Tracker is the set of secret values subject to masking.
// Safe for concurrent use; any code path may add values, nothing removes
// them except Clear.
type Tracker struct {
	mu     sync.RWMutex
	set    map[string]struct{}
	sorted []string // longest first, so overlapping secrets mask deterministically
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{set: make(map[string]struct{})}
}

// Track adds values to the set. Empty strings are ignored.
func (t *Tracker) Track(values ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	changed := false
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := t.set[v]; ok {
			continue
		}
		t.set[v] = struct{}{}
		t.sorted = append(t.sorted, v)
		changed = true
	}
	if changed {
		sort.SliceStable(t.sorted, func(i, j int) bool {
			return len(t.sorted[i]) > len(t.sorted[j])
		})
	}
}

// Clear empties the set.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.set = make(map[string]struct{})
	t.sorted = nil
}

// Len returns the number of tracked values.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.set)
}

// Tracked reports whether v is in the set.
func (t *Tracker) Tracked(v string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.set[v]
	return ok
}

// MaskText replaces every occurrence of each tracked value in s with its
// masked form. Masking already-masked text is a no-op: the raw values no
// longer occur in it.
func (t *Tracker) MaskText(s string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, v := range t.sorted {
		if strings.Contains(s, v) {
			s = strings.ReplaceAll(s, v, MaskValue(v))
		}
	}
	return s
}

// MaskError returns an error whose message has tracked values masked.
// The original error stays reachable through Unwrap, so errors.Is and
// errors.As still see the unmasked chain.
func (t *Tracker) MaskError(err error) error {
	if err == nil {
		return nil
	}
	masked := t.MaskText(err.Error())
	if masked == err.Error() {
		return err
	}
	return &maskedError{msg: masked, orig: err}
}

// MaskObject walks nested maps and slices, masking every string leaf.
// A string under a sensitive-looking key is fully masked regardless of the
// tracked set; other strings get substring masking. The input is never
// mutated; a rewritten copy is returned.
func (t *Tracker) MaskObject(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			if s, ok := child.(string); ok && SensitiveKey(k) {
				out[k] = MaskValue(s)
				continue
			}
			out[k] = t.MaskObject(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = t.MaskObject(child)
		}
		return out
	case string:
		return t.MaskText(val)
	case error:
		return t.MaskError(val)
	default:
		return v
	}
}

type maskedError struct {
	msg  string
	orig error
}

func (e *maskedError) Error() string { return e.msg }

func (e *maskedError) Unwrap() error { return e.orig }
