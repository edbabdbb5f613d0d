// Package logging provides the CLI logger and the redaction primitives the
// masking pipeline hooks into. Loggers write through an explicit sink, so
// secret masking wraps the sink instead of patching global state.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Masker rewrites values before emission so tracked secrets never reach the
// sink in plaintext. Implemented by masking.Tracker.
type Masker interface {
	MaskText(s string) string
	MaskError(err error) error
	MaskObject(v any) any
}

// Logger provides leveled logging with optional secret masking.
type Logger struct {
	mu      sync.RWMutex
	out     io.Writer
	debug   bool
	noColor bool
	masker  Masker
}

// New creates a logger writing to stderr.
func New(debug, noColor bool) *Logger {
	return NewWithWriter(os.Stderr, debug, noColor)
}

// NewWithWriter creates a logger writing to an explicit sink.
func NewWithWriter(out io.Writer, debug, noColor bool) *Logger {
	return &Logger{
		out:     out,
		debug:   debug,
		noColor: noColor,
	}
}

// EnableMasking routes every subsequent emission through m. Arguments and
// the formatted message are rewritten before they reach the sink.
func (l *Logger) EnableMasking(m Masker) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.masker = m
}

// DisableMasking removes the masking layer. Idempotent; a no-op when
// masking was never enabled.
func (l *Logger) DisableMasking() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.masker = nil
}

// MaskingEnabled reports whether a masker is installed.
func (l *Logger) MaskingEnabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.masker != nil
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit("\033[32m✓\033[0m", "✓", format, args)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit("\033[33m⚠\033[0m", "⚠", format, args)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit("\033[31m✗\033[0m", "✗", format, args)
}

// Debug logs a debug message if debug mode is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.emit("\033[36m[DEBUG]\033[0m", "[DEBUG]", format, args)
}

func (l *Logger) emit(prefix, plainPrefix, format string, args []interface{}) {
	l.mu.RLock()
	out := l.out
	masker := l.masker
	noColor := l.noColor
	l.mu.RUnlock()

	if masker != nil {
		args = maskArgs(masker, args)
	}
	msg := fmt.Sprintf(format, args...)
	if masker != nil {
		// The formatted message is masked again so values reaching the
		// sink through non-string arguments are still caught.
		msg = masker.MaskText(msg)
	}

	if noColor {
		fmt.Fprintf(out, "%s %s\n", plainPrefix, msg)
	} else {
		fmt.Fprintf(out, "%s %s\n", prefix, msg)
	}
}

func maskArgs(m Masker, args []interface{}) []interface{} {
	masked := make([]interface{}, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case string:
			masked[i] = m.MaskText(v)
		case error:
			masked[i] = m.MaskError(v)
		case map[string]any, []any:
			masked[i] = m.MaskObject(v)
		default:
			masked[i] = arg
		}
	}
	return masked
}

// Secret represents a value that must be redacted in logs.
type Secret string

// String implements fmt.Stringer, always returning a redacted value.
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting.
func (s Secret) GoString() string {
	return "[REDACTED]"
}

// Redact replaces sensitive values in a string with [REDACTED].
func Redact(s string, secrets []string) string {
	result := s
	for _, secret := range secrets {
		if secret != "" && len(secret) > 3 { // Only redact non-trivial secrets
			result = strings.ReplaceAll(result, secret, "[REDACTED]")
		}
	}
	return result
}
