package masking

import (
	"bytes"
	"io"
	"sync"
)

// Writer masks tracked values in a byte stream before forwarding it.
// It buffers until a newline so a secret split across two Write calls
// within one line is still caught; callers must Flush when the stream
// ends to release a trailing partial line.
type Writer struct {
	mu      sync.Mutex
	dst     io.Writer
	tracker *Tracker
	buf     bytes.Buffer
}

// NewWriter wraps dst with masking against tracker.
func NewWriter(dst io.Writer, tracker *Tracker) *Writer {
	return &Writer{dst: dst, tracker: tracker}
}

// Write consumes p, emitting each completed line through the tracker.
// It always reports len(p) on success; the forwarded byte count differs
// once masking rewrites a line.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		raw := w.buf.Bytes()
		i := bytes.IndexByte(raw, '\n')
		if i < 0 {
			break
		}
		line := string(raw[:i+1])
		w.buf.Next(i + 1)
		if _, err := io.WriteString(w.dst, w.tracker.MaskText(line)); err != nil {
			return len(p), err
		}
	}
	return len(p), nil
}

// Flush masks and forwards any buffered partial line.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() == 0 {
		return nil
	}
	line := w.buf.String()
	w.buf.Reset()
	_, err := io.WriteString(w.dst, w.tracker.MaskText(line))
	return err
}

// Close flushes the writer. It never closes dst.
func (w *Writer) Close() error {
	return w.Flush()
}
