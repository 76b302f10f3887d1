package operations

import (
	"bytes"
	"strings"
	"sync"
)

// progressWriter splits transport sideband output into lines. Carriage
// returns end a line too, so counters like "Receiving objects:  42%" come
// through as separate updates.
type progressWriter struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	onLine func(line string)
}

func newProgressWriter(onLine func(line string)) *progressWriter {
	return &progressWriter{onLine: onLine}
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, b := range p {
		if b == '\n' || b == '\r' {
			w.emit()
			continue
		}
		w.buf.WriteByte(b)
	}

	return len(p), nil
}

// Flush emits a trailing partial line.
func (w *progressWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.emit()
}

func (w *progressWriter) emit() {
	line := strings.TrimSpace(w.buf.String())
	w.buf.Reset()
	if line != "" {
		w.onLine(line)
	}
}
