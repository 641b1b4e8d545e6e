// internal/sse/stream.go
package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// Writer frames values as server-sent events (`data: <json>\n\n`) on a
// buffered stream and flushes after every event, so the client sees each
// progress line as soon as it happens.
type Writer struct {
	w  *bufio.Writer
	mu sync.Mutex
}

func NewWriter(w *bufio.Writer) *Writer {
	return &Writer{w: w}
}

// WriteEvent marshals v and writes it as one SSE data frame.
func (s *Writer) WriteEvent(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("❌ [SSE] Failed to marshal event: %v", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	return s.w.Flush()
}
