package sse

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestWriteEventFraming(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(bufio.NewWriter(&buf))

	if err := w.WriteEvent(map[string]interface{}{"type": "progress", "current": 1}); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}

	got := buf.String()
	if !strings.HasPrefix(got, "data: {") {
		t.Errorf("frame must start with data prefix, got %q", got)
	}
	if !strings.HasSuffix(got, "\n\n") {
		t.Errorf("frame must end with a blank line, got %q", got)
	}
	if !strings.Contains(got, `"type":"progress"`) {
		t.Errorf("payload missing from frame: %q", got)
	}
}

func TestWriteEventFlushesEachFrame(t *testing.T) {
	var buf bytes.Buffer
	// Large buffer so nothing reaches buf without an explicit flush.
	w := NewWriter(bufio.NewWriterSize(&buf, 1<<16))

	if err := w.WriteEvent(map[string]string{"type": "complete"}); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("event was buffered instead of flushed")
	}
}

func TestWriteEventSequentialFrames(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(bufio.NewWriter(&buf))

	for _, typ := range []string{"progress", "progress", "complete"} {
		if err := w.WriteEvent(map[string]string{"type": typ}); err != nil {
			t.Fatalf("WriteEvent(%s): %v", typ, err)
		}
	}

	frames := strings.Split(strings.TrimSuffix(buf.String(), "\n\n"), "\n\n")
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d: %q", len(frames), buf.String())
	}
	for i, frame := range frames {
		if !strings.HasPrefix(frame, "data: ") {
			t.Errorf("frame %d missing data prefix: %q", i, frame)
		}
	}
}

func TestWriteEventUnmarshalableValue(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(bufio.NewWriter(&buf))

	if err := w.WriteEvent(make(chan int)); err == nil {
		t.Fatal("expected marshal error")
	}
	if buf.Len() != 0 {
		t.Errorf("failed marshal must not write a frame, got %q", buf.String())
	}
}
