// Package streaming writes the newline-delimited JSON protocol spec.md
// §4.4/§6 defines for screening results: a meta line, interior result
// lines, and a final complete line. Each line is marshalled and written
// synchronously under a mutex; there is no background queue and no Close.
// sse.Writer is not wrapped: its framing is SSE-specific
// (text/event-stream, heartbeats) and this protocol is plain NDJSON over
// an io.Writer, not an HTTP endpoint (see DESIGN.md).
package streaming

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// MetaLine is the first NDJSON line of every stream.
type MetaLine struct {
	Signal          string `json:"signal"`
	Total           int    `json:"total"`
	TopTierCount    *int   `json:"top_tier_count,omitempty"`
	BottomTierCount *int   `json:"bottom_tier_count,omitempty"`
}

// CompleteLine is the final NDJSON line of every stream.
type CompleteLine struct {
	Signal string `json:"signal"`
}

// Writer serializes one JSON value per line to an underlying io.Writer,
// guarding concurrent writes from completion-order fan-out goroutines.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// New wraps w as an NDJSON Writer.
func New(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteMeta emits the stream's first line.
func (s *Writer) WriteMeta(total int, topTierCount, bottomTierCount *int) error {
	return s.writeLine(MetaLine{
		Signal:          "meta",
		Total:           total,
		TopTierCount:    topTierCount,
		BottomTierCount: bottomTierCount,
	})
}

// WriteResult emits one interior result line. Safe for concurrent use by
// multiple completion-order goroutines.
func (s *Writer) WriteResult(result any) error {
	return s.writeLine(result)
}

// WriteComplete emits the stream's final line.
func (s *Writer) WriteComplete() error {
	return s.writeLine(CompleteLine{Signal: "complete"})
}

func (s *Writer) writeLine(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("streaming: marshal line: %w", err)
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(b)
	return err
}
