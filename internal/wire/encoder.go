package wire

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/glassbox-io/glassbox/internal/models"
)

// TransportError reports a failed write to the client stream. There is no
// way to tell the client anything after this; the turn must abort.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("stream write failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Encoder writes frames to a client stream, one JSON object per line.
// Safe for concurrent use: tool instrumentation and model deltas may emit
// from different goroutines.
type Encoder struct {
	mu    sync.Mutex
	w     io.Writer
	flush func()
}

// NewEncoder creates an encoder. If w is an http.ResponseWriter that
// supports flushing, each frame is flushed immediately so the client sees
// deltas as they happen.
func NewEncoder(w io.Writer) *Encoder {
	e := &Encoder{w: w, flush: func() {}}
	if f, ok := w.(http.Flusher); ok {
		e.flush = f.Flush
	}
	return e
}

func (e *Encoder) writeFrame(frame map[string]any) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	data = append(data, '\n')

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.w.Write(data); err != nil {
		return &TransportError{Err: err}
	}
	e.flush()
	return nil
}

// TextDelta streams one increment of visible assistant text.
func (e *Encoder) TextDelta(delta string) error {
	return e.writeFrame(map[string]any{"type": FrameTextDelta, "delta": delta})
}

// ReasoningDelta streams one increment of thinking text.
func (e *Encoder) ReasoningDelta(delta string) error {
	return e.writeFrame(map[string]any{"type": FrameReasoningDelta, "delta": delta})
}

// BrainLog streams one log entry update.
func (e *Encoder) BrainLog(entry models.LogEntry) error {
	return e.writeFrame(map[string]any{"type": FrameBrainLog, "data": entry.StreamDict()})
}

// Finish streams the terminal marker. reasonErr, when non-empty, tells the
// client why an aborted turn ended.
func (e *Encoder) Finish(reason FinishReason, reasonErr string) error {
	frame := map[string]any{"type": FrameFinish, "reason": reason}
	if reasonErr != "" {
		frame["error"] = reasonErr
	}
	return e.writeFrame(frame)
}
