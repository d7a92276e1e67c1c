package wire

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/glassbox-io/glassbox/internal/models"
)

func TestStreamRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	entry := models.NewToolCallPending("find_symbol", map[string]any{"symbol": "Parser"})
	if err := enc.ReasoningDelta("Considering which tool fits..."); err != nil {
		t.Fatalf("ReasoningDelta: %v", err)
	}
	if err := enc.BrainLog(entry); err != nil {
		t.Fatalf("BrainLog: %v", err)
	}
	if err := enc.TextDelta("The symbol is defined in "); err != nil {
		t.Fatalf("TextDelta: %v", err)
	}
	if err := enc.Finish(FinishStop, ""); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	dec := NewDecoder(&buf)

	ev, err := dec.Next()
	if err != nil || ev.Type != FrameReasoningDelta || ev.Delta != "Considering which tool fits..." {
		t.Fatalf("frame 1 = %+v, %v", ev, err)
	}

	ev, err = dec.Next()
	if err != nil || ev.Type != FrameBrainLog {
		t.Fatalf("frame 2 = %+v, %v", ev, err)
	}
	if ev.Entry.ID != entry.ID {
		t.Errorf("decoded entry ID %s, want %s", ev.Entry.ID, entry.ID)
	}
	if ev.Entry.Kind != models.KindToolCall || ev.Entry.Status != models.StatusPending {
		t.Errorf("decoded entry kind=%s status=%s", ev.Entry.Kind, ev.Entry.Status)
	}
	if ev.Entry.Timestamp.UnixMilli() != entry.Timestamp.UnixMilli() {
		t.Errorf("timestamp drifted: %v vs %v", ev.Entry.Timestamp, entry.Timestamp)
	}
	if tool, _ := ev.Entry.Details["tool"].(string); tool != "find_symbol" {
		t.Errorf("details lost: %v", ev.Entry.Details)
	}

	ev, err = dec.Next()
	if err != nil || ev.Type != FrameTextDelta {
		t.Fatalf("frame 3 = %+v, %v", ev, err)
	}

	ev, err = dec.Next()
	if err != nil || ev.Type != FrameFinish || ev.Reason != FinishStop {
		t.Fatalf("frame 4 = %+v, %v", ev, err)
	}

	if _, err := dec.Next(); err != io.EOF {
		t.Fatalf("after finish: want io.EOF, got %v", err)
	}
}

func TestDecoderSkipsUnknownFrames(t *testing.T) {
	stream := strings.Join([]string{
		`{"type":"usage","tokens":512}`,
		`{"type":"text-delta","delta":"hello"}`,
		`{"type":"data-brainlog","data":{"id":"x","type":"telepathy","title":"?","status":"success","timestamp":1}}`,
		`{"type":"finish","reason":"stop"}`,
	}, "\n")

	dec := NewDecoder(strings.NewReader(stream))

	ev, err := dec.Next()
	if err != nil || ev.Type != FrameTextDelta || ev.Delta != "hello" {
		t.Fatalf("first recognized frame = %+v, %v", ev, err)
	}

	// The unknown entry kind is skipped, not surfaced as an error.
	ev, err = dec.Next()
	if err != nil || ev.Type != FrameFinish {
		t.Fatalf("second recognized frame = %+v, %v", ev, err)
	}
}

func TestDecoderRejectsMalformedFrames(t *testing.T) {
	dec := NewDecoder(strings.NewReader("{not json\n"))
	if _, err := dec.Next(); err == nil || err == io.EOF {
		t.Fatalf("want decode error, got %v", err)
	}
}

func TestFinishCarriesAbortError(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	if err := enc.Finish(FinishAborted, "stream write failed: broken pipe"); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	ev, err := NewDecoder(&buf).Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.Reason != FinishAborted || ev.Err == "" {
		t.Errorf("decoded finish = %+v", ev)
	}
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestEncoderReportsTransportError(t *testing.T) {
	enc := NewEncoder(brokenWriter{})
	err := enc.TextDelta("hello")
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("want *TransportError, got %v", err)
	}
}
