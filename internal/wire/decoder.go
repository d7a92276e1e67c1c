package wire

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/valyala/fastjson"

	"github.com/glassbox-io/glassbox/internal/models"
)

// Event is one decoded frame. Exactly one payload field is set, keyed by
// Type.
type Event struct {
	Type   FrameType
	Delta  string          // text-delta, reasoning-delta
	Entry  models.LogEntry // data-brainlog
	Reason FinishReason    // finish
	Err    string          // finish, when the turn aborted
}

// Decoder reads frames from a chat stream. Frames with unknown types, and
// brain log entries with unknown kinds, are skipped rather than failing
// the stream: the protocol grows additively.
type Decoder struct {
	scanner *bufio.Scanner
	parser  fastjson.Parser
}

// NewDecoder creates a decoder over a stream.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &Decoder{scanner: scanner}
}

// Next returns the next recognized frame, or io.EOF at end of stream.
func (d *Decoder) Next() (*Event, error) {
	for d.scanner.Scan() {
		line := d.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		v, err := d.parser.ParseBytes(line)
		if err != nil {
			return nil, fmt.Errorf("malformed frame: %w", err)
		}

		switch FrameType(v.GetStringBytes("type")) {
		case FrameTextDelta:
			return &Event{Type: FrameTextDelta, Delta: string(v.GetStringBytes("delta"))}, nil
		case FrameReasoningDelta:
			return &Event{Type: FrameReasoningDelta, Delta: string(v.GetStringBytes("delta"))}, nil
		case FrameBrainLog:
			entry, ok := decodeEntry(v.Get("data"))
			if !ok {
				continue // unknown entry kind or missing payload
			}
			return &Event{Type: FrameBrainLog, Entry: entry}, nil
		case FrameFinish:
			return &Event{
				Type:   FrameFinish,
				Reason: FinishReason(v.GetStringBytes("reason")),
				Err:    string(v.GetStringBytes("error")),
			}, nil
		default:
			// Unknown frame type: skip.
		}
	}
	if err := d.scanner.Err(); err != nil {
		return nil, &TransportError{Err: err}
	}
	return nil, io.EOF
}

// decodeEntry converts a data-brainlog payload into a LogEntry. Returns
// false for payloads that cannot be a valid entry.
func decodeEntry(v *fastjson.Value) (models.LogEntry, bool) {
	if v == nil {
		return models.LogEntry{}, false
	}

	kind, ok := models.ParseEntryKind(string(v.GetStringBytes("type")))
	if !ok {
		return models.LogEntry{}, false
	}
	id := string(v.GetStringBytes("id"))
	if id == "" {
		return models.LogEntry{}, false
	}

	entry := models.LogEntry{
		ID:        id,
		Timestamp: time.UnixMilli(v.GetInt64("timestamp")).UTC(),
		Kind:      kind,
		Title:     string(v.GetStringBytes("title")),
		Status:    models.EntryStatus(v.GetStringBytes("status")),
		Details:   map[string]any{},
	}
	if details := v.Get("details"); details != nil {
		if m, ok := valueToAny(details).(map[string]any); ok {
			entry.Details = m
		}
	}
	if dur := v.Get("duration_ms"); dur != nil && dur.Type() == fastjson.TypeNumber {
		ms := dur.GetFloat64()
		entry.DurationMS = &ms
	}
	return entry, true
}

// valueToAny converts a fastjson value into plain Go data.
func valueToAny(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeObject:
		obj, _ := v.Object()
		m := make(map[string]any, obj.Len())
		obj.Visit(func(key []byte, val *fastjson.Value) {
			m[string(key)] = valueToAny(val)
		})
		return m
	case fastjson.TypeArray:
		arr, _ := v.Array()
		out := make([]any, 0, len(arr))
		for _, item := range arr {
			out = append(out, valueToAny(item))
		}
		return out
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		return v.GetFloat64()
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	default:
		return nil
	}
}
