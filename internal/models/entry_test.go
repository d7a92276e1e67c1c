package models

import (
	"strings"
	"testing"
	"time"
)

func TestParseEntryKind(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  EntryKind
		ok    bool
	}{
		{"input", "input", KindInput, true},
		{"routing", "routing", KindRouting, true},
		{"thinking", "thinking", KindThinking, true},
		{"text", "text", KindText, true},
		{"tool call", "tool_call", KindToolCall, true},
		{"tool result", "tool_result", KindToolResult, true},
		{"validation", "validation", KindValidation, true},
		{"performance", "performance", KindPerformance, true},
		{"unknown kind", "telepathy", "", false},
		{"empty", "", "", false},
		{"wrong case", "Input", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseEntryKind(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseEntryKind(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("ParseEntryKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{"short string untouched", "hello", 200, "hello"},
		{"exact limit untouched", strings.Repeat("a", 10), 10, strings.Repeat("a", 10)},
		{"over limit truncated", strings.Repeat("a", 11), 10, strings.Repeat("a", 10) + "..."},
		{"empty", "", 200, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preview(tt.input, tt.limit); got != tt.want {
				t.Errorf("Preview(%q, %d) = %q, want %q", tt.input, tt.limit, got, tt.want)
			}
		})
	}
}

func TestInputEntryPreviewBound(t *testing.T) {
	message := strings.Repeat("x", 500)
	entry := NewInputEntry(message)

	preview, ok := entry.Details["message_preview"].(string)
	if !ok {
		t.Fatal("input entry has no message_preview detail")
	}
	if len(preview) != InputPreviewLimit+len("...") {
		t.Errorf("preview length = %d, want %d", len(preview), InputPreviewLimit+len("..."))
	}
	if got := entry.Details["length"]; got != 500 {
		t.Errorf("length detail = %v, want 500", got)
	}
}

func TestToolResultReplacesPendingEntry(t *testing.T) {
	pending := NewToolCallPending("find_symbol", map[string]any{"symbol": "Widget"})
	if pending.Terminal() {
		t.Fatal("pending entry reported as terminal")
	}
	if pending.DurationMS != nil {
		t.Fatal("pending entry carries a duration")
	}

	done := pending.ToolResult(StatusSuccess, "find_symbol completed", map[string]any{
		"result_preview": "[]",
	}, 12.5)

	if done.ID != pending.ID {
		t.Errorf("terminal entry ID = %q, want pending ID %q", done.ID, pending.ID)
	}
	if done.Kind != KindToolResult {
		t.Errorf("terminal entry kind = %q, want %q", done.Kind, KindToolResult)
	}
	if !done.Terminal() {
		t.Error("terminal entry not reported as terminal")
	}
	if done.DurationMS == nil || *done.DurationMS != 12.5 {
		t.Errorf("terminal entry duration = %v, want 12.5", done.DurationMS)
	}

	// Pending details carry over, extras merge in, and the original map
	// is left alone.
	if done.Details["tool"] != "find_symbol" {
		t.Errorf("tool detail lost: %v", done.Details["tool"])
	}
	if done.Details["result_preview"] != "[]" {
		t.Errorf("result_preview not merged: %v", done.Details["result_preview"])
	}
	if _, leaked := pending.Details["result_preview"]; leaked {
		t.Error("ToolResult mutated the pending entry's details map")
	}
}

func TestStreamDictShape(t *testing.T) {
	entry := NewRoutingEntry("get_skills", "user asked about skills")
	entry.Timestamp = time.UnixMilli(1700000000123).UTC()

	d := entry.StreamDict()
	if d["timestamp"] != int64(1700000000123) {
		t.Errorf("timestamp = %v, want epoch milliseconds 1700000000123", d["timestamp"])
	}
	if d["type"] != "routing" {
		t.Errorf("type = %v, want routing", d["type"])
	}
	if _, present := d["duration_ms"]; present {
		t.Error("duration_ms present on an entry without a duration")
	}

	perf := NewPerformanceEntry(40, 900)
	pd := perf.StreamDict()
	if pd["duration_ms"] != 900.0 {
		t.Errorf("duration_ms = %v, want 900", pd["duration_ms"])
	}
}
