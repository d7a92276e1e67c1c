// Package models defines the shared data shapes for the glassbox daemon:
// brain log entries, code-inspection results, profile records, and settings.
package models

import (
	"time"

	"github.com/google/uuid"
)

// EntryKind identifies the type of a brain log entry.
type EntryKind string

// Entry kinds. This is the canonical eight-value set; the older five-value
// set (input|routing|tool_call|validation|performance) is a strict subset,
// so entries produced by legacy emitters decode without translation.
const (
	KindInput       EntryKind = "input"
	KindRouting     EntryKind = "routing"
	KindThinking    EntryKind = "thinking"
	KindText        EntryKind = "text"
	KindToolCall    EntryKind = "tool_call"
	KindToolResult  EntryKind = "tool_result"
	KindValidation  EntryKind = "validation"
	KindPerformance EntryKind = "performance"
)

// ParseEntryKind validates a wire kind string. Returns false for kinds
// outside the canonical set.
func ParseEntryKind(s string) (EntryKind, bool) {
	switch k := EntryKind(s); k {
	case KindInput, KindRouting, KindThinking, KindText,
		KindToolCall, KindToolResult, KindValidation, KindPerformance:
		return k, true
	default:
		return "", false
	}
}

// EntryStatus is the lifecycle status of a log entry.
type EntryStatus string

// Entry statuses.
const (
	StatusPending EntryStatus = "pending"
	StatusSuccess EntryStatus = "success"
	StatusFailure EntryStatus = "failure"
)

// Preview bounds for details payloads.
const (
	// PreviewLimit caps tool argument and result previews.
	PreviewLimit = 200
	// InputPreviewLimit caps the user message preview on input entries.
	InputPreviewLimit = 100
)

// Preview truncates s to at most limit characters, appending an ellipsis
// when truncation occurred.
func Preview(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

// LogEntry is the atomic unit of turn observability. Exactly one entry
// exists per logical action: a terminal update replaces the pending entry
// under the same ID, it never appends a second one.
type LogEntry struct {
	ID         string
	Timestamp  time.Time
	Kind       EntryKind
	Title      string
	Details    map[string]any
	Status     EntryStatus
	DurationMS *float64
}

// NewEntry creates an entry with a fresh ID and the current timestamp.
func NewEntry(kind EntryKind, title string, details map[string]any, status EntryStatus) LogEntry {
	if details == nil {
		details = map[string]any{}
	}
	return LogEntry{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		Title:     title,
		Details:   details,
		Status:    status,
	}
}

// NewInputEntry records the user message that started a turn.
func NewInputEntry(message string) LogEntry {
	return NewEntry(KindInput, "User message received", map[string]any{
		"message_preview": Preview(message, InputPreviewLimit),
		"length":          len(message),
	}, StatusSuccess)
}

// NewRoutingEntry records the model surfacing a tool call.
func NewRoutingEntry(tool, reason string) LogEntry {
	return NewEntry(KindRouting, "Selected tool: "+tool, map[string]any{
		"selected_tool": tool,
		"reason":        reason,
	}, StatusSuccess)
}

// NewToolCallPending records a tool invocation that has started but not
// yet finished. The returned entry's ID is reused by the terminal update.
func NewToolCallPending(tool string, args map[string]any) LogEntry {
	return NewEntry(KindToolCall, "Calling "+tool+"...", map[string]any{
		"tool":      tool,
		"arguments": args,
	}, StatusPending)
}

// NewValidationFailure records a tool invocation rejected before execution.
func NewValidationFailure(tool, message string) LogEntry {
	return NewEntry(KindValidation, "Invalid arguments: "+tool, map[string]any{
		"tool":    tool,
		"message": message,
	}, StatusFailure)
}

// NewPerformanceEntry records turn-level timing once a turn finalizes.
func NewPerformanceEntry(ttftMS, totalMS float64) LogEntry {
	e := NewEntry(KindPerformance, "Request complete", map[string]any{
		"ttft_ms":  ttftMS,
		"total_ms": totalMS,
	}, StatusSuccess)
	e.DurationMS = &totalMS
	return e
}

// ToolResult returns the terminal update for a pending tool_call entry:
// same ID, tool_result kind, terminal status, duration set, and extra
// details merged in. The original details map is not mutated.
func (e LogEntry) ToolResult(status EntryStatus, title string, extra map[string]any, durationMS float64) LogEntry {
	details := make(map[string]any, len(e.Details)+len(extra))
	for k, v := range e.Details {
		details[k] = v
	}
	for k, v := range extra {
		details[k] = v
	}

	out := e
	out.Kind = KindToolResult
	out.Timestamp = time.Now().UTC()
	out.Title = title
	out.Details = details
	out.Status = status
	out.DurationMS = &durationMS
	return out
}

// Terminal reports whether the entry has reached a terminal status.
func (e LogEntry) Terminal() bool {
	return e.Status != StatusPending
}

// StreamDict converts the entry to the wire shape: epoch-millisecond
// timestamp, duration_ms present only for terminal entries.
func (e LogEntry) StreamDict() map[string]any {
	d := map[string]any{
		"id":        e.ID,
		"timestamp": e.Timestamp.UnixMilli(),
		"type":      string(e.Kind),
		"title":     e.Title,
		"details":   e.Details,
		"status":    string(e.Status),
	}
	if e.DurationMS != nil {
		d["duration_ms"] = *e.DurationMS
	}
	return d
}
