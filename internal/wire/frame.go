// Package wire implements the streaming chat protocol: newline-delimited
// JSON frames carrying text deltas, reasoning deltas, brain log entries,
// and the terminal finish marker.
package wire

// FrameType identifies one streamed frame. Consumers must skip frame types
// they do not recognize; new types are additive.
type FrameType string

// Frame types.
const (
	FrameTextDelta      FrameType = "text-delta"
	FrameReasoningDelta FrameType = "reasoning-delta"
	FrameBrainLog       FrameType = "data-brainlog"
	FrameFinish         FrameType = "finish"
)

// FinishReason says how a turn ended.
type FinishReason string

// Finish reasons.
const (
	FinishStop    FinishReason = "stop"
	FinishAborted FinishReason = "aborted"
)
