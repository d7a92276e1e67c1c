package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glassbox-io/glassbox/internal/models"
)

// Emitter receives brain log entries as the wrapper produces them.
type Emitter func(models.LogEntry)

// ToolError reports a tool that ran and failed. It is recovered locally:
// the turn continues and the failure becomes the tool's result.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// ValidationError reports an invocation rejected before the tool ran:
// unknown tool name or missing required arguments.
type ValidationError struct {
	Tool    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid call to %s: %s", e.Tool, e.Message)
}

// Wrapper instruments tool invocations. Every accepted invocation emits
// exactly two entries under one ID: a pending tool_call when the tool
// starts and a terminal tool_result when it finishes. Rejected invocations
// emit a single validation entry instead.
type Wrapper struct {
	registry *Registry
	emit     Emitter
}

// NewWrapper creates a wrapper over a registry. emit must be safe for
// concurrent use; independent invocations may run in parallel.
func NewWrapper(registry *Registry, emit Emitter) *Wrapper {
	return &Wrapper{registry: registry, emit: emit}
}

// Invoke validates, runs, and instruments one tool call. Tool failures
// (including panics) are recovered into a failure entry and returned as a
// *ToolError; they never propagate as panics and never abort the turn.
func (w *Wrapper) Invoke(ctx context.Context, name string, args map[string]any) (result any, err error) {
	tool, ok := w.registry.Lookup(name)
	if !ok {
		w.emit(models.NewValidationFailure(name, "unknown tool"))
		return nil, &ValidationError{Tool: name, Message: "unknown tool"}
	}
	for _, key := range tool.Required {
		if stringArg(args, key) == "" {
			msg := "missing required argument: " + key
			w.emit(models.NewValidationFailure(name, msg))
			return nil, &ValidationError{Tool: name, Message: msg}
		}
	}

	pending := models.NewToolCallPending(name, args)
	w.emit(pending)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = &ToolError{Tool: name, Err: fmt.Errorf("panic: %v", r)}
			result = nil
			w.emit(pending.ToolResult(models.StatusFailure, name+" failed", map[string]any{
				"error": err.Error(),
			}, elapsedMS(start)))
		}
	}()

	out, runErr := tool.Run(ctx, args)
	if runErr != nil {
		w.emit(pending.ToolResult(models.StatusFailure, name+" failed", map[string]any{
			"error": runErr.Error(),
		}, elapsedMS(start)))
		return nil, &ToolError{Tool: name, Err: runErr}
	}

	w.emit(pending.ToolResult(models.StatusSuccess, name+" succeeded", map[string]any{
		"result_preview": resultPreview(out),
	}, elapsedMS(start)))
	return out, nil
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

// resultPreview renders a bounded, human-readable preview of a tool result
// for the terminal log entry. Full results travel to the model, not here.
func resultPreview(result any) string {
	data, err := json.Marshal(result)
	if err != nil {
		return models.Preview(fmt.Sprintf("%v", result), models.PreviewLimit)
	}
	return models.Preview(string(data), models.PreviewLimit)
}
