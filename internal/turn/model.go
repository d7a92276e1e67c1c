// Package turn drives one assistant turn end to end: it runs the model,
// routes tool calls through instrumentation, and multiplexes fragments and
// log entries onto a single ordered output stream.
package turn

import "context"

// Await resolves a dispatched tool call. It blocks until the call's
// terminal entry has been emitted.
type Await func() (any, error)

// Responder is the surface a model generates through. Fragment writes
// return an error once the turn has aborted; the model must stop then.
type Responder interface {
	// Thinking streams one increment of reasoning text.
	Thinking(delta string) error
	// Text streams one increment of visible answer text.
	Text(delta string) error
	// Invoke runs a tool and waits for its result. Tool failures come
	// back as ordinary errors the model can reason about; they never
	// abort the turn.
	Invoke(tool string, args map[string]any, reason string) (any, error)
	// Dispatch starts a tool without waiting, for calls nothing else
	// depends on yet. The returned Await joins the result.
	Dispatch(tool string, args map[string]any, reason string) Await
}

// Model produces one turn's worth of output through a Responder.
type Model interface {
	Generate(ctx context.Context, input string, r Responder) error
}
