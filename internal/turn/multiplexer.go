package turn

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/glassbox-io/glassbox/internal/models"
	"github.com/glassbox-io/glassbox/internal/tools"
	"github.com/glassbox-io/glassbox/internal/wire"
)

// State is the lifecycle state of one turn.
type State string

// Turn states.
const (
	StateStarted    State = "started"
	StateGenerating State = "generating"
	StateFinalizing State = "finalizing"
	StateCompleted  State = "completed"
	StateAborted    State = "aborted"
)

// ErrTurnAborted is returned to a model that keeps generating after the
// turn has aborted.
var ErrTurnAborted = errors.New("turn aborted")

// Multiplexer runs turns against one model and tool registry.
type Multiplexer struct {
	model    Model
	registry *tools.Registry

	// Observer, when set, sees every entry the turn emits, after it has
	// been written to the stream. Used for turn-level accounting; must be
	// fast and safe for concurrent calls.
	Observer func(models.LogEntry)
}

// New creates a multiplexer.
func New(model Model, registry *tools.Registry) *Multiplexer {
	return &Multiplexer{model: model, registry: registry}
}

// Run drives one turn: input entry, generation with tool interception,
// performance entry, finish marker. A transport failure or canceled ctx
// aborts the turn; entries already written stay valid, nothing is retried.
func (m *Multiplexer) Run(ctx context.Context, input string, enc *wire.Encoder) (State, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t := &activeTurn{
		ctx:      ctx,
		cancel:   cancel,
		enc:      enc,
		observer: m.Observer,
		start:    time.Now(),
		state:    StateStarted,
	}
	t.wrapper = tools.NewWrapper(m.registry, t.emitEntry)

	// The input entry precedes any model output.
	t.emitEntry(models.NewInputEntry(input))
	if cause := t.abortCause(); cause != nil {
		return StateAborted, cause
	}

	t.setState(StateGenerating)
	genErr := m.model.Generate(ctx, input, t)

	// Independent tool calls may still be running; their terminal entries
	// belong to this turn. After an abort they resolve quickly (canceled
	// ctx) and their entries are discarded by emitEntry.
	t.wg.Wait()

	if cause := t.abortCause(); cause != nil {
		return StateAborted, cause
	}
	if genErr != nil {
		t.abort(genErr)
		log.Printf("[turn] model failed: %v", genErr)
		// Tell the client why, while the transport is still alive.
		_ = enc.Finish(wire.FinishAborted, genErr.Error())
		return StateAborted, genErr
	}

	t.setState(StateFinalizing)
	totalMS := float64(time.Since(t.start)) / float64(time.Millisecond)
	t.emitEntry(models.NewPerformanceEntry(t.ttft(totalMS), totalMS))
	if cause := t.abortCause(); cause != nil {
		return StateAborted, cause
	}

	if err := enc.Finish(wire.FinishStop, ""); err != nil {
		t.abort(err)
		return StateAborted, err
	}
	t.setState(StateCompleted)
	return StateCompleted, nil
}

// activeTurn is the per-turn responder: the single writer to the output
// stream and the sink for instrumentation entries.
type activeTurn struct {
	ctx      context.Context
	cancel   context.CancelFunc
	enc      *wire.Encoder
	wrapper  *tools.Wrapper
	observer func(models.LogEntry)
	start    time.Time

	wg sync.WaitGroup

	mu     sync.Mutex
	state  State
	cause  error
	ttftMS float64 // 0 until the first output fragment
}

func (t *activeTurn) setState(s State) {
	t.mu.Lock()
	if t.state != StateAborted {
		t.state = s
	}
	t.mu.Unlock()
}

// abort moves the turn to its terminal failure state. First cause wins.
// Cancels the turn context so running tools and analyzer queries stop.
func (t *activeTurn) abort(cause error) {
	t.mu.Lock()
	if t.state == StateAborted {
		t.mu.Unlock()
		return
	}
	t.state = StateAborted
	t.cause = cause
	t.mu.Unlock()

	t.cancel()
}

func (t *activeTurn) abortCause() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateAborted {
		return nil
	}
	if t.cause != nil {
		return t.cause
	}
	return ErrTurnAborted
}

// markOutput records time-to-first-output on the first fragment.
func (t *activeTurn) markOutput() {
	t.mu.Lock()
	if t.ttftMS == 0 {
		t.ttftMS = float64(time.Since(t.start)) / float64(time.Millisecond)
	}
	t.mu.Unlock()
}

// ttft returns the recorded time-to-first-output, or the total when the
// turn produced no fragments at all.
func (t *activeTurn) ttft(totalMS float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ttftMS == 0 {
		return totalMS
	}
	return t.ttftMS
}

// emitEntry writes one log entry frame. After an abort it drops entries
// silently: there is no consumer left, and late tool results must not
// resurrect the stream.
func (t *activeTurn) emitEntry(e models.LogEntry) {
	if err := t.ctx.Err(); err != nil {
		t.abort(err)
	}
	if t.abortCause() != nil {
		return
	}
	if err := t.enc.BrainLog(e); err != nil {
		t.abort(err)
		return
	}
	if t.observer != nil {
		t.observer(e)
	}
}

func (t *activeTurn) Thinking(delta string) error {
	if err := t.ctx.Err(); err != nil {
		t.abort(err)
	}
	if cause := t.abortCause(); cause != nil {
		return ErrTurnAborted
	}
	t.markOutput()
	if err := t.enc.ReasoningDelta(delta); err != nil {
		t.abort(err)
		return err
	}
	return nil
}

func (t *activeTurn) Text(delta string) error {
	if err := t.ctx.Err(); err != nil {
		t.abort(err)
	}
	if cause := t.abortCause(); cause != nil {
		return ErrTurnAborted
	}
	t.markOutput()
	if err := t.enc.TextDelta(delta); err != nil {
		t.abort(err)
		return err
	}
	return nil
}

func (t *activeTurn) Invoke(tool string, args map[string]any, reason string) (any, error) {
	if cause := t.abortCause(); cause != nil {
		return nil, ErrTurnAborted
	}
	t.emitEntry(models.NewRoutingEntry(tool, reason))
	return t.wrapper.Invoke(t.ctx, tool, args)
}

func (t *activeTurn) Dispatch(tool string, args map[string]any, reason string) Await {
	type outcome struct {
		result any
		err    error
	}

	if cause := t.abortCause(); cause != nil {
		return func() (any, error) { return nil, ErrTurnAborted }
	}

	t.emitEntry(models.NewRoutingEntry(tool, reason))

	ch := make(chan outcome, 1)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		result, err := t.wrapper.Invoke(t.ctx, tool, args)
		ch <- outcome{result, err}
	}()
	return func() (any, error) {
		o := <-ch
		return o.result, o.err
	}
}
