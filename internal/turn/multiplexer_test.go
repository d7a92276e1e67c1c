package turn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/glassbox-io/glassbox/internal/logstore"
	"github.com/glassbox-io/glassbox/internal/models"
	"github.com/glassbox-io/glassbox/internal/tools"
	"github.com/glassbox-io/glassbox/internal/wire"
)

// modelFunc adapts a function to the Model interface.
type modelFunc func(ctx context.Context, input string, r Responder) error

func (f modelFunc) Generate(ctx context.Context, input string, r Responder) error {
	return f(ctx, input, r)
}

// runTurn drives one turn into a buffer and decodes everything back.
func runTurn(t *testing.T, model Model, registry *tools.Registry, input string) (State, error, []*wire.Event) {
	t.Helper()

	var buf bytes.Buffer
	state, err := New(model, registry).Run(context.Background(), input, wire.NewEncoder(&buf))
	return state, err, decodeAll(t, &buf)
}

func decodeAll(t *testing.T, r io.Reader) []*wire.Event {
	t.Helper()
	dec := wire.NewDecoder(r)
	var events []*wire.Event
	for {
		ev, err := dec.Next()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		events = append(events, ev)
	}
}

// buildStore replays decoded brainlog frames into a client store.
func buildStore(events []*wire.Event) *logstore.Store {
	s := logstore.NewStore()
	for _, ev := range events {
		if ev.Type == wire.FrameBrainLog {
			s.Upsert(ev.Entry)
		}
	}
	return s
}

// entrySequences groups brainlog frames by entry ID in arrival order.
func entrySequences(events []*wire.Event) map[string][]models.LogEntry {
	seq := make(map[string][]models.LogEntry)
	for _, ev := range events {
		if ev.Type == wire.FrameBrainLog {
			seq[ev.Entry.ID] = append(seq[ev.Entry.ID], ev.Entry)
		}
	}
	return seq
}

func registryWith(t *testing.T, ts ...tools.Tool) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry()
	for _, tool := range ts {
		if err := r.Register(tool); err != nil {
			t.Fatalf("register %s: %v", tool.Name, err)
		}
	}
	return r
}

// Scenario A: a definition lookup returning two locations shows up as one
// tool_call ID transitioning pending → success with both locations visible.
func TestTurnDefinitionLookup(t *testing.T) {
	registry := registryWith(t, tools.Tool{
		Name:     "go_to_definition",
		Required: []string{"symbol"},
		Run: func(_ context.Context, _ map[string]any) (any, error) {
			return &models.DefinitionResult{
				Symbol: "Parser",
				Definitions: []models.DefinitionLocation{
					{File: "parser.go", Line: 10},
					{File: "parser_gen.go", Line: 3},
				},
			}, nil
		},
	})

	model := modelFunc(func(_ context.Context, _ string, r Responder) error {
		_, err := r.Invoke("go_to_definition", map[string]any{"symbol": "Parser", "file": "parser.go"}, "symbol lookup")
		return err
	})

	state, err, events := runTurn(t, model, registry, "find symbol `Parser`")
	if err != nil || state != StateCompleted {
		t.Fatalf("turn ended %s, %v", state, err)
	}

	var toolID string
	for id, seq := range entrySequences(events) {
		if seq[0].Kind == models.KindToolCall {
			toolID = id
			if len(seq) != 2 {
				t.Fatalf("tool entry has %d frames, want pending+terminal", len(seq))
			}
			if seq[0].Status != models.StatusPending || seq[1].Status != models.StatusSuccess {
				t.Fatalf("tool lifecycle = %s → %s", seq[0].Status, seq[1].Status)
			}
			preview, _ := seq[1].Details["result_preview"].(string)
			var decoded models.DefinitionResult
			if err := json.Unmarshal([]byte(preview), &decoded); err != nil {
				t.Fatalf("result_preview is not the result: %q", preview)
			}
			if len(decoded.Definitions) != 2 {
				t.Errorf("result carries %d locations, want 2", len(decoded.Definitions))
			}
		}
	}
	if toolID == "" {
		t.Fatal("no tool_call entry in stream")
	}

	store := buildStore(events)
	if got, _ := store.Get(toolID); got.Kind != models.KindToolResult {
		t.Errorf("store holds %s under the tool ID, want tool_result", got.Kind)
	}
}

// Scenario B: a tool error becomes a failure entry and the turn still
// completes.
func TestTurnSurvivesToolFailure(t *testing.T) {
	registry := registryWith(t, tools.Tool{
		Name: "read_file_slice",
		Run: func(_ context.Context, _ map[string]any) (any, error) {
			return nil, errors.New("no such file: missing.go")
		},
	})

	model := modelFunc(func(_ context.Context, _ string, r Responder) error {
		if _, err := r.Invoke("read_file_slice", map[string]any{"file_path": "missing.go"}, "file request"); err != nil {
			return r.Text("That file does not exist.")
		}
		return nil
	})

	state, err, events := runTurn(t, model, registry, "show me missing.go")
	if err != nil || state != StateCompleted {
		t.Fatalf("turn ended %s, %v — tool failure must not abort", state, err)
	}

	found := false
	for _, seq := range entrySequences(events) {
		if seq[0].Kind == models.KindToolCall {
			found = true
			terminal := seq[len(seq)-1]
			if terminal.Status != models.StatusFailure {
				t.Errorf("terminal status = %s, want failure", terminal.Status)
			}
			if msg, _ := terminal.Details["error"].(string); msg == "" {
				t.Error("failure entry has no error description")
			}
		}
	}
	if !found {
		t.Fatal("no tool_call entry in stream")
	}

	last := events[len(events)-1]
	if last.Type != wire.FrameFinish || last.Reason != wire.FinishStop {
		t.Errorf("stream did not end with a clean finish: %+v", last)
	}
}

// Scenario C: two independent tool calls overlap, each keeping its own ID,
// contributing exactly four entry frames.
func TestTurnConcurrentIndependentCalls(t *testing.T) {
	arrive := make(chan struct{}, 2)
	release := make(chan struct{})

	slowTool := func(name string) tools.Tool {
		return tools.Tool{
			Name: name,
			Run: func(_ context.Context, _ map[string]any) (any, error) {
				arrive <- struct{}{}
				<-release
				return name + " done", nil
			},
		}
	}
	registry := registryWith(t, slowTool("get_experience"), slowTool("get_skills"))

	model := modelFunc(func(_ context.Context, _ string, r Responder) error {
		first := r.Dispatch("get_experience", nil, "overview")
		second := r.Dispatch("get_skills", nil, "overview")

		// Both must be in flight (pending entries emitted) before either
		// may resolve.
		<-arrive
		<-arrive
		close(release)

		if _, err := first(); err != nil {
			return err
		}
		_, err := second()
		return err
	})

	state, err, events := runTurn(t, model, registry, "tell me about yourself")
	if err != nil || state != StateCompleted {
		t.Fatalf("turn ended %s, %v", state, err)
	}

	toolFrames := 0
	toolIDs := make(map[string]bool)
	for id, seq := range entrySequences(events) {
		if seq[0].Kind != models.KindToolCall {
			continue
		}
		toolIDs[id] = true
		toolFrames += len(seq)
		if len(seq) != 2 || seq[0].Status != models.StatusPending || !seq[1].Terminal() {
			t.Errorf("ID %s lifecycle broken: %d frames", id, len(seq))
		}
	}
	if len(toolIDs) != 2 || toolFrames != 4 {
		t.Fatalf("%d tool IDs with %d frames, want 2 IDs / 4 frames", len(toolIDs), toolFrames)
	}

	if buildStore(events).Counters().Pending != 0 {
		t.Error("store still holds pending entries after the turn completed")
	}
}

// flakyWriter accepts a fixed number of writes, then fails every write and
// counts further attempts.
type flakyWriter struct {
	buf           bytes.Buffer
	remaining     int
	attemptsAfter int
}

func (w *flakyWriter) Write(p []byte) (int, error) {
	if w.remaining > 0 {
		w.remaining--
		return w.buf.Write(p)
	}
	w.attemptsAfter++
	return 0, errors.New("broken pipe")
}

// Scenario D: a mid-turn disconnect aborts the turn, nothing more is
// written, and the frames already received still build a valid store.
func TestTurnAbortsOnTransportFailure(t *testing.T) {
	registry := tools.NewRegistry()
	model := modelFunc(func(_ context.Context, _ string, r Responder) error {
		for i := 0; i < 50; i++ {
			if err := r.Text("chunk "); err != nil {
				return err
			}
		}
		t.Error("model generated past the transport failure")
		return nil
	})

	w := &flakyWriter{remaining: 5} // input entry + 4 deltas
	state, err := New(model, registry).Run(context.Background(), "stream a lot", wire.NewEncoder(w))
	if state != StateAborted {
		t.Fatalf("state = %s, want aborted", state)
	}
	var terr *wire.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("want *wire.TransportError, got %v", err)
	}
	// The write that failed is the only one after the cutoff.
	if w.attemptsAfter != 1 {
		t.Errorf("%d writes attempted after disconnect, want 1", w.attemptsAfter)
	}

	events := decodeAll(t, &w.buf)
	if len(events) != 5 {
		t.Fatalf("received %d frames before disconnect, want 5", len(events))
	}
	store := buildStore(events)
	if store.Len() != 1 {
		t.Errorf("store built from received frames has %d entries, want the input entry", store.Len())
	}
}

func TestTurnEmitsInputFirstAndPerformanceLast(t *testing.T) {
	registry := tools.NewRegistry()
	model := modelFunc(func(_ context.Context, _ string, r Responder) error {
		if err := r.Thinking("hm"); err != nil {
			return err
		}
		return r.Text("hello")
	})

	state, err, events := runTurn(t, model, registry, "hi")
	if err != nil || state != StateCompleted {
		t.Fatalf("turn ended %s, %v", state, err)
	}

	if events[0].Type != wire.FrameBrainLog || events[0].Entry.Kind != models.KindInput {
		t.Errorf("first frame = %+v, want the input entry", events[0])
	}
	if events[len(events)-1].Type != wire.FrameFinish {
		t.Errorf("last frame = %+v, want finish", events[len(events)-1])
	}

	perf := events[len(events)-2]
	if perf.Type != wire.FrameBrainLog || perf.Entry.Kind != models.KindPerformance {
		t.Fatalf("penultimate frame = %+v, want the performance entry", perf)
	}
	ttft, _ := perf.Entry.Details["ttft_ms"].(float64)
	total, _ := perf.Entry.Details["total_ms"].(float64)
	if ttft <= 0 || total <= 0 || ttft > total {
		t.Errorf("performance details ttft=%v total=%v", ttft, total)
	}
	if perf.Entry.DurationMS == nil {
		t.Error("performance entry has no duration")
	}
}

func TestTurnModelFailureAborts(t *testing.T) {
	registry := tools.NewRegistry()
	model := modelFunc(func(_ context.Context, _ string, r Responder) error {
		if err := r.Text("partial"); err != nil {
			return err
		}
		return errors.New("upstream model unreachable")
	})

	var buf bytes.Buffer
	state, err := New(model, registry).Run(context.Background(), "hi", wire.NewEncoder(&buf))
	if state != StateAborted || err == nil {
		t.Fatalf("turn ended %s, %v", state, err)
	}

	events := decodeAll(t, &buf)
	last := events[len(events)-1]
	if last.Type != wire.FrameFinish || last.Reason != wire.FinishAborted || last.Err == "" {
		t.Errorf("stream should end with an aborted finish carrying the cause, got %+v", last)
	}
}
