package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/glassbox-io/glassbox/internal/models"
)

// collectEmitter gathers emitted entries for assertions.
type collectEmitter struct {
	mu      sync.Mutex
	entries []models.LogEntry
}

func (c *collectEmitter) emit(e models.LogEntry) {
	c.mu.Lock()
	c.entries = append(c.entries, e)
	c.mu.Unlock()
}

func (c *collectEmitter) all() []models.LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.LogEntry(nil), c.entries...)
}

func newTestWrapper(t *testing.T) (*Wrapper, *collectEmitter) {
	t.Helper()
	r := NewRegistry()
	tools := []Tool{
		{
			Name:     "echo",
			Required: []string{"text"},
			Run: func(_ context.Context, args map[string]any) (any, error) {
				return map[string]any{"echoed": args["text"]}, nil
			},
		},
		{
			Name: "explode",
			Run: func(_ context.Context, _ map[string]any) (any, error) {
				return nil, errors.New("backend unreachable")
			},
		},
		{
			Name: "panics",
			Run: func(_ context.Context, _ map[string]any) (any, error) {
				panic("unexpected state")
			},
		},
	}
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			t.Fatalf("register %s: %v", tool.Name, err)
		}
	}
	c := &collectEmitter{}
	return NewWrapper(r, c.emit), c
}

func TestInvokeEmitsPairedEntries(t *testing.T) {
	w, c := newTestWrapper(t)

	result, err := w.Invoke(context.Background(), "echo", map[string]any{"text": "hi"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if result == nil {
		t.Fatal("expected a result")
	}

	entries := c.all()
	if len(entries) != 2 {
		t.Fatalf("emitted %d entries, want 2", len(entries))
	}

	pending, terminal := entries[0], entries[1]
	if pending.Kind != models.KindToolCall || pending.Status != models.StatusPending {
		t.Errorf("first entry: kind=%s status=%s, want tool_call/pending", pending.Kind, pending.Status)
	}
	if terminal.Kind != models.KindToolResult || terminal.Status != models.StatusSuccess {
		t.Errorf("second entry: kind=%s status=%s, want tool_result/success", terminal.Kind, terminal.Status)
	}
	if pending.ID != terminal.ID {
		t.Errorf("terminal entry ID %s does not match pending ID %s", terminal.ID, pending.ID)
	}
	if terminal.DurationMS == nil {
		t.Error("terminal entry has no duration")
	}
	if _, ok := terminal.Details["result_preview"]; !ok {
		t.Error("terminal entry has no result_preview")
	}
}

func TestInvokeRecoversToolErrors(t *testing.T) {
	w, c := newTestWrapper(t)

	_, err := w.Invoke(context.Background(), "explode", nil)
	var terr *ToolError
	if !errors.As(err, &terr) {
		t.Fatalf("want *ToolError, got %v", err)
	}

	entries := c.all()
	if len(entries) != 2 {
		t.Fatalf("emitted %d entries, want 2", len(entries))
	}
	terminal := entries[1]
	if terminal.Status != models.StatusFailure {
		t.Errorf("terminal status = %s, want failure", terminal.Status)
	}
	if terminal.ID != entries[0].ID {
		t.Error("failure entry does not share the pending entry's ID")
	}
	if msg, _ := terminal.Details["error"].(string); msg != "backend unreachable" {
		t.Errorf("error detail = %q", msg)
	}
}

func TestInvokeRecoversPanics(t *testing.T) {
	w, c := newTestWrapper(t)

	_, err := w.Invoke(context.Background(), "panics", nil)
	var terr *ToolError
	if !errors.As(err, &terr) {
		t.Fatalf("want *ToolError, got %v", err)
	}

	entries := c.all()
	if len(entries) != 2 || entries[1].Status != models.StatusFailure {
		t.Fatalf("expected pending + failure entries, got %d entries", len(entries))
	}
}

func TestInvokeValidation(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args map[string]any
	}{
		{"unknown tool", "no_such_tool", nil},
		{"missing required argument", "echo", map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, c := newTestWrapper(t)

			_, err := w.Invoke(context.Background(), tt.tool, tt.args)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("want *ValidationError, got %v", err)
			}

			entries := c.all()
			if len(entries) != 1 {
				t.Fatalf("emitted %d entries, want 1 validation entry", len(entries))
			}
			if entries[0].Kind != models.KindValidation || entries[0].Status != models.StatusFailure {
				t.Errorf("entry kind=%s status=%s, want validation/failure", entries[0].Kind, entries[0].Status)
			}
		})
	}
}

func TestConcurrentInvocationsStayIndependent(t *testing.T) {
	w, c := newTestWrapper(t)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := w.Invoke(context.Background(), "echo", map[string]any{"text": fmt.Sprintf("m%d", i)})
			if err != nil {
				t.Errorf("invocation %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	entries := c.all()
	if len(entries) != 2*n {
		t.Fatalf("emitted %d entries, want %d", len(entries), 2*n)
	}

	// Each pending entry must have exactly one terminal partner with its ID.
	pendings := make(map[string]int)
	terminals := make(map[string]int)
	for _, e := range entries {
		switch e.Kind {
		case models.KindToolCall:
			pendings[e.ID]++
		case models.KindToolResult:
			terminals[e.ID]++
		}
	}
	if len(pendings) != n {
		t.Errorf("%d distinct pending IDs, want %d", len(pendings), n)
	}
	for id, count := range pendings {
		if count != 1 || terminals[id] != 1 {
			t.Errorf("ID %s: %d pending, %d terminal, want 1/1", id, count, terminals[id])
		}
	}
}
