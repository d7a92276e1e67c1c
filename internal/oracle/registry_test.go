package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestRegistry(t *testing.T, root string, timeout time.Duration, extraEnv ...string) *Registry {
	t.Helper()
	r := NewRegistry(Config{
		Root:         root,
		Command:      fakeCommand(t, extraEnv...),
		QueryTimeout: timeout,
		IdleWindow:   time.Hour,
	})
	t.Cleanup(r.StopAll)
	return r
}

func TestQueryRoundTrip(t *testing.T) {
	root := t.TempDir()
	r := newTestRegistry(t, root, 2*time.Second)

	result, err := r.Query(context.Background(), root, QueryDefinition, Params{File: "a.go", Symbol: "Parser"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	var decoded struct {
		Definitions []struct {
			File string `json:"file"`
			Line int    `json:"line"`
		} `json:"definitions"`
	}
	if err := json.Unmarshal(result, &decoded); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(decoded.Definitions) != 1 || decoded.Definitions[0].File != "parser.go" {
		t.Errorf("unexpected result: %s", result)
	}
}

func TestQueryTimeoutFreesCorrelationSlot(t *testing.T) {
	root := t.TempDir()
	r := newTestRegistry(t, root, 200*time.Millisecond)

	_, err := r.Query(context.Background(), root, QueryDefinition, Params{File: "a.go", Symbol: "drop"})
	if !errors.Is(err, ErrAnalysisTimeout) {
		t.Fatalf("want ErrAnalysisTimeout, got %v", err)
	}

	// The timed-out waiter must not linger in the correlation map.
	r.mu.Lock()
	sl := r.slots[root]
	r.mu.Unlock()
	sl.mu.Lock()
	sess := sl.sess
	sl.mu.Unlock()
	if sess == nil {
		t.Fatal("session discarded after timeout; timeouts should keep the session")
	}
	sess.mu.Lock()
	pending := len(sess.waiters)
	sess.mu.Unlock()
	if pending != 0 {
		t.Errorf("correlation map has %d leaked waiters after timeout", pending)
	}

	// The same session keeps answering after a timeout.
	if _, err := r.Query(context.Background(), root, QueryDefinition, Params{File: "a.go", Symbol: "Parser"}); err != nil {
		t.Fatalf("query after timeout: %v", err)
	}
}

func TestCrashFailsInflightAndRespawns(t *testing.T) {
	root := t.TempDir()
	r := newTestRegistry(t, root, 5*time.Second)

	// Park one query in flight, then crash the analyzer under it.
	var wg sync.WaitGroup
	wg.Add(1)
	var blockedErr error
	go func() {
		defer wg.Done()
		_, blockedErr = r.Query(context.Background(), root, QueryDefinition, Params{File: "a.go", Symbol: "block"})
	}()
	time.Sleep(50 * time.Millisecond)

	_, err := r.Query(context.Background(), root, QueryDefinition, Params{File: "a.go", Symbol: "boom"})
	if !errors.Is(err, ErrAnalysisUnavailable) {
		t.Fatalf("crashing query: want ErrAnalysisUnavailable, got %v", err)
	}

	wg.Wait()
	if !errors.Is(blockedErr, ErrAnalysisUnavailable) {
		t.Fatalf("in-flight query: want ErrAnalysisUnavailable, got %v", blockedErr)
	}

	// Next query spawns a fresh session.
	if _, err := r.Query(context.Background(), root, QueryDefinition, Params{File: "a.go", Symbol: "Parser"}); err != nil {
		t.Fatalf("query after crash: %v", err)
	}
}

func TestConcurrentFirstUseSpawnsOneProcess(t *testing.T) {
	root := t.TempDir()
	spawnFile := filepath.Join(t.TempDir(), "spawns")
	r := newTestRegistry(t, root, 5*time.Second, "GLASSBOX_FAKE_SPAWNFILE="+spawnFile)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.Query(context.Background(), root, QueryDefinition, Params{File: "a.go", Symbol: "Parser"})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("query %d: %v", i, err)
		}
	}

	data, err := os.ReadFile(spawnFile)
	if err != nil {
		t.Fatalf("read spawn file: %v", err)
	}
	if len(data) != 1 {
		t.Errorf("spawned %d analyzer processes for one workspace, want 1", len(data))
	}
}

func TestOutOfOrderResponsesCorrelate(t *testing.T) {
	root := t.TempDir()
	r := newTestRegistry(t, root, 5*time.Second)

	type outcome struct {
		result json.RawMessage
		err    error
	}
	slow := make(chan outcome, 1)
	go func() {
		res, err := r.Query(context.Background(), root, QueryDefinition, Params{File: "a.go", Symbol: "block"})
		slow <- outcome{res, err}
	}()
	time.Sleep(50 * time.Millisecond)

	// The fast query is answered while the slow one is still outstanding.
	fast, err := r.Query(context.Background(), root, QueryDefinition, Params{File: "a.go", Symbol: "Parser"})
	if err != nil {
		t.Fatalf("fast query: %v", err)
	}
	if string(fast) == `{"symbol":"block"}` {
		t.Fatal("fast query received the slow query's response")
	}

	got := <-slow
	if got.err != nil {
		t.Fatalf("slow query: %v", got.err)
	}
	var decoded struct {
		Symbol string `json:"symbol"`
	}
	if err := json.Unmarshal(got.result, &decoded); err != nil || decoded.Symbol != "block" {
		t.Errorf("slow query got wrong response: %s", got.result)
	}
}

func TestAnalyzerErrorResponse(t *testing.T) {
	root := t.TempDir()
	r := newTestRegistry(t, root, 2*time.Second)

	_, err := r.Query(context.Background(), root, QueryReferences, Params{File: "a.go", Symbol: "fail"})
	var qerr *QueryError
	if !errors.As(err, &qerr) {
		t.Fatalf("want *QueryError, got %v", err)
	}
	if qerr.Kind != QueryReferences || qerr.Message != "symbol not found" {
		t.Errorf("unexpected query error: %+v", qerr)
	}

	// A per-request error does not kill the session.
	if _, err := r.Query(context.Background(), root, QueryDefinition, Params{File: "a.go", Symbol: "Parser"}); err != nil {
		t.Fatalf("query after error response: %v", err)
	}
}

func TestInvalidateRespawnsSession(t *testing.T) {
	root := t.TempDir()
	spawnFile := filepath.Join(t.TempDir(), "spawns")
	r := newTestRegistry(t, root, 5*time.Second, "GLASSBOX_FAKE_SPAWNFILE="+spawnFile)

	if _, err := r.Query(context.Background(), root, QueryDefinition, Params{File: "a.go", Symbol: "Parser"}); err != nil {
		t.Fatalf("first query: %v", err)
	}
	r.Invalidate(root)
	if _, err := r.Query(context.Background(), root, QueryDefinition, Params{File: "a.go", Symbol: "Parser"}); err != nil {
		t.Fatalf("query after invalidate: %v", err)
	}

	data, err := os.ReadFile(spawnFile)
	if err != nil {
		t.Fatalf("read spawn file: %v", err)
	}
	if len(data) != 2 {
		t.Errorf("spawned %d analyzer processes across invalidation, want 2", len(data))
	}
}

func TestQueryValidation(t *testing.T) {
	root := t.TempDir()
	r := newTestRegistry(t, root, 2*time.Second)

	_, err := r.Query(context.Background(), root, QueryDefinition, Params{File: "a.go"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("missing symbol: want *ValidationError, got %v", err)
	}

	_, err = r.Query(context.Background(), root, QueryDocumentSymbols, Params{})
	if !errors.As(err, &verr) {
		t.Fatalf("missing file: want *ValidationError, got %v", err)
	}
}

func TestResolveUnderRoot(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"relative inside", "src/main.go", false},
		{"root itself", ".", false},
		{"absolute inside", filepath.Join(root, "pkg"), false},
		{"dotdot escape", "../outside", true},
		{"nested dotdot escape", "src/../../outside", true},
		{"absolute outside", "/etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveUnderRoot(root, tt.path)
			if tt.wantErr {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("want *ValidationError, got %v (resolved %q)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rel, _ := filepath.Rel(root, got); rel == ".." || filepath.IsAbs(rel) {
				t.Errorf("resolved path %q is outside root %q", got, root)
			}
		})
	}
}

func TestClassifyStderr(t *testing.T) {
	tests := []struct {
		line string
		want StderrSeverity
	}{
		{"indexing 1423 files", StderrInfo},
		{"warning: skipping vendored directory", StderrInfo},
		{"panic: runtime error: index out of range", StderrFatal},
		{"fatal error: concurrent map writes", StderrFatal},
		{"analyzer: out of memory while building index", StderrFatal},
		{"mmap: cannot allocate memory", StderrFatal},
		{"workspace index corrupt, rebuild required", StderrFatal},
		{"unrecoverable parser state", StderrFatal},
	}

	for _, tt := range tests {
		if got := ClassifyStderr(tt.line); got != tt.want {
			t.Errorf("ClassifyStderr(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
