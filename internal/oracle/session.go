package oracle

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// session is one live connection to an analyzer process for a workspace.
// Writes to the process are serialized by sendMu (the analyzer's stdin is
// not safe for concurrent writers); responses are demultiplexed by
// correlation id so many requests can be outstanding at once.
type session struct {
	workspace string
	cmd       *exec.Cmd
	stdin     io.WriteCloser

	sendMu sync.Mutex // serializes stdin writes
	nextID int64      // guarded by sendMu

	mu      sync.Mutex
	waiters map[int64]chan response
	closed  bool

	done chan struct{} // closed when the process exits or stdout closes

	activityMu   sync.Mutex
	lastActivity time.Time

	staleMu sync.Mutex
	stale   bool
}

// startSession spawns the analyzer process for a workspace and performs
// the initialize handshake. The returned session is ready for queries.
func startSession(ctx context.Context, workspace string, command []string, handshakeTimeout time.Duration) (*session, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("no analyzer command configured: %w", ErrAnalysisUnavailable)
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = workspace

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open analyzer stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open analyzer stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open analyzer stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start analyzer: %w: %w", err, ErrAnalysisUnavailable)
	}

	s := &session{
		workspace:    workspace,
		cmd:          cmd,
		stdin:        stdin,
		waiters:      make(map[int64]chan response),
		done:         make(chan struct{}),
		lastActivity: time.Now(),
	}

	go s.readLoop(stdout)
	go s.stderrLoop(stderr)

	// Synchronous handshake: nothing else may be in flight before the
	// analyzer has acknowledged the workspace root.
	hsCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()
	if _, err := s.roundTrip(hsCtx, QueryInitialize, Params{Root: workspace}); err != nil {
		s.stop()
		return nil, fmt.Errorf("analyzer handshake failed: %w", err)
	}

	s.logf("analyzer session started (pid %d)", cmd.Process.Pid)
	return s, nil
}

// roundTrip sends one request and waits for its correlated response.
// The waiter is always removed from the map on exit, so a timed-out or
// canceled query never leaks its correlation slot.
func (s *session) roundTrip(ctx context.Context, kind QueryKind, params Params) (json.RawMessage, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrAnalysisUnavailable
	}
	s.mu.Unlock()

	ch := make(chan response, 1)

	s.sendMu.Lock()
	s.nextID++
	id := s.nextID

	s.mu.Lock()
	s.waiters[id] = ch
	s.mu.Unlock()

	line, err := json.Marshal(request{ID: id, Kind: kind, Params: params})
	if err == nil {
		line = append(line, '\n')
		_, err = s.stdin.Write(line)
	}
	s.sendMu.Unlock()

	if err != nil {
		s.removeWaiter(id)
		s.fail()
		return nil, fmt.Errorf("analyzer write failed: %w: %w", err, ErrAnalysisUnavailable)
	}

	s.touch()

	select {
	case resp := <-ch:
		s.touch()
		if resp.Error != "" {
			return nil, &QueryError{Kind: kind, Message: resp.Error}
		}
		return resp.Result, nil
	case <-ctx.Done():
		s.removeWaiter(id)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrAnalysisTimeout
		}
		return nil, ctx.Err()
	case <-s.done:
		s.removeWaiter(id)
		return nil, ErrAnalysisUnavailable
	}
}

// readLoop demultiplexes stdout lines to waiters by correlation id.
// A response with no waiter (timed out, canceled) is discarded.
func (s *session) readLoop(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		var resp response
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			s.logf("discarding malformed analyzer line: %v", err)
			continue
		}

		s.mu.Lock()
		ch, ok := s.waiters[resp.ID]
		if ok {
			delete(s.waiters, resp.ID)
		}
		s.mu.Unlock()

		if ok {
			ch <- resp
		}
	}

	// EOF or read error: every in-flight query fails, the session is dead.
	s.fail()
	_ = s.cmd.Wait()
}

// stderrLoop logs analyzer diagnostics and marks the session stale when a
// line matches a fatal pattern, so the next query respawns cleanly.
func (s *session) stderrLoop(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		if ClassifyStderr(line) == StderrFatal {
			s.logf("analyzer reported fatal condition: %s", line)
			s.markStale()
			continue
		}
		s.logf("analyzer: %s", line)
	}
}

// fail closes the session: all in-flight waiters observe done and resolve
// to ErrAnalysisUnavailable. Safe to call more than once.
func (s *session) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.waiters = make(map[int64]chan response)
	close(s.done)
}

func (s *session) removeWaiter(id int64) {
	s.mu.Lock()
	delete(s.waiters, id)
	s.mu.Unlock()
}

// alive reports whether the session can still accept queries.
func (s *session) alive() bool {
	select {
	case <-s.done:
		return false
	default:
	}
	s.staleMu.Lock()
	defer s.staleMu.Unlock()
	return !s.stale
}

func (s *session) markStale() {
	s.staleMu.Lock()
	s.stale = true
	s.staleMu.Unlock()
}

func (s *session) touch() {
	s.activityMu.Lock()
	s.lastActivity = time.Now()
	s.activityMu.Unlock()
}

func (s *session) idleSince() time.Time {
	s.activityMu.Lock()
	defer s.activityMu.Unlock()
	return s.lastActivity
}

// stop terminates the analyzer process. Sends a best-effort shutdown
// request and SIGTERM, waits 5 seconds, then SIGKILL.
func (s *session) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	_, _ = s.roundTrip(shutdownCtx, QueryShutdown, Params{})
	cancel()

	_ = s.stdin.Close()

	if s.cmd.Process == nil {
		return
	}
	_ = s.cmd.Process.Signal(syscall.SIGTERM)

	select {
	case <-s.done:
		return
	case <-time.After(5 * time.Second):
	}

	_ = s.cmd.Process.Kill()
	<-s.done
}

// logf logs a message with the session's workspace context.
func (s *session) logf(format string, args ...interface{}) {
	prefix := fmt.Sprintf("[oracle:%s] ", s.workspace)
	log.Printf(prefix+format, args...)
}
