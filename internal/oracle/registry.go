// Package oracle answers semantic source-code queries by delegating to a
// long-lived external analyzer process, one per workspace root.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Config holds registry-wide analyzer settings.
type Config struct {
	Root         string        // permitted root; workspaces outside it are rejected
	Command      []string      // analyzer argv
	QueryTimeout time.Duration // per-query wait bound
	IdleWindow   time.Duration // sessions idle longer than this are reaped
}

// Registry owns the workspace → session map. Sessions are spawned lazily
// on first query and never shared outside the registry.
type Registry struct {
	cfg Config

	mu    sync.Mutex
	slots map[string]*slot

	done     chan struct{}
	stopOnce sync.Once
}

// slot is the per-workspace initialization lock. Holding slot.mu while
// spawning keeps concurrent first-use from starting duplicate processes
// without blocking queries for other workspaces.
type slot struct {
	mu   sync.Mutex
	sess *session
}

// NewRegistry creates a registry and starts its idle reaper.
func NewRegistry(cfg Config) *Registry {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 10 * time.Second
	}
	if cfg.IdleWindow <= 0 {
		cfg.IdleWindow = 5 * time.Minute
	}

	r := &Registry{
		cfg:   cfg,
		slots: make(map[string]*slot),
		done:  make(chan struct{}),
	}
	go r.reapLoop()
	return r
}

// Query runs one analyzer query against a workspace, spawning the session
// on first use. The raw JSON result is decoded by the caller.
func (r *Registry) Query(ctx context.Context, workspace string, kind QueryKind, params Params) (json.RawMessage, error) {
	ws, err := ResolveUnderRoot(r.cfg.Root, workspace)
	if err != nil {
		return nil, err
	}
	if err := validate(kind, params); err != nil {
		return nil, err
	}

	sess, err := r.acquire(ctx, ws)
	if err != nil {
		return nil, err
	}

	qCtx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
	defer cancel()

	result, err := sess.roundTrip(qCtx, kind, params)
	if errors.Is(err, ErrAnalysisUnavailable) {
		// Dead session: clear the slot so the next query respawns.
		r.discard(ws, sess)
	}
	return result, err
}

// Invalidate marks a workspace's session stale. The session keeps serving
// in-flight queries; the next new query replaces it. Advisory only.
func (r *Registry) Invalidate(workspace string) {
	r.mu.Lock()
	sl, ok := r.slots[workspace]
	r.mu.Unlock()
	if !ok {
		return
	}

	sl.mu.Lock()
	if sl.sess != nil {
		sl.sess.markStale()
	}
	sl.mu.Unlock()
}

// StopAll terminates every live session. Used during daemon shutdown.
func (r *Registry) StopAll() {
	r.stopOnce.Do(func() { close(r.done) })

	r.mu.Lock()
	slots := make([]*slot, 0, len(r.slots))
	for _, sl := range r.slots {
		slots = append(slots, sl)
	}
	r.mu.Unlock()

	for _, sl := range slots {
		sl.mu.Lock()
		if sl.sess != nil {
			sl.sess.stop()
			sl.sess = nil
		}
		sl.mu.Unlock()
	}
}

// acquire returns the live session for a workspace, spawning one if the
// slot is empty, dead, or stale.
func (r *Registry) acquire(ctx context.Context, workspace string) (*session, error) {
	r.mu.Lock()
	sl, ok := r.slots[workspace]
	if !ok {
		sl = &slot{}
		r.slots[workspace] = sl
	}
	r.mu.Unlock()

	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.sess != nil && sl.sess.alive() {
		return sl.sess, nil
	}

	if sl.sess != nil {
		// Stale or dead: stop in the background, its waiters already
		// resolved or will resolve via its done channel.
		go sl.sess.stop()
		sl.sess = nil
	}

	sess, err := startSession(ctx, workspace, r.cfg.Command, r.cfg.QueryTimeout)
	if err != nil {
		return nil, err
	}
	sl.sess = sess
	return sess, nil
}

// discard clears the slot if it still holds the given session.
func (r *Registry) discard(workspace string, sess *session) {
	r.mu.Lock()
	sl, ok := r.slots[workspace]
	r.mu.Unlock()
	if !ok {
		return
	}

	sl.mu.Lock()
	if sl.sess == sess {
		sl.sess = nil
	}
	sl.mu.Unlock()
}

// reapLoop terminates sessions that have been idle past the idle window.
func (r *Registry) reapLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.reapIdle()
		}
	}
}

func (r *Registry) reapIdle() {
	cutoff := time.Now().Add(-r.cfg.IdleWindow)

	r.mu.Lock()
	type pair struct {
		workspace string
		sl        *slot
	}
	pairs := make([]pair, 0, len(r.slots))
	for ws, sl := range r.slots {
		pairs = append(pairs, pair{ws, sl})
	}
	r.mu.Unlock()

	for _, p := range pairs {
		p.sl.mu.Lock()
		if p.sl.sess != nil && p.sl.sess.idleSince().Before(cutoff) {
			log.Printf("[oracle] reaping idle session for %s", p.workspace)
			go p.sl.sess.stop()
			p.sl.sess = nil
		}
		p.sl.mu.Unlock()
	}
}

// ResolveUnderRoot resolves path against root and rejects anything that
// escapes it. Relative paths are joined to root; absolute paths must
// already be inside it.
func ResolveUnderRoot(root, path string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", &ValidationError{Message: "bad root: " + err.Error()}
	}

	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(absRoot, full)
	}
	full = filepath.Clean(full)

	rel, err := filepath.Rel(absRoot, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &ValidationError{Message: "path escapes permitted root: " + path}
	}
	return full, nil
}
