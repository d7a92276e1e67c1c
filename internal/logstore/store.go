// Package logstore holds the client-side view of a turn's brain log: an
// ordered, upsert-by-id collection of entries plus the side panel state.
package logstore

import (
	"sync"

	"github.com/glassbox-io/glassbox/internal/models"
)

// Store is the ordered entry collection. Upserting an existing ID replaces
// the entry in place, so a pending tool_call and its terminal tool_result
// occupy one slot. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]models.LogEntry

	watchMu  sync.Mutex
	watchers []chan struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{byID: make(map[string]models.LogEntry)}
}

// Upsert inserts a new entry or replaces the existing one under the same
// ID. Replacement keeps the entry's original position.
func (s *Store) Upsert(e models.LogEntry) {
	s.mu.Lock()
	if _, exists := s.byID[e.ID]; !exists {
		s.order = append(s.order, e.ID)
	}
	s.byID[e.ID] = e
	s.mu.Unlock()

	s.notify()
}

// UpsertBatch applies entries in order as individual upserts.
func (s *Store) UpsertBatch(entries []models.LogEntry) {
	s.mu.Lock()
	for _, e := range entries {
		if _, exists := s.byID[e.ID]; !exists {
			s.order = append(s.order, e.ID)
		}
		s.byID[e.ID] = e
	}
	s.mu.Unlock()

	s.notify()
}

// Clear removes every entry. Used when a new turn starts.
func (s *Store) Clear() {
	s.mu.Lock()
	s.order = nil
	s.byID = make(map[string]models.LogEntry)
	s.mu.Unlock()

	s.notify()
}

// Entries returns a snapshot in insertion order.
func (s *Store) Entries() []models.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.LogEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Get returns the entry under an ID.
func (s *Store) Get(id string) (models.LogEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	return e, ok
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Counters summarizes the store for badges and status lines.
type Counters struct {
	Total    int
	Pending  int
	Failures int
	ByKind   map[models.EntryKind]int
}

// Counters computes summary counts over the current snapshot.
func (s *Store) Counters() Counters {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := Counters{ByKind: make(map[models.EntryKind]int)}
	for _, id := range s.order {
		e := s.byID[id]
		c.Total++
		c.ByKind[e.Kind]++
		switch e.Status {
		case models.StatusPending:
			c.Pending++
		case models.StatusFailure:
			c.Failures++
		}
	}
	return c
}

// Watch returns a channel that receives a signal after each mutation.
// Signals coalesce: a slow consumer sees at least one signal for any burst
// of updates, never a backlog.
func (s *Store) Watch() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.watchMu.Lock()
	s.watchers = append(s.watchers, ch)
	s.watchMu.Unlock()
	return ch
}

func (s *Store) notify() {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
