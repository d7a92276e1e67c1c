package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/glassbox-io/glassbox/internal/analytics"
	"github.com/glassbox-io/glassbox/internal/models"
	"github.com/glassbox-io/glassbox/internal/turn"
	"github.com/glassbox-io/glassbox/internal/wire"
)

// maxChatBody bounds the request body; a chat message is small.
const maxChatBody = 64 * 1024

type chatRequest struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "glassboxd",
		"version": s.version,
		"health":  "/health",
		"chat":    "/chat (POST)",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"version":        s.version,
		"uptime_seconds": time.Since(s.startedAt).Round(time.Second).Seconds(),
	})
}

// handleChat runs one turn and streams its frames as they happen. The
// request context doubles as the turn's abort signal: a client disconnect
// cancels it and the turn stops writing.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")

	var toolFailures atomic.Int64
	mux := turn.New(s.model, s.registry)
	mux.Observer = func(e models.LogEntry) {
		if e.Status == models.StatusFailure {
			toolFailures.Add(1)
		}
	}

	start := time.Now()
	state, err := mux.Run(r.Context(), req.Message, wire.NewEncoder(w))
	totalMS := float64(time.Since(start)) / float64(time.Millisecond)

	distinctID := r.Header.Get(analytics.DistinctIDHeader)
	switch state {
	case turn.StateCompleted:
		s.analytics.TurnCompleted(distinctID, totalMS, int(toolFailures.Load()), len(req.Message))
	case turn.StateAborted:
		reason := "unknown"
		if err != nil {
			reason = err.Error()
		}
		log.Printf("[server] turn aborted: %v", err)
		s.analytics.TurnAborted(distinctID, reason, totalMS)
	}
}
