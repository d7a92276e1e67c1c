// Package server implements the daemon's HTTP server: the streaming chat
// endpoint and the health check.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/glassbox-io/glassbox/internal/analytics"
	"github.com/glassbox-io/glassbox/internal/tools"
	"github.com/glassbox-io/glassbox/internal/turn"
)

// Server is the daemon's HTTP server.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	port       int

	model     turn.Model
	registry  *tools.Registry
	analytics *analytics.Client
	startedAt time.Time
	version   string
}

// New creates a server listening on addr. Pass a ":0" port for dynamic
// allocation.
func New(addr, version string, model turn.Model, registry *tools.Registry, capture *analytics.Client) (*Server, error) {
	listener, err := (&net.ListenConfig{}).Listen(context.TODO(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	srv := &Server{
		listener:  listener,
		port:      listener.Addr().(*net.TCPAddr).Port,
		model:     model,
		registry:  registry,
		analytics: capture,
		startedAt: time.Now(),
		version:   version,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleRoot)
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/chat", srv.handleChat)
	srv.httpServer = &http.Server{Handler: mux}

	return srv, nil
}

// Port returns the port the server is listening on.
func (s *Server) Port() int {
	return s.port
}

// Serve starts serving requests. This blocks until Stop is called.
func (s *Server) Serve() error {
	err := s.httpServer.Serve(s.listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully stops the server, waiting for in-flight turns.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = s.httpServer.Shutdown(ctx)
}
