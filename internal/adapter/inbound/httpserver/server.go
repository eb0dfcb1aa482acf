// Package httpserver implements the embedded control-plane HTTP server.
//
// The server deliberately does not use net/http: requests are parsed line by
// line off the TCP connection and responses are written by hand. The agent
// contract is a single request per connection, always answered with HTTP 200
// and a JSON body whose success flag carries the outcome.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"github.com/mobilemcp/droidbridge/internal/usecase"
)

// State is the lifecycle state of the server.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
)

// ErrAlreadyRunning is returned by Start when the server is not stopped.
// Callers surface it as a descriptive failure rather than rebinding.
var ErrAlreadyRunning = errors.New("server is already running")

// Server accepts control-plane connections and dispatches them to the
// lifecycle use case.
type Server struct {
	addr      string
	version   string
	lifecycle *usecase.LifecycleUseCase
	logger    *slog.Logger

	mu    sync.Mutex
	state State
	ln    net.Listener
}

// New creates a Server bound to addr on Start. The production contract fixes
// addr to localhost:8765; tests pass an ephemeral address.
func New(addr, version string, lifecycle *usecase.LifecycleUseCase, logger *slog.Logger) *Server {
	return &Server{
		addr:      addr,
		version:   version,
		lifecycle: lifecycle,
		logger:    logger.With("component", "httpserver"),
	}
}

// Start binds the listening socket and launches the accept loop on a
// background goroutine. It returns once the socket is bound; a bind failure
// (typically the port already being in use) is returned as an error for the
// caller to surface. Concurrent or repeated starts are rejected.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.state != StateStopped {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.state = StateStarting
	s.mu.Unlock()

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.mu.Lock()
		s.state = StateStopped
		s.mu.Unlock()
		return fmt.Errorf("failed to bind %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.ln = ln
	s.state = StateRunning
	s.mu.Unlock()

	s.logger.Info("Control server listening.", slog.String("addr", ln.Addr().String()))
	go s.acceptLoop(ln)
	return nil
}

// Stop closes the listening socket, ending the accept loop. It is
// idempotent: stopping a stopped server is a no-op. In-flight connections
// are not drained; they either complete or are torn down with the process.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return nil
	}
	s.state = StateStopped
	err := s.ln.Close()
	s.ln = nil
	if err != nil {
		return fmt.Errorf("failed to close listener: %w", err)
	}
	s.logger.Info("Control server stopped.")
	return nil
}

// Running reports whether the accept loop is currently accepting.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateRunning
}

// Port returns the bound port while running, falling back to the configured
// address otherwise.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		if tcp, ok := s.ln.Addr().(*net.TCPAddr); ok {
			return tcp.Port
		}
	}
	if _, portStr, err := net.SplitHostPort(s.addr); err == nil {
		if port, err := strconv.Atoi(portStr); err == nil {
			return port
		}
	}
	return 0
}

// acceptLoop hands each accepted connection to its own goroutine so a slow
// client cannot stall the listener or other clients.
func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || !s.Running() {
				return
			}
			s.logger.Warn("Accept failed.", slog.Any("error", err))
			continue
		}
		go s.handleConn(conn)
	}
}

// handleConn services exactly one request and closes the connection on every
// exit path. A request that fails to parse is dropped without a response.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	req, err := readRequest(conn)
	if err != nil {
		s.logger.Debug("Dropping malformed request.", slog.Any("error", err))
		return
	}

	resp := s.dispatch(context.Background(), req)
	if err := writeResponse(conn, resp); err != nil {
		s.logger.Warn("Failed to write response.", slog.Any("error", err))
	}
}

// endpoints lists the paths advertised by the status endpoint.
func endpoints() []string {
	return []string{
		"POST /api/start",
		"POST /api/stop",
		"POST /api/rerun",
		"POST /api/debug",
		"GET /api/configurations",
		"POST /api/select-configuration",
		"GET /api/status",
	}
}
