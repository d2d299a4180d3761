package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/haguru/jungle/internal/interfaces"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	ReadTimeout  = 10 * time.Second
	WriteTimeout = 10 * time.Second
	IdleTimeout  = 30 * time.Second
)

type Server struct {
	Port       string
	Host       string
	server     *http.Server
	mux        *http.ServeMux
	middleware []func(http.Handler) http.Handler
	Logger     interfaces.Logger
}

// NewServer creates a new Server instance with the specified host and port.
func NewServer(host, port string, logger interfaces.Logger) interfaces.Server {
	mux := http.NewServeMux()
	server := &http.Server{
		Addr:         net.JoinHostPort(host, port),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	return &Server{
		Host:   host,
		Port:   port,
		server: server,
		mux:    mux,
		Logger: logger,
	}
}

// AddRoute registers handler for a ServeMux pattern such as "GET /api/users/{user_id}".
// Conflicting patterns are reported as an error instead of a panic.
func (s *Server) AddRoute(pattern string, handler func(w http.ResponseWriter, r *http.Request)) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("failed to add route %q: %v", pattern, rec)
		}
	}()

	s.mux.HandleFunc(pattern, handler)
	s.Logger.Info("Route added", "route", pattern)
	return nil
}

// Use appends middleware. The first one added is the outermost.
func (s *Server) Use(middleware ...func(http.Handler) http.Handler) {
	s.middleware = append(s.middleware, middleware...)
}

// Handler returns the routes wrapped in the middleware chain and the otelhttp handler.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	for i := len(s.middleware) - 1; i >= 0; i-- {
		handler = s.middleware[i](handler)
	}
	return otelhttp.NewHandler(handler, "jungle",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// ListenAndServe starts the HTTP server and blocks until it stops.
// A shutdown through Shutdown is not reported as an error.
func (s *Server) ListenAndServe() error {
	s.server.Handler = s.Handler()

	s.Logger.Info("Starting server", "host", s.Host, "port", s.Port)
	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.Logger.Error("Failed to start server", "error", err)
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("Shutting down server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
