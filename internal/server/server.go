// Package server owns the HTTP listener lifecycle. Shutdown drains live
// terminal requests first, then stops background components newest-first,
// so nothing publishes to a pool or stream that is already closed.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ShutdownFunc stops one component, bounded by the context deadline.
type ShutdownFunc func(ctx context.Context) error

type component struct {
	name string
	stop ShutdownFunc
}

// Options configures the listener and the total drain budget shared by
// the HTTP server and every registered component.
type Options struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server runs the API listener and coordinates graceful shutdown of the
// components registered behind it (sweeper, analytics worker, pools).
type Server struct {
	http        *http.Server
	drainBudget time.Duration
	logger      *slog.Logger

	mu         sync.Mutex
	components []component
}

// New creates a Server around the given handler.
func New(handler http.Handler, opts Options, logger *slog.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:         fmt.Sprintf(":%d", opts.Port),
			Handler:      handler,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
		},
		drainBudget: opts.ShutdownTimeout,
		logger:      logger,
	}
}

// OnShutdown registers a named component to stop during shutdown.
// Components stop in reverse registration order, so register foundations
// (pools, clients) before the workers that use them.
func (s *Server) OnShutdown(name string, fn ShutdownFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.components = append(s.components, component{name: name, stop: fn})
}

// Run serves until SIGINT/SIGTERM, then drains. It returns the listen
// error if the server fails to start, or the first shutdown error.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("listen: %w", err)
	case sig := <-stop:
		s.logger.Info("shutdown signal", "signal", sig.String())
		return s.drain()
	}
}

// drain stops accepting connections, waits for in-flight requests, then
// stops registered components newest-first within the same deadline.
func (s *Server) drain() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.drainBudget)
	defer cancel()

	s.http.SetKeepAlivesEnabled(false)
	if err := s.http.Shutdown(ctx); err != nil {
		// Keep going: components still deserve an orderly stop.
		s.logger.Error("http drain failed", "error", err)
	}
	s.logger.Info("http drained")

	s.mu.Lock()
	components := s.components
	s.mu.Unlock()

	var errs []error
	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]
		s.logger.Info("stopping", "component", c.name)
		if err := c.stop(ctx); err != nil {
			s.logger.Error("component stop failed", "component", c.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.logger.Info("shutdown complete")
	return nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}
