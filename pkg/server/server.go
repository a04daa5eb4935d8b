// Package server manages the lifecycle of the process components (HTTP
// API, metrics endpoint, reconciler worker) that share one set of stores.
package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marmos91/clouddrive/internal/logger"
)

// DefaultShutdownTimeout bounds the Stop calls issued on shutdown.
const DefaultShutdownTimeout = 30 * time.Second

// ErrAlreadyServed is returned by a second call to Serve.
var ErrAlreadyServed = errors.New("server: Serve already called")

// Server orchestrates the registered components.
//
// Lifecycle:
//  1. Creation: New() with the shutdown budget
//  2. Registration: Add() for each component
//  3. Startup: Serve() starts all components concurrently
//  4. Shutdown: context cancellation, or the first component failure, stops
//     every component in reverse registration order
//
// Example usage:
//
//	srv := server.New(cfg.Server.ShutdownTimeout)
//	_ = srv.Add(server.NewHTTPComponent(":8080", router))
//	_ = srv.Add(server.NewReconcilerComponent(rec))
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := srv.Serve(ctx); err != nil {
//	    log.Fatal(err)
//	}
type Server struct {
	shutdownTimeout time.Duration

	mu         sync.Mutex
	components []Component
	served     bool
}

// New creates a server. A non-positive timeout uses DefaultShutdownTimeout.
func New(shutdownTimeout time.Duration) *Server {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	return &Server{
		shutdownTimeout: shutdownTimeout,
		components:      make([]Component, 0, 3),
	}
}

// Add registers a component. Names must be unique and Add must be called
// before Serve.
func (s *Server) Add(c Component) error {
	if c == nil {
		return errors.New("component cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.served {
		return fmt.Errorf("cannot add %s after Serve has been called", c.Name())
	}
	for _, existing := range s.components {
		if existing.Name() == c.Name() {
			return fmt.Errorf("component %s already registered", c.Name())
		}
	}

	s.components = append(s.components, c)
	logger.Debug("Registered %s component", c.Name())
	return nil
}

// Components returns a snapshot of the registered components.
func (s *Server) Components() []Component {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Component, len(s.components))
	copy(out, s.components)
	return out
}

// Serve starts all components and blocks until ctx is cancelled or a
// component fails.
//
// Returns nil after a shutdown triggered by ctx, or the first component
// error otherwise. Serve may only be called once.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.served {
		s.mu.Unlock()
		return ErrAlreadyServed
	}
	s.served = true
	components := make([]Component, len(s.components))
	copy(components, s.components)
	s.mu.Unlock()

	if len(components) == 0 {
		return errors.New("no components registered; call Add() before Serve()")
	}

	logger.Info("Starting clouddrive with %d component(s)", len(components))

	g, gCtx := errgroup.WithContext(ctx)

	for _, c := range components {
		g.Go(func() error {
			logger.Debug("Starting %s", c.Name())
			if err := c.Serve(gCtx); err != nil {
				logger.Error("%s failed: %v", c.Name(), err)
				return fmt.Errorf("%s: %w", c.Name(), err)
			}
			logger.Debug("%s stopped", c.Name())
			return nil
		})
	}

	// Stopper: runs once the group context ends, whether from the caller
	// or from a failing component.
	g.Go(func() error {
		<-gCtx.Done()
		if ctx.Err() != nil {
			logger.Info("Shutdown signal received (reason: %v)", ctx.Err())
		}
		s.stopAll(components)
		return nil
	})

	err := g.Wait()
	logger.Info("clouddrive stopped")
	return err
}

// stopAll stops components in reverse registration order within the
// shutdown budget. Errors are logged and do not stop the sequence.
func (s *Server) stopAll(components []Component) {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	logger.Info("Initiating graceful shutdown of %d component(s)", len(components))

	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]
		if err := c.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Error stopping %s: %v", c.Name(), err)
		}
	}
}
