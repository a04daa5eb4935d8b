package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/clouddrive/internal/logger"
	"github.com/marmos91/clouddrive/pkg/metrics"
	"github.com/marmos91/clouddrive/pkg/reconcile"
)

// Component is a long-running part of the process managed by Server.
//
// Serve blocks until ctx is cancelled or the component fails. Stop asks a
// running component to shut down within ctx; it may be called even if Serve
// never started.
type Component interface {
	Name() string
	Serve(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ============================================================================
// HTTP API
// ============================================================================

// HTTPComponent serves an http.Handler.
type HTTPComponent struct {
	addr   string
	server *http.Server

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
	stopOnce sync.Once
}

// NewHTTPComponent creates a component listening on addr (":0" picks a
// free port).
func NewHTTPComponent(addr string, handler http.Handler) *HTTPComponent {
	return &HTTPComponent{
		addr: addr,
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		ready: make(chan struct{}),
	}
}

func (c *HTTPComponent) Name() string { return "api" }

func (c *HTTPComponent) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", c.addr)
	if err != nil {
		return fmt.Errorf("api listen on %s: %w", c.addr, err)
	}
	c.mu.Lock()
	c.listener = ln
	c.mu.Unlock()
	close(c.ready)

	logger.Info("API listening on %s", ln.Addr())

	if err := c.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

func (c *HTTPComponent) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		err = c.server.Shutdown(ctx)
	})
	return err
}

// Ready is closed once the listener is bound.
func (c *HTTPComponent) Ready() <-chan struct{} {
	return c.ready
}

// Addr returns the bound address once listening, or "".
func (c *HTTPComponent) Addr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listener == nil {
		return ""
	}
	return c.listener.Addr().String()
}

// ============================================================================
// Metrics endpoint
// ============================================================================

// MetricsComponent runs the Prometheus metrics server.
type MetricsComponent struct {
	server *metrics.Server
}

func NewMetricsComponent(s *metrics.Server) *MetricsComponent {
	return &MetricsComponent{server: s}
}

func (c *MetricsComponent) Name() string { return "metrics" }

func (c *MetricsComponent) Serve(ctx context.Context) error {
	return c.server.Start(ctx)
}

func (c *MetricsComponent) Stop(ctx context.Context) error {
	return c.server.Stop(ctx)
}

// ============================================================================
// Reconciler worker
// ============================================================================

// ReconcilerComponent runs the periodic reconciliation worker.
type ReconcilerComponent struct {
	rec *reconcile.Reconciler
}

func NewReconcilerComponent(rec *reconcile.Reconciler) *ReconcilerComponent {
	return &ReconcilerComponent{rec: rec}
}

func (c *ReconcilerComponent) Name() string { return "reconciler" }

// Serve starts the worker and holds until ctx is cancelled. The worker
// itself runs on its own goroutine.
func (c *ReconcilerComponent) Serve(ctx context.Context) error {
	c.rec.Start()
	<-ctx.Done()
	return nil
}

func (c *ReconcilerComponent) Stop(ctx context.Context) error {
	return c.rec.Stop(ctx)
}
