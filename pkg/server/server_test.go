package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/clouddrive/pkg/reconcile"
	itemmemory "github.com/marmos91/clouddrive/pkg/store/item/memory"
	objectmemory "github.com/marmos91/clouddrive/pkg/store/object/memory"
)

type fakeComponent struct {
	name     string
	serveErr error
	stopErr  error

	mu      sync.Mutex
	started chan struct{}
	stopped bool
	log     *[]string
}

func newFake(name string, log *[]string) *fakeComponent {
	return &fakeComponent{name: name, started: make(chan struct{}), log: log}
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Serve(ctx context.Context) error {
	close(f.started)
	if f.serveErr != nil {
		return f.serveErr
	}
	<-ctx.Done()
	return nil
}

func (f *fakeComponent) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	if f.log != nil {
		*f.log = append(*f.log, f.name)
	}
	return f.stopErr
}

func (f *fakeComponent) wasStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func TestServer_AddRejectsDuplicates(t *testing.T) {
	srv := New(time.Second)

	require.NoError(t, srv.Add(newFake("api", nil)))
	err := srv.Add(newFake("api", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	assert.Error(t, srv.Add(nil))
	assert.Len(t, srv.Components(), 1)
}

func TestServer_ServeWithoutComponents(t *testing.T) {
	err := New(time.Second).Serve(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no components")
}

func TestServer_GracefulShutdownStopsInReverseOrder(t *testing.T) {
	var order []string
	a := newFake("api", &order)
	b := newFake("metrics", &order)
	c := newFake("reconciler", &order)

	srv := New(time.Second)
	require.NoError(t, srv.Add(a))
	require.NoError(t, srv.Add(b))
	require.NoError(t, srv.Add(c))

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	for _, f := range []*fakeComponent{a, b, c} {
		select {
		case <-f.started:
		case <-time.After(2 * time.Second):
			t.Fatalf("%s did not start", f.name)
		}
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	assert.Equal(t, []string{"reconciler", "metrics", "api"}, order)
}

func TestServer_ComponentFailureStopsOthers(t *testing.T) {
	healthy := newFake("api", nil)
	broken := newFake("metrics", nil)
	broken.serveErr = errors.New("bind: address in use")

	srv := New(time.Second)
	require.NoError(t, srv.Add(healthy))
	require.NoError(t, srv.Add(broken))

	err := srv.Serve(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics")
	assert.Contains(t, err.Error(), "address in use")
	assert.True(t, healthy.wasStopped())
	assert.True(t, broken.wasStopped())
}

func TestServer_StopErrorsDoNotAbortShutdown(t *testing.T) {
	var order []string
	a := newFake("api", &order)
	b := newFake("reconciler", &order)
	b.stopErr = errors.New("stuck")

	srv := New(time.Second)
	require.NoError(t, srv.Add(a))
	require.NoError(t, srv.Add(b))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	require.NoError(t, srv.Serve(ctx))
	assert.Equal(t, []string{"reconciler", "api"}, order)
}

func TestServer_ServeTwice(t *testing.T) {
	srv := New(0)
	require.NoError(t, srv.Add(newFake("api", nil)))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	require.NoError(t, srv.Serve(ctx))

	assert.ErrorIs(t, srv.Serve(ctx), ErrAlreadyServed)
	assert.Error(t, srv.Add(newFake("late", nil)))
}

func TestHTTPComponent_ServesUntilCancelled(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	api := NewHTTPComponent("127.0.0.1:0", handler)
	assert.Equal(t, "", api.Addr())

	srv := New(time.Second)
	require.NoError(t, srv.Add(api))

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	select {
	case <-api.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("api did not start listening")
	}

	resp, err := http.Get("http://" + api.Addr() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestHTTPComponent_ListenFailure(t *testing.T) {
	api := NewHTTPComponent("256.0.0.1:bad", http.NotFoundHandler())
	srv := New(time.Second)
	require.NoError(t, srv.Add(api))

	err := srv.Serve(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api listen")
}

func TestReconcilerComponent_StartsAndStops(t *testing.T) {
	rec, err := reconcile.New(
		itemmemory.NewMemoryItemStore(),
		objectmemory.MustNew(objectmemory.Config{Bucket: "test"}),
		reconcile.Config{Enabled: true, Interval: time.Hour},
	)
	require.NoError(t, err)

	srv := New(time.Second)
	require.NoError(t, srv.Add(NewReconcilerComponent(rec)))

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, srv.Serve(ctx))
}
