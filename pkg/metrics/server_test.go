package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_ServesMetrics(t *testing.T) {
	InitRegistry()
	require.True(t, IsEnabled())

	srv := NewServer(ServerConfig{Port: 0})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	require.Eventually(t, func() bool { return srv.Addr() != "" }, 5*time.Second, 10*time.Millisecond)
	_, port, err := net.SplitHostPort(srv.Addr())
	require.NoError(t, err)
	base := "http://127.0.0.1:" + port

	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")

	resp, err = http.Get(base + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestNoopHTTPMetrics(t *testing.T) {
	m := NewNoopHTTPMetrics()
	m.RecordRequestStart()
	m.RecordRequest("/healthz", http.MethodGet, http.StatusOK, time.Millisecond)
	m.RecordRequestEnd()
	m.RecordUploadBytes(42)
}
