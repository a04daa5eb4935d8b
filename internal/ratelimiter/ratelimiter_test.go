package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		perSecond float64
		burst     int
		unlimited bool
		wantLimit float64
	}{
		{name: "standard rate", perSecond: 100, burst: 200, wantLimit: 100},
		{name: "low rate", perSecond: 1, burst: 2, wantLimit: 1},
		{name: "zero burst raised", perSecond: 5, burst: 0, wantLimit: 5},
		{name: "unlimited (zero rate)", perSecond: 0, burst: 0, unlimited: true},
		{name: "unlimited (negative rate)", perSecond: -1, burst: 10, unlimited: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := New(tt.perSecond, tt.burst)
			require.NotNil(t, limiter)
			assert.Equal(t, tt.unlimited, limiter.Unlimited())
			assert.Equal(t, tt.wantLimit, limiter.Limit())
		})
	}
}

func TestAllow(t *testing.T) {
	limiter := New(10, 10)

	for i := 0; i < 10; i++ {
		require.True(t, limiter.Allow(), "request %d should be allowed (within burst)", i)
	}
	assert.False(t, limiter.Allow(), "request past burst should be rejected")
}

func TestUnlimitedNeverBlocks(t *testing.T) {
	limiter := New(0, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	for i := 0; i < 10_000; i++ {
		require.NoError(t, limiter.Wait(ctx))
	}
	require.NoError(t, limiter.WaitN(ctx, 1_000_000))
}

func TestWaitNSplitsLargeRequests(t *testing.T) {
	limiter := New(1000, 5)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// 20 tokens with burst 5 must not fail with "exceeds burst".
	require.NoError(t, limiter.WaitN(ctx, 20))
}

func TestWaitHonorsCancellation(t *testing.T) {
	limiter := New(0.001, 1)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, limiter.Wait(ctx))
}
