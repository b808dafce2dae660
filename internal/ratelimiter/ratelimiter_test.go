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
		name              string
		requestsPerSecond uint
		burst             uint
		unlimited         bool
	}{
		{name: "standard rate", requestsPerSecond: 20, burst: 40},
		{name: "zero burst raised", requestsPerSecond: 5, burst: 0},
		{name: "unlimited", requestsPerSecond: 0, burst: 0, unlimited: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := New(tt.requestsPerSecond, tt.burst)
			require.NotNil(t, limiter)
			assert.Equal(t, tt.unlimited, limiter.Unlimited())
			assert.True(t, limiter.Allow(), "first request always proceeds")
		})
	}
}

func TestAllow_BurstExhausted(t *testing.T) {
	limiter := New(10, 3)

	for i := 0; i < 3; i++ {
		require.True(t, limiter.Allow(), "request %d within burst", i)
	}
	assert.False(t, limiter.Allow(), "bucket should be empty after the burst")

	time.Sleep(120 * time.Millisecond)
	assert.True(t, limiter.Allow(), "a token is replenished after 100ms at 10 req/s")
}

func TestWait(t *testing.T) {
	t.Run("BlocksUntilToken", func(t *testing.T) {
		limiter := New(10, 1)
		require.True(t, limiter.Allow())

		start := time.Now()
		require.NoError(t, limiter.Wait(context.Background()))
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		limiter := New(1, 1)
		require.True(t, limiter.Allow())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		assert.Error(t, limiter.Wait(ctx))
	})

	t.Run("UnlimitedNeverBlocks", func(t *testing.T) {
		limiter := New(0, 0)
		for i := 0; i < 1000; i++ {
			require.NoError(t, limiter.Wait(context.Background()))
		}
	})
}
