package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversionLimiter_AcquireRelease(t *testing.T) {
	limiter := NewConversionLimiter(2, time.Second)
	ctx := context.Background()

	assert.Equal(t, LimiterStatus{Active: 0, Available: 2, MaxConcurrent: 2}, limiter.Status())

	require.NoError(t, limiter.Acquire(ctx))
	require.NoError(t, limiter.Acquire(ctx))
	assert.Equal(t, LimiterStatus{Active: 2, Available: 0, MaxConcurrent: 2}, limiter.Status())

	limiter.Release()
	assert.Equal(t, 1, limiter.Active())
	limiter.Release()
	assert.Equal(t, 0, limiter.Active())
}

func TestConversionLimiter_TimesOutWhenFull(t *testing.T) {
	limiter := NewConversionLimiter(1, 20*time.Millisecond)
	require.NoError(t, limiter.Acquire(context.Background()))
	defer limiter.Release()

	err := limiter.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrTooManyConversions)
}

func TestConversionLimiter_ContextCancelled(t *testing.T) {
	limiter := NewConversionLimiter(1, time.Minute)
	require.NoError(t, limiter.Acquire(context.Background()))
	defer limiter.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, limiter.Acquire(ctx), context.DeadlineExceeded)
}

func TestConversionLimiter_TryAcquire(t *testing.T) {
	limiter := NewConversionLimiter(1, time.Second)

	assert.True(t, limiter.TryAcquire())
	assert.False(t, limiter.TryAcquire())
	limiter.Release()
	assert.True(t, limiter.TryAcquire())
	limiter.Release()
}

func TestConversionLimiter_UnblocksWaiter(t *testing.T) {
	limiter := NewConversionLimiter(1, 5*time.Second)
	require.NoError(t, limiter.Acquire(context.Background()))

	acquired := make(chan error, 1)
	go func() {
		acquired <- limiter.Acquire(context.Background())
	}()

	time.Sleep(20 * time.Millisecond)
	limiter.Release()

	select {
	case err := <-acquired:
		require.NoError(t, err)
		limiter.Release()
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not unblocked by Release")
	}
}

func TestConversionLimiter_ConcurrentAccess(t *testing.T) {
	limiter := NewConversionLimiter(3, 5*time.Second)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		current int
		peak    int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(context.Background()); err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			current++
			if current > peak {
				peak = current
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			current--
			mu.Unlock()
			limiter.Release()
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak, 3)
	assert.Equal(t, 0, limiter.Active())
}

func TestConversionLimiter_WaitForDrain(t *testing.T) {
	limiter := NewConversionLimiter(2, time.Second)
	require.NoError(t, limiter.Acquire(context.Background()))

	go func() {
		time.Sleep(30 * time.Millisecond)
		limiter.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, limiter.WaitForDrain(ctx))
}

func TestConversionLimiter_WaitForDrainCancelled(t *testing.T) {
	limiter := NewConversionLimiter(1, time.Second)
	require.NoError(t, limiter.Acquire(context.Background()))
	defer limiter.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, limiter.WaitForDrain(ctx), context.DeadlineExceeded)
}

func TestConversionLimiter_Defaults(t *testing.T) {
	limiter := NewConversionLimiter(0, 0)
	assert.Equal(t, DefaultMaxConcurrentConversions, limiter.Status().MaxConcurrent)
	assert.Equal(t, DefaultMaxWaitTime, limiter.maxWait)
}
