package llm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNow is a manually advanced clock for the limiter.
type fakeNow struct {
	t  time.Time
	mu sync.Mutex
}

func (f *fakeNow) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeNow) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func newTestLimiter(perMinute int) (*rateLimiter, *fakeNow) {
	clock := &fakeNow{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := newRateLimiter(perMinute)
	rl.now = clock.now
	rl.lastRefill = clock.now()
	return rl, clock
}

func TestRateLimiter(t *testing.T) {
	t.Run("burst then refill", func(t *testing.T) {
		rl, clock := newTestLimiter(60)

		for i := 0; i < 60; i++ {
			require.True(t, rl.tryAcquire(), "attempt %d", i+1)
		}
		assert.False(t, rl.tryAcquire())

		clock.advance(500 * time.Millisecond)
		assert.False(t, rl.tryAcquire(), "half a token is not enough")

		clock.advance(500 * time.Millisecond)
		assert.True(t, rl.tryAcquire())
	})

	t.Run("never exceeds capacity", func(t *testing.T) {
		rl, clock := newTestLimiter(3)
		clock.advance(time.Hour)

		for i := 0; i < 3; i++ {
			require.True(t, rl.tryAcquire())
		}
		assert.False(t, rl.tryAcquire())
	})

	t.Run("reports the wait", func(t *testing.T) {
		rl, _ := newTestLimiter(60)
		for i := 0; i < 60; i++ {
			rl.tryAcquire()
		}
		delay, ok := rl.reserve()
		assert.False(t, ok)
		assert.InDelta(t, float64(time.Second), float64(delay), float64(time.Millisecond))
	})

	t.Run("default rate limit", func(t *testing.T) {
		rl := newRateLimiter(0)
		for i := 0; i < 50; i++ {
			require.True(t, rl.tryAcquire())
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		rl, _ := newTestLimiter(1)
		require.NoError(t, rl.wait(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error)
		go func() {
			done <- rl.wait(ctx)
		}()

		time.Sleep(10 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			require.Error(t, err)
			assert.Contains(t, err.Error(), "rate limiter canceled")
		case <-time.After(5 * time.Second):
			t.Fatal("wait did not return after cancellation")
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		rl, _ := newTestLimiter(100)

		var (
			acquired int
			mu       sync.Mutex
			wg       sync.WaitGroup
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					if rl.tryAcquire() {
						mu.Lock()
						acquired++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 100, acquired)
	})
}
