package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateDelay(t *testing.T) {
	t.Parallel()
	baseDelay := 100 * time.Millisecond
	maxDelay := 500 * time.Millisecond

	tests := []struct {
		name    string
		attempt int
		min     time.Duration
		max     time.Duration
	}{
		{"first attempt", 0, 50 * time.Millisecond, 100 * time.Millisecond},
		{"second attempt doubles", 1, 100 * time.Millisecond, 200 * time.Millisecond},
		{"capped at max", 10, 250 * time.Millisecond, 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			delay := calculateDelay(tt.attempt, baseDelay, maxDelay)
			assert.GreaterOrEqual(t, delay, tt.min)
			assert.Less(t, delay, tt.max)
		})
	}

	t.Run("zero base delay", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, time.Duration(0), calculateDelay(0, 0, time.Second))
	})
}

func TestGetLimiter_ReusesPerKey(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(10, 10)

	first := rl.getLimiter("http://a")
	assert.Same(t, first, rl.getLimiter("http://a"))
	assert.NotSame(t, first, rl.getLimiter("http://b"))

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	assert.Len(t, rl.limiters, 2)
}
