package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func run(b *Breaker, ok bool) error {
	return b.Execute(func() error {
		if ok {
			return nil
		}
		return errBoom
	})
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name     string
		calls    []bool
		expected State
	}{
		{name: "stays closed on successes", calls: []bool{true, true, true}, expected: StateClosed},
		{name: "stays closed below threshold", calls: []bool{false, false, true, false}, expected: StateClosed},
		{name: "opens after consecutive failures", calls: []bool{false, false, false}, expected: StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("test", Settings{
				ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 3 },
			})
			for _, ok := range tt.calls {
				_ = run(b, ok)
			}
			assert.Equal(t, tt.expected, b.State())
		})
	}
}

func TestBreakerOpenRejects(t *testing.T) {
	clock := newClock()
	b := New("store", Settings{
		Timeout:     time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
		Now:         clock.Now,
	})

	require.ErrorIs(t, run(b, false), errBoom)
	require.Equal(t, StateOpen, b.State())

	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	t.Run("closes after successful trial call", func(t *testing.T) {
		clock := newClock()
		b := New("store", Settings{
			Timeout:     time.Second,
			ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
			Now:         clock.Now,
		})
		_ = run(b, false)

		clock.Advance(2 * time.Second)
		assert.Equal(t, StateHalfOpen, b.State())

		require.NoError(t, run(b, true))
		assert.Equal(t, StateClosed, b.State())
	})

	t.Run("reopens after failed trial call", func(t *testing.T) {
		clock := newClock()
		b := New("store", Settings{
			Timeout:     time.Second,
			ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
			Now:         clock.Now,
		})
		_ = run(b, false)
		clock.Advance(2 * time.Second)

		require.ErrorIs(t, run(b, false), errBoom)
		assert.Equal(t, StateOpen, b.State())
	})
}

func TestBreakerCounts(t *testing.T) {
	b := New("test", Settings{
		ReadyToTrip: func(Counts) bool { return false },
	})

	_ = run(b, true)
	_ = run(b, false)
	_ = run(b, false)

	counts := b.Counts()
	assert.Equal(t, uint32(3), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalSuccesses)
	assert.Equal(t, uint32(2), counts.TotalFailures)
	assert.Equal(t, uint32(2), counts.ConsecutiveFailures)
	assert.InDelta(t, 2.0/3.0, counts.FailureRatio(), 0.001)
}

func TestBreakerIntervalResetsCounts(t *testing.T) {
	clock := newClock()
	b := New("test", Settings{
		Interval:    time.Minute,
		ReadyToTrip: func(Counts) bool { return false },
		Now:         clock.Now,
	})

	_ = run(b, false)
	require.Equal(t, uint32(1), b.Counts().TotalFailures)

	clock.Advance(2 * time.Minute)
	assert.Equal(t, StateClosed, b.State())
	assert.Zero(t, b.Counts().Requests)
}

func TestBreakerIsFailure(t *testing.T) {
	errNotFound := errors.New("not found")
	b := New("test", Settings{
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
		IsFailure:   func(err error) bool { return err != nil && !errors.Is(err, errNotFound) },
	})

	err := b.Execute(func() error { return errNotFound })
	assert.ErrorIs(t, err, errNotFound)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, uint32(1), b.Counts().TotalSuccesses)
}

func TestBreakerStateChangeCallback(t *testing.T) {
	clock := newClock()
	var transitions []string
	b := New("store", Settings{
		Timeout:     time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
		Now: clock.Now,
	})

	_ = run(b, false)
	clock.Advance(2 * time.Second)
	_ = run(b, true)

	assert.Equal(t, []string{
		"store:closed->open",
		"store:open->half-open",
		"store:half-open->closed",
	}, transitions)
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	b := New("test", Settings{
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})

	assert.Panics(t, func() {
		_ = b.Execute(func() error { panic("bad") })
	})
	assert.Equal(t, StateOpen, b.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "unknown", State(42).String())
}
