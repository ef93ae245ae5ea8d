package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeCounter struct {
	closed atomic.Int32
}

func (c *closeCounter) Close() { c.closed.Add(1) }

func TestRegistryPutGetRemove(t *testing.T) {
	r := NewRegistry[*closeCounter](0)
	defer r.Close()

	a := &closeCounter{}
	r.Put("a", a)

	got, err := r.Get("a")
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.Remove("a"))
	assert.Equal(t, int32(1), a.closed.Load())
	assert.ErrorIs(t, r.Remove("a"), ErrNotFound)
	assert.Zero(t, r.Len())
}

func TestRegistryReplaceClosesPrevious(t *testing.T) {
	r := NewRegistry[*closeCounter](0)
	defer r.Close()

	first, second := &closeCounter{}, &closeCounter{}
	r.Put("s", first)
	r.Put("s", second)

	assert.Equal(t, int32(1), first.closed.Load())
	assert.Zero(t, second.closed.Load())
}

func TestRegistryIdleExpiry(t *testing.T) {
	r := NewRegistry[*closeCounter](0)
	defer r.Close()
	r.ttl = time.Minute

	now := time.Now()
	r.now = func() time.Time { return now }

	idle, busy := &closeCounter{}, &closeCounter{}
	r.Put("idle", idle)
	r.Put("busy", busy)

	now = now.Add(45 * time.Second)
	_, err := r.Get("busy")
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, err = r.Get("idle")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 1, r.evictExpired())
	assert.Equal(t, int32(1), idle.closed.Load())
	assert.Zero(t, busy.closed.Load())
	assert.Equal(t, 1, r.Len())
}

func TestRegistrySweeperEvicts(t *testing.T) {
	r := NewRegistry[*closeCounter](20 * time.Millisecond)
	defer r.Close()

	c := &closeCounter{}
	r.Put("s", c)

	assert.Eventually(t, func() bool { return c.closed.Load() == 1 }, time.Second, 10*time.Millisecond)
	assert.Zero(t, r.Len())
}

func TestRegistryCloseClosesAll(t *testing.T) {
	r := NewRegistry[*closeCounter](time.Hour)
	a, b := &closeCounter{}, &closeCounter{}
	r.Put("a", a)
	r.Put("b", b)

	r.Close()
	r.Close()
	assert.Equal(t, int32(1), a.closed.Load())
	assert.Equal(t, int32(1), b.closed.Load())
}

func TestRegistryHoldsPlainValues(t *testing.T) {
	r := NewRegistry[string](0)
	defer r.Close()

	r.Put("a", "alpha")
	r.Put("b", "beta")

	seen := map[string]string{}
	r.Range(func(id, v string) bool {
		seen[id] = v
		return true
	})
	assert.Equal(t, map[string]string{"a": "alpha", "b": "beta"}, seen)
	require.NoError(t, r.Remove("a"))
	assert.Equal(t, 1, r.Len())
}

func TestSweepInterval(t *testing.T) {
	cases := map[time.Duration]time.Duration{
		time.Nanosecond:  minSweepInterval,
		time.Millisecond: minSweepInterval,
		time.Second:      500 * time.Millisecond,
		time.Minute:      30 * time.Second,
		time.Hour:        time.Minute,
	}
	for ttl, want := range cases {
		assert.Equal(t, want, sweepInterval(ttl), ttl.String())
	}

	r := NewRegistry[string](time.Nanosecond)
	r.Close()
}
