package cooldown

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newFakeTracker(window time.Duration) (*Tracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	tr := NewTracker(window)
	tr.now = clock.Now
	return tr, clock
}

func TestCheckAndArm_FirstCallAllowed(t *testing.T) {
	tr, _ := newFakeTracker(30 * time.Second)
	defer tr.Stop()

	d := tr.CheckAndArm("u1")
	assert.True(t, d.Allowed)
	assert.Equal(t, 0.0, d.RemainingSeconds())
	assert.Equal(t, 1, tr.Active())
}

func TestCheckAndArm_SecondCallWithinWindowDenied(t *testing.T) {
	tr, clock := newFakeTracker(30 * time.Second)
	defer tr.Stop()

	require.True(t, tr.CheckAndArm("u1").Allowed)
	clock.Advance(4*time.Second + 960*time.Millisecond)

	d := tr.CheckAndArm("u1")
	assert.False(t, d.Allowed)
	assert.Equal(t, 25040*time.Millisecond, d.Remaining)
	assert.Equal(t, 25.0, d.RemainingSeconds())
	assert.Greater(t, d.RemainingSeconds(), 0.0)
	assert.LessOrEqual(t, d.RemainingSeconds(), 30.0)
}

func TestCheckAndArm_DeniedCallDoesNotExtendWindow(t *testing.T) {
	tr, clock := newFakeTracker(30 * time.Second)
	defer tr.Stop()

	require.True(t, tr.CheckAndArm("u1").Allowed)
	clock.Advance(20 * time.Second)
	require.False(t, tr.CheckAndArm("u1").Allowed)
	clock.Advance(11 * time.Second)

	assert.True(t, tr.CheckAndArm("u1").Allowed)
}

func TestCheckAndArm_AllowedAfterWindowElapses(t *testing.T) {
	tr, clock := newFakeTracker(30 * time.Second)
	defer tr.Stop()

	require.True(t, tr.CheckAndArm("u1").Allowed)
	clock.Advance(10 * time.Second)
	require.False(t, tr.CheckAndArm("u1").Allowed)
	clock.Advance(21 * time.Second)

	assert.True(t, tr.CheckAndArm("u1").Allowed)
}

func TestCheckAndArm_UsersAreIndependent(t *testing.T) {
	tr, _ := newFakeTracker(30 * time.Second)
	defer tr.Stop()

	require.True(t, tr.CheckAndArm("u1").Allowed)
	assert.True(t, tr.CheckAndArm("u2").Allowed)
	assert.Equal(t, 2, tr.Active())
}

func TestEviction_RemovesEntryAfterWindow(t *testing.T) {
	tr := NewTracker(20 * time.Millisecond)
	defer tr.Stop()

	require.True(t, tr.CheckAndArm("u1").Allowed)
	assert.Eventually(t, func() bool { return tr.Active() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, tr.CheckAndArm("u1").Allowed)
}

func TestRemainingSeconds_Rounding(t *testing.T) {
	cases := []struct {
		remaining time.Duration
		want      float64
	}{
		{29950 * time.Millisecond, 30.0},
		{12340 * time.Millisecond, 12.3},
		{10 * time.Millisecond, 0.1},
	}
	for _, c := range cases {
		d := Decision{Allowed: false, Remaining: c.remaining}
		assert.Equal(t, c.want, d.RemainingSeconds(), "remaining: %s", c.remaining)
	}
}
