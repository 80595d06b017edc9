package cooldown

import (
	"math"
	"sync"
	"time"
)

// Decision is the outcome of a cooldown check.
type Decision struct {
	Allowed   bool
	Remaining time.Duration
}

// RemainingSeconds is the wait time rounded to one decimal, never below 0.1 when denied.
func (d Decision) RemainingSeconds() float64 {
	if d.Allowed {
		return 0
	}
	s := math.Round(d.Remaining.Seconds()*10) / 10
	if s < 0.1 {
		return 0.1
	}
	return s
}

type entry struct {
	armedAt time.Time
	evict   *time.Timer
}

// Tracker remembers the last accepted action per user for a fixed window.
// Entries are evicted by a one-shot timer; expiry is also checked against
// the clock, so a late timer never extends a window.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*entry
	window  time.Duration
	now     func() time.Time
}

func NewTracker(window time.Duration) *Tracker {
	return &Tracker{
		entries: make(map[string]*entry),
		window:  window,
		now:     time.Now,
	}
}

// CheckAndArm denies while the user's window is open; otherwise it starts a new window.
func (t *Tracker) CheckAndArm(userID string) Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if e, ok := t.entries[userID]; ok {
		if remaining := e.armedAt.Add(t.window).Sub(now); remaining > 0 {
			return Decision{Allowed: false, Remaining: remaining}
		}
		e.evict.Stop()
	}

	e := &entry{armedAt: now}
	e.evict = time.AfterFunc(t.window, func() { t.evict(userID, e) })
	t.entries[userID] = e
	return Decision{Allowed: true}
}

// Active returns the number of users currently held in the table.
func (t *Tracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Stop cancels every pending eviction.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, e := range t.entries {
		e.evict.Stop()
		delete(t.entries, id)
	}
}

// evict removes the entry only if it is still the one that armed this timer.
func (t *Tracker) evict(userID string, e *entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.entries[userID] == e {
		delete(t.entries, userID)
	}
}
