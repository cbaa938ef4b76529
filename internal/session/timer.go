package session

import "time"

// Timer accumulates on-screen time per image key. At most one key is
// running; entering another key, or stopping, folds the running interval
// into that key's total. Totals are never removed, so navigating back cannot
// shift time between images.
type Timer struct {
	now     func() time.Time
	totals  map[string]time.Duration
	current string
	since   time.Time
}

// NewTimer returns a stopped timer using now as its clock.
func NewTimer(now func() time.Time) *Timer {
	if now == nil {
		now = time.Now
	}
	return &Timer{now: now, totals: make(map[string]time.Duration)}
}

// Enter starts timing key, stopping whichever key was running.
func (t *Timer) Enter(key string) {
	at := t.now()
	t.fold(at)
	t.current = key
	t.since = at
}

// Stop folds the running interval and leaves the timer idle.
func (t *Timer) Stop() {
	t.fold(t.now())
	t.current = ""
}

// Current returns the running key, or "" when idle.
func (t *Timer) Current() string { return t.current }

// Elapsed returns the accumulated time for key including any running interval.
func (t *Timer) Elapsed(key string) time.Duration {
	d := t.totals[key]
	if key != "" && key == t.current {
		d += max(t.now().Sub(t.since), 0)
	}
	return d
}

// Seed sets the accumulated time for key, used when resuming a session.
func (t *Timer) Seed(key string, d time.Duration) {
	if key == "" {
		return
	}
	t.totals[key] = max(d, 0)
}

// Total sums the time across every key.
func (t *Timer) Total() time.Duration {
	var sum time.Duration
	for _, d := range t.totals {
		sum += d
	}
	if t.current != "" {
		sum += max(t.now().Sub(t.since), 0)
	}
	return sum
}

func (t *Timer) fold(at time.Time) {
	if t.current == "" {
		return
	}
	t.totals[t.current] += max(at.Sub(t.since), 0)
	t.since = at
}
