package search

import (
	"strings"
	"sync"
	"time"
)

// Debouncer coalesces keystroke-driven suggestion fetches: the callback
// fires only after the configured quiet period with no newer trigger, and
// only for queries at or above the minimum length.
type Debouncer struct {
	mu       sync.Mutex
	quiet    time.Duration
	minLen   int
	timer    *time.Timer
	lastSeen string
}

// NewDebouncer builds a debouncer with the given quiet period and minimum
// query length.
func NewDebouncer(quiet time.Duration, minLen int) *Debouncer {
	if quiet <= 0 {
		quiet = 300 * time.Millisecond
	}
	if minLen <= 0 {
		minLen = 2
	}
	return &Debouncer{quiet: quiet, minLen: minLen}
}

// Trigger registers a keystroke. A pending fire for an earlier query is
// cancelled; fn runs with the newest query once the quiet period elapses.
// Queries shorter than the minimum length cancel any pending fire and are
// otherwise dropped.
func (d *Debouncer) Trigger(query string, fn func(query string)) {
	query = strings.TrimSpace(query)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if len(query) < d.minLen {
		d.lastSeen = ""
		return
	}
	d.lastSeen = query
	d.timer = time.AfterFunc(d.quiet, func() {
		d.mu.Lock()
		current := d.lastSeen
		d.timer = nil
		d.mu.Unlock()
		if current != "" {
			fn(current)
		}
	})
}

// Cancel discards any pending fire, e.g. on tab close.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.lastSeen = ""
}
