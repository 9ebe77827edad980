package search

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callRecorder struct {
	mu      sync.Mutex
	queries []string
}

func (r *callRecorder) record(q string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
}

func (r *callRecorder) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.queries...)
}

func TestDebouncerRapidTypingFiresOnce(t *testing.T) {
	rec := &callRecorder{}
	d := NewDebouncer(30*time.Millisecond, 2)

	// "pri" then "print" within the quiet window: one fetch, for "print"
	d.Trigger("pri", rec.record)
	time.Sleep(5 * time.Millisecond)
	d.Trigger("print", rec.record)

	time.Sleep(80 * time.Millisecond)
	require.Equal(t, []string{"print"}, rec.calls())
}

func TestDebouncerShortQueriesDropped(t *testing.T) {
	rec := &callRecorder{}
	d := NewDebouncer(10*time.Millisecond, 2)

	d.Trigger("p", rec.record)
	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, rec.calls())
}

func TestDebouncerShortQueryCancelsPending(t *testing.T) {
	rec := &callRecorder{}
	d := NewDebouncer(30*time.Millisecond, 2)

	d.Trigger("printer", rec.record)
	d.Trigger("p", rec.record) // user deleted back below the threshold
	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, rec.calls())
}

func TestDebouncerSeparatedTriggersBothFire(t *testing.T) {
	rec := &callRecorder{}
	d := NewDebouncer(10*time.Millisecond, 2)

	d.Trigger("vpn", rec.record)
	time.Sleep(40 * time.Millisecond)
	d.Trigger("vpn timeout", rec.record)
	time.Sleep(40 * time.Millisecond)

	assert.Equal(t, []string{"vpn", "vpn timeout"}, rec.calls())
}

func TestDebouncerCancel(t *testing.T) {
	rec := &callRecorder{}
	d := NewDebouncer(30*time.Millisecond, 2)

	d.Trigger("printer", rec.record)
	d.Cancel()
	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, rec.calls())
}
