package otel

import (
	"maps"
	"strings"
	"sync"
)

// DefaultRingSize is used when NewRingBuffer is given a non-positive size.
const DefaultRingSize = 512

// RingBuffer keeps the most recent events in memory.
type RingBuffer struct {
	mu    sync.Mutex
	buf   []Event
	next  int
	count int
}

func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{buf: make([]Event, size)}
}

// Push stores e, evicting the oldest event when full. Extra is copied so
// later writes by the caller do not show up in the buffer.
func (r *RingBuffer) Push(e Event) {
	if e.Extra != nil {
		e.Extra = maps.Clone(e.Extra)
	}
	r.mu.Lock()
	r.buf[r.next] = e
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
	r.mu.Unlock()
}

// at returns the i-th oldest event. Caller holds mu.
func (r *RingBuffer) at(i int) Event {
	start := 0
	if r.count == len(r.buf) {
		start = r.next
	}
	return r.buf[(start+i)%len(r.buf)]
}

// Snapshot returns every buffered event, oldest first.
func (r *RingBuffer) Snapshot() []Event {
	return r.Last(r.Cap())
}

// Last returns up to n of the newest events, oldest first.
func (r *RingBuffer) Last(n int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 0 || r.count == 0 {
		return nil
	}
	n = min(n, r.count)
	out := make([]Event, n)
	for i := range n {
		out[i] = r.at(r.count - n + i)
	}
	return out
}

// Pipeline returns buffered events whose kind starts with "<name>.",
// oldest first.
func (r *RingBuffer) Pipeline(name string) []Event {
	prefix := name + "."
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event
	for i := range r.count {
		if e := r.at(i); strings.HasPrefix(string(e.Kind), prefix) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of buffered events.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Cap returns the buffer capacity.
func (r *RingBuffer) Cap() int {
	return len(r.buf)
}

// Stats counts buffered events by kind.
func (r *RingBuffer) Stats() map[EventKind]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[EventKind]int)
	for i := range r.count {
		counts[r.at(i).Kind]++
	}
	return counts
}
