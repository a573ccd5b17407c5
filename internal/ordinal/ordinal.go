// Package ordinal supplies the monotonic step identifiers that accompany
// every merge into an accumulation store.
//
// An ordinal records write provenance only. Stores never reorder arithmetic
// by ordinal, so any Source that hands out non-decreasing values is valid.
package ordinal

import "sync/atomic"

// Source hands out ordinals to merge callers.
type Source interface {
	// Next returns the ordinal for the next merge.
	Next() uint64

	// Current returns the last ordinal handed out without advancing.
	Current() uint64
}

// Clock is a monotonic logical clock.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Uint64
}

// NewClock creates a new clock starting at 0.
// The first call to Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific ordinal.
// Used to resume from a restored snapshot.
func NewClockAt(start uint64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next ordinal and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() uint64 {
	return c.seq.Add(1)
}

// Current returns the current ordinal without incrementing.
func (c *Clock) Current() uint64 {
	return c.seq.Load()
}

// Observe moves the clock forward to an ordinal supplied from outside.
// The clock never moves back.
func (c *Clock) Observe(ord uint64) {
	for {
		cur := c.seq.Load()
		if ord <= cur || c.seq.CompareAndSwap(cur, ord) {
			return
		}
	}
}

// Fixed is a Source that always returns the same ordinal.
//
// Pipelines that stamp every merge of one block with the same step use it;
// ordering between merges of a single step is then undefined, which sum and
// min tolerate by construction.
type Fixed uint64

// Next returns the fixed ordinal.
func (f Fixed) Next() uint64 { return uint64(f) }

// Current returns the fixed ordinal.
func (f Fixed) Current() uint64 { return uint64(f) }

// Observe is a no-op.
func (Fixed) Observe(uint64) {}
