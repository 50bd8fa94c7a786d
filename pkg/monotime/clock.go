package monotime

import (
	"sync/atomic"
	"time"
)

// Clock is a source of "now" as a Millis timestamp. Production code
// uses SystemClock; tests inject FixedClock or OffsetClock to control
// time deterministically.
//
// Timestamps from two different Clock instances do not share an epoch.
type Clock interface {
	// Now returns the current instant per the clock's semantics.
	// SystemClock guarantees non-decreasing values across calls;
	// test clocks return whatever the caller programmed, with no
	// ordering guarantee.
	Now() Millis
}

// SystemClock reads the Go runtime's monotonic clock. The process-local
// epoch is the instant the clock was constructed; Now returns whole
// milliseconds elapsed since then, truncating sub-millisecond
// components.
//
// A single SystemClock may be shared across goroutines without
// synchronization: each Now call only reads the platform counter.
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a SystemClock and fixes its epoch at the
// current instant.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Now returns milliseconds elapsed since the clock's epoch. Successive
// calls are non-decreasing: time.Since reads the monotonic clock
// reading embedded in the start instant, which is unaffected by
// wall-clock adjustments.
func (c *SystemClock) Now() Millis {
	return Millis(time.Since(c.start) / time.Millisecond)
}

// FixedClock is a Clock for tests that returns a caller-programmed
// timestamp. It makes no monotonicity promise: Set accepts backward
// and otherwise nonsensical jumps on purpose, so tests can exercise
// the saturating-subtraction and wrap-window edge cases exactly.
//
// The stored value is an atomic, so concurrent mutation from test
// goroutines is safe.
type FixedClock struct {
	raw atomic.Uint64
}

// NewFixedClock creates a FixedClock initialized to the given
// timestamp.
func NewFixedClock(at Millis) *FixedClock {
	c := &FixedClock{}
	c.raw.Store(uint64(at))
	return c
}

// Now returns the currently programmed timestamp.
func (c *FixedClock) Now() Millis {
	return Millis(c.raw.Load())
}

// Set programs the clock to the given timestamp. Backward jumps are
// allowed.
func (c *FixedClock) Set(at Millis) {
	c.raw.Store(uint64(at))
}

// Advance moves the clock forward by d milliseconds, saturating at the
// maximum representable timestamp.
func (c *FixedClock) Advance(d Duration) {
	for {
		cur := c.raw.Load()
		next := uint64(Millis(cur).Add(d))
		if c.raw.CompareAndSwap(cur, next) {
			return
		}
	}
}

// OffsetClock wraps another Clock and shifts its readings by a fixed
// signed millisecond skew, for simulating drift between communicating
// parties. Negative skews saturate at zero instead of wrapping.
//
// The skew is immutable after construction, so an OffsetClock is as
// safe for concurrent use as the clock it wraps.
type OffsetClock struct {
	inner  Clock
	skewMs int64
}

// NewOffsetClock creates a clock that reads inner and applies skewMs
// milliseconds of shift (positive: ahead of inner, negative: behind).
func NewOffsetClock(inner Clock, skewMs int64) *OffsetClock {
	return &OffsetClock{inner: inner, skewMs: skewMs}
}

// Now returns the wrapped clock's reading shifted by the skew.
func (c *OffsetClock) Now() Millis {
	base := c.inner.Now()
	if c.skewMs >= 0 {
		return base.Add(Duration(c.skewMs))
	}
	return base.Sub(Duration(-c.skewMs))
}
