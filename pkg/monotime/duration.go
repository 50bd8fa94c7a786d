package monotime

import (
	"fmt"
	"math"
	"time"
)

// Duration is a non-negative elapsed time in whole milliseconds,
// obtained by subtracting two Millis timestamps or by explicit
// construction.
type Duration uint64

// DurationFromMillis creates a Duration from a raw millisecond count.
func DurationFromMillis(raw uint64) Duration {
	return Duration(raw)
}

// DurationFrom converts a stdlib time.Duration, truncating
// sub-millisecond components. Negative inputs map to zero.
func DurationFrom(d time.Duration) Duration {
	if d < 0 {
		return 0
	}
	return Duration(d / time.Millisecond)
}

// Between returns the elapsed time between two timestamps from the
// same clock. Equivalent to later.DurationSince(earlier): when the
// operands arrive out of order the result saturates to zero.
func Between(later, earlier Millis) Duration {
	return later.DurationSince(earlier)
}

// Milliseconds returns the duration as a raw millisecond count.
func (d Duration) Milliseconds() uint64 {
	return uint64(d)
}

// Add returns the sum of two durations. The sum saturates at the
// maximum representable value rather than wrapping; with 64-bit
// millisecond counts that boundary is unreachable for realistic
// elapsed times.
func (d Duration) Add(other Duration) Duration {
	if uint64(d) > math.MaxUint64-uint64(other) {
		return Duration(math.MaxUint64)
	}
	return d + other
}

// Std converts to a stdlib time.Duration. Millisecond counts too large
// for time.Duration's nanosecond range saturate at the maximum.
func (d Duration) Std() time.Duration {
	const maxMillis = math.MaxInt64 / uint64(time.Millisecond)
	if uint64(d) > maxMillis {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d) * time.Millisecond
}

// String renders the duration as "<n> ms".
func (d Duration) String() string {
	return fmt.Sprintf("%d ms", uint64(d))
}
