package monotime

import (
	"errors"
	"fmt"
	"math"
)

// Millis is an absolute point in monotonic time, measured in whole
// milliseconds since an arbitrary process-local epoch.
//
// Millis is an immutable value type: copy it freely. Values are only
// comparable when they were produced by clocks sharing the same epoch
// (in practice, the same Clock instance); comparing timestamps across
// clocks yields meaningless results.
type Millis uint64

// ErrOutOfOrder is returned by CheckedDurationSince when the receiver
// is earlier than the timestamp being subtracted. Callers that prefer
// robustness over detection should use DurationSince, which saturates
// to zero instead.
var ErrOutOfOrder = errors.New("monotime: timestamps out of expected order")

// NewMillis creates a Millis from a raw millisecond count. This is the
// constructor to use when rehydrating a timestamp received from
// storage or from the lower-bits codec; any uint64 is a valid raw
// value.
func NewMillis(raw uint64) Millis {
	return Millis(raw)
}

// Milliseconds returns the raw millisecond count, for transmission or
// storage.
func (t Millis) Milliseconds() uint64 {
	return uint64(t)
}

// DurationSince returns the elapsed time between t and an earlier
// timestamp drawn from the same clock.
//
// If earlier turns out to be greater than t (caller error, or
// timestamps from clocks with different epochs) the result saturates
// to a zero Duration rather than wrapping to a huge spurious value.
// Use CheckedDurationSince to detect that condition instead.
func (t Millis) DurationSince(earlier Millis) Duration {
	if t < earlier {
		return 0
	}
	return Duration(t - earlier)
}

// CheckedDurationSince is the fallible variant of DurationSince. It
// returns ErrOutOfOrder when t is earlier than the subtrahend, for
// callers that want to surface the anomaly instead of absorbing it.
func (t Millis) CheckedDurationSince(earlier Millis) (Duration, error) {
	if t < earlier {
		return 0, ErrOutOfOrder
	}
	return Duration(t - earlier), nil
}

// Add returns the timestamp d milliseconds after t, saturating at the
// maximum representable value instead of wrapping.
func (t Millis) Add(d Duration) Millis {
	if uint64(t) > math.MaxUint64-uint64(d) {
		return Millis(math.MaxUint64)
	}
	return t + Millis(d)
}

// Sub returns the timestamp d milliseconds before t, saturating at
// zero instead of wrapping.
func (t Millis) Sub(d Duration) Millis {
	if uint64(d) > uint64(t) {
		return 0
	}
	return t - Millis(d)
}

// Lower16 returns the low 16 bits of the timestamp, the wire shorthand
// for protocols that transmit truncated timestamps in two bytes. The
// accompanying reconstruction contract is documented on
// ReconstructLowBits; with 16 bits the wrap window is ±32768 ms.
func (t Millis) Lower16() uint16 {
	return uint16(t)
}

// FromLower16 reconstructs a full timestamp from a received 16-bit
// truncated value, using t as the local reference. It is shorthand for
// ReconstructLowBits(uint64(low), 16, t).
func (t Millis) FromLower16(low uint16) Millis {
	full, _ := ReconstructLowBits(uint64(low), 16, t) // width 16 is always valid
	return full
}

// LowerBits returns the low width bits of the timestamp. See
// ExtractLowBits for the width constraints.
func (t Millis) LowerBits(width uint) (uint64, error) {
	return ExtractLowBits(t, width)
}

// String renders the timestamp as "<n> ms".
func (t Millis) String() string {
	return fmt.Sprintf("%d ms", uint64(t))
}
