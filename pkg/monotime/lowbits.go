package monotime

import (
	"errors"
	"math"
)

// MillisBits is the bit width of the integer underlying Millis.
const MillisBits = 64

// ErrInvalidWidth is returned by the lower-bits codec when the
// requested width is zero or not strictly less than MillisBits. This
// is a caller configuration error and is surfaced immediately rather
// than clamped.
var ErrInvalidWidth = errors.New("monotime: lower-bits width must be in (0, 64)")

// ExtractLowBits returns the low width bits of the timestamp, i.e.
// t.Milliseconds() mod 2^width. This is the sender half of the
// lower-bits codec: the truncated value is what goes on the wire, and
// width is a protocol-level constant both ends must agree on.
func ExtractLowBits(t Millis, width uint) (uint64, error) {
	if width == 0 || width >= MillisBits {
		return 0, ErrInvalidWidth
	}
	return uint64(t) & (uint64(1)<<width - 1), nil
}

// ReconstructLowBits recovers a full timestamp from a received
// truncated value and a local reference timestamp assumed close in
// real time to the instant the sender encoded.
//
// The result is the timestamp nearest to reference whose low width
// bits equal low: the signed residue of low minus reference's own low
// bits, taken in the half-open range (-2^(width-1), 2^(width-1)], is
// added to reference. The sum is clamped to the uint64 domain so it
// can never wrap.
//
// Reconstruction is exact provided the true distance between the
// encoded timestamp and reference is under 2^(width-1) milliseconds
// (the wrap window). Beyond that the codec silently returns a
// wrong-but-plausible timestamp; it has no way to detect the
// violation, so width must be sized against the worst expected
// network or storage delay.
//
// Bits of low above width are ignored.
func ReconstructLowBits(low uint64, width uint, reference Millis) (Millis, error) {
	if width == 0 || width >= MillisBits {
		return 0, ErrInvalidWidth
	}

	mask := uint64(1)<<width - 1
	low &= mask
	refLow := uint64(reference) & mask

	// Residue of (low - refLow) mod 2^width, then folded into the
	// signed range (-2^(width-1), 2^(width-1)].
	delta := (low - refLow) & mask
	half := uint64(1) << (width - 1)

	ref := uint64(reference)
	if delta <= half {
		// Forward residue: reference + delta, clamped at the top.
		if ref > math.MaxUint64-delta {
			return Millis(math.MaxUint64), nil
		}
		return Millis(ref + delta), nil
	}

	// Backward residue: reference - (2^width - delta), clamped at zero.
	back := (uint64(1) << width) - delta
	if back > ref {
		return 0, nil
	}
	return Millis(ref - back), nil
}
