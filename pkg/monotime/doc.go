// Package monotime provides monotonic absolute timestamps with
// millisecond resolution, saturating elapsed-time arithmetic, and a
// compact lower-bits wire codec for transmitting timestamps in a
// handful of bytes.
//
// The package is built around three pieces:
//
//   - Millis, an absolute instant measured in whole milliseconds since
//     an arbitrary process-local epoch, and Duration, a non-negative
//     elapsed span between two Millis values. Subtracting timestamps
//     never wraps and never panics: out-of-order operands saturate to
//     a zero Duration.
//
//   - A lower-bits codec (ExtractLowBits / ReconstructLowBits) that
//     transmits only the low W bits of a timestamp. The receiver
//     recovers the full value from its own current timestamp, provided
//     the real elapsed time between encoding and reconstruction stays
//     inside the wrap window of 2^(W-1) milliseconds.
//
//   - Clock, a pluggable source of "now". SystemClock reads the Go
//     runtime's monotonic clock; FixedClock and OffsetClock give tests
//     exact, deterministic control over time, including backward jumps
//     and simulated skew between communicating parties.
//
// Timestamps from two different Clock instances do not share an epoch
// and must not be compared; the arithmetic here is only meaningful
// between values drawn from the same clock.
package monotime
