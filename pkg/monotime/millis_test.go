package monotime

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestDurationSince(t *testing.T) {
	tests := []struct {
		name    string
		later   Millis
		earlier Millis
		want    uint64
	}{
		{
			name:    "ordinary elapsed time",
			later:   NewMillis(5000),
			earlier: NewMillis(1000),
			want:    4000,
		},
		{
			name:    "equal timestamps",
			later:   NewMillis(1234),
			earlier: NewMillis(1234),
			want:    0,
		},
		{
			name:    "out of order saturates to zero",
			later:   NewMillis(1000),
			earlier: NewMillis(5000),
			want:    0,
		},
		{
			name:    "zero earlier",
			later:   NewMillis(42),
			earlier: NewMillis(0),
			want:    42,
		},
		{
			name:    "max value minus zero",
			later:   NewMillis(math.MaxUint64),
			earlier: NewMillis(0),
			want:    math.MaxUint64,
		},
		{
			name:    "zero minus max saturates",
			later:   NewMillis(0),
			earlier: NewMillis(math.MaxUint64),
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.later.DurationSince(tt.earlier)
			if got.Milliseconds() != tt.want {
				t.Errorf("DurationSince() = %d, want %d", got.Milliseconds(), tt.want)
			}
			// Between is defined as the same operation.
			if between := Between(tt.later, tt.earlier); between != got {
				t.Errorf("Between() = %d, want %d", between.Milliseconds(), got.Milliseconds())
			}
		})
	}
}

func TestCheckedDurationSince(t *testing.T) {
	d, err := NewMillis(5000).CheckedDurationSince(NewMillis(1000))
	if err != nil {
		t.Fatalf("CheckedDurationSince() unexpected error: %v", err)
	}
	if d.Milliseconds() != 4000 {
		t.Errorf("CheckedDurationSince() = %d, want 4000", d.Milliseconds())
	}

	d, err = NewMillis(1000).CheckedDurationSince(NewMillis(5000))
	if !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("CheckedDurationSince() error = %v, want ErrOutOfOrder", err)
	}
	if d != 0 {
		t.Errorf("CheckedDurationSince() = %d, want 0 on error", d.Milliseconds())
	}

	// Equal timestamps are in order, not an anomaly.
	if _, err := NewMillis(7).CheckedDurationSince(NewMillis(7)); err != nil {
		t.Errorf("CheckedDurationSince() equal timestamps: unexpected error %v", err)
	}
}

func TestMillisAddSub(t *testing.T) {
	tests := []struct {
		name string
		base Millis
		d    Duration
		add  uint64
		sub  uint64
	}{
		{
			name: "ordinary shift",
			base: NewMillis(5000),
			d:    DurationFromMillis(2000),
			add:  7000,
			sub:  3000,
		},
		{
			name: "add saturates at max",
			base: NewMillis(math.MaxUint64),
			d:    DurationFromMillis(1),
			add:  math.MaxUint64,
			sub:  math.MaxUint64 - 1,
		},
		{
			name: "sub saturates at zero",
			base: NewMillis(0),
			d:    DurationFromMillis(2000),
			add:  2000,
			sub:  0,
		},
		{
			name: "zero duration is identity",
			base: NewMillis(99),
			d:    0,
			add:  99,
			sub:  99,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.base.Add(tt.d); got.Milliseconds() != tt.add {
				t.Errorf("Add() = %d, want %d", got.Milliseconds(), tt.add)
			}
			if got := tt.base.Sub(tt.d); got.Milliseconds() != tt.sub {
				t.Errorf("Sub() = %d, want %d", got.Milliseconds(), tt.sub)
			}
		})
	}
}

func TestDurationAdd(t *testing.T) {
	if got := DurationFromMillis(1000).Add(DurationFromMillis(500)); got.Milliseconds() != 1500 {
		t.Errorf("Add() = %d, want 1500", got.Milliseconds())
	}
	// The sum saturates instead of wrapping.
	if got := DurationFromMillis(math.MaxUint64).Add(DurationFromMillis(1)); got.Milliseconds() != math.MaxUint64 {
		t.Errorf("Add() = %d, want saturation at max", got.Milliseconds())
	}
}

func TestDurationConversions(t *testing.T) {
	if got := DurationFrom(1500 * time.Millisecond); got.Milliseconds() != 1500 {
		t.Errorf("DurationFrom() = %d, want 1500", got.Milliseconds())
	}
	// Sub-millisecond components truncate, never round.
	if got := DurationFrom(1999 * time.Microsecond); got.Milliseconds() != 1 {
		t.Errorf("DurationFrom() = %d, want 1 (truncated)", got.Milliseconds())
	}
	if got := DurationFrom(-time.Second); got != 0 {
		t.Errorf("DurationFrom() negative = %d, want 0", got.Milliseconds())
	}

	if got := DurationFromMillis(2500).Std(); got != 2500*time.Millisecond {
		t.Errorf("Std() = %v, want 2.5s", got)
	}
	// Millisecond counts beyond time.Duration's range saturate.
	if got := DurationFromMillis(math.MaxUint64).Std(); got != time.Duration(math.MaxInt64) {
		t.Errorf("Std() = %v, want max time.Duration", got)
	}
}

func TestLower16(t *testing.T) {
	ts := NewMillis(0x12345678)
	if got := ts.Lower16(); got != 0x5678 {
		t.Errorf("Lower16() = %#x, want 0x5678", got)
	}

	// Self-referenced round trip: reconstructing a timestamp's own
	// lower bits against itself is exact.
	if got := ts.FromLower16(ts.Lower16()); got != ts {
		t.Errorf("FromLower16() = %d, want %d", got.Milliseconds(), ts.Milliseconds())
	}

	// A slightly older truncated value recovered against a newer
	// reference, across a 16-bit wrap boundary.
	sent := NewMillis(0x0000FFFF)
	ref := NewMillis(0x00010005) // 6 ms later, past the 16-bit wrap
	if got := ref.FromLower16(sent.Lower16()); got != sent {
		t.Errorf("FromLower16() across wrap = %d, want %d", got.Milliseconds(), sent.Milliseconds())
	}
}

func TestStringRendering(t *testing.T) {
	if got := NewMillis(1500).String(); got != "1500 ms" {
		t.Errorf("Millis.String() = %q, want \"1500 ms\"", got)
	}
	if got := DurationFromMillis(250).String(); got != "250 ms" {
		t.Errorf("Duration.String() = %q, want \"250 ms\"", got)
	}
}
