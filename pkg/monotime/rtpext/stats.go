package rtpext

import (
	"sync"
	"sync/atomic"

	"github.com/thesyncim/monotime/pkg/monotime"
)

// meanSmoothing is the weight of each new sample in the exponentially
// weighted mean delay (1/16, the smoothing RFC 3550 uses for jitter).
const meanSmoothing = 1.0 / 16.0

// DelayStats is a point-in-time snapshot of the delay measurements for
// one remote stream.
type DelayStats struct {
	// SSRC identifies the stream.
	SSRC uint32

	// Count is the number of packets that carried a usable send-time
	// extension.
	Count uint64

	// Last is the delay measured on the most recent packet.
	Last monotime.Duration

	// Max is the largest delay seen on the stream.
	Max monotime.Duration

	// MeanMs is the exponentially weighted mean delay in milliseconds.
	MeanMs float64

	// JitterMs is the smoothed interarrival delay variation in
	// milliseconds, computed per RFC 3550 section 6.4.1 but in
	// millisecond units rather than RTP timestamp units.
	JitterMs float64

	// LastSequenceNumber is the RTP sequence number of the most recent
	// measured packet.
	LastSequenceNumber uint16
}

// streamStats accumulates delay samples for one remote stream.
//
// lastSeen is atomic because the reader goroutine updates it on every
// packet while the cleanup loop reads it concurrently; the remaining
// fields are only touched under mu.
type streamStats struct {
	ssrc     uint32
	lastSeen atomic.Uint64 // local-clock Millis of the last packet

	mu      sync.Mutex
	count   uint64
	last    monotime.Duration
	max     monotime.Duration
	mean    float64
	jitter  float64
	lastSeq uint16
	hasPrev bool
	prev    monotime.Duration
}

func newStreamStats(ssrc uint32, now monotime.Millis) *streamStats {
	s := &streamStats{ssrc: ssrc}
	s.lastSeen.Store(now.Milliseconds())
	return s
}

// touch records packet activity for inactivity tracking, independent
// of whether the packet carried a usable timestamp.
func (s *streamStats) touch(now monotime.Millis) {
	s.lastSeen.Store(now.Milliseconds())
}

// lastPacket returns the local-clock timestamp of the most recent
// packet on this stream.
func (s *streamStats) lastPacket() monotime.Millis {
	return monotime.NewMillis(s.lastSeen.Load())
}

// addSample folds one delay measurement into the running statistics.
func (s *streamStats) addSample(delay monotime.Duration, seq uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count++
	s.last = delay
	s.lastSeq = seq
	if delay > s.max {
		s.max = delay
	}

	ms := float64(delay.Milliseconds())
	if s.count == 1 {
		s.mean = ms
	} else {
		s.mean += (ms - s.mean) * meanSmoothing
	}

	if s.hasPrev {
		variation := float64(delay.Milliseconds()) - float64(s.prev.Milliseconds())
		if variation < 0 {
			variation = -variation
		}
		s.jitter += (variation - s.jitter) * meanSmoothing
	}
	s.prev = delay
	s.hasPrev = true
}

// snapshot returns a consistent copy of the current statistics.
func (s *streamStats) snapshot() DelayStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DelayStats{
		SSRC:               s.ssrc,
		Count:              s.count,
		Last:               s.last,
		Max:                s.max,
		MeanMs:             s.mean,
		JitterMs:           s.jitter,
		LastSequenceNumber: s.lastSeq,
	}
}
