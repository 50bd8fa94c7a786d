package rtpext

import (
	"sync"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/rtcp"
	"github.com/pion/rtp"

	"github.com/thesyncim/monotime/pkg/monotime"
)

const (
	// sendTimeWidth is the truncation width of the on-wire timestamp.
	// Fixed by the 2-byte extension layout; the wrap window is
	// ±32768 ms.
	sendTimeWidth = 16

	// streamTimeout is how long to keep tracking an inactive stream.
	// Streams with no packets for this duration are removed.
	streamTimeout = 5 * time.Second

	// maxReportsPerPacket is the RTCP receiver-report block limit
	// (RFC 3550: 5-bit reception report count).
	maxReportsPerPacket = 31
)

// TimingInterceptor is a Pion interceptor that stamps outgoing RTP
// packets with the monotonic send-time header extension and measures
// delay on incoming packets that carry it.
//
// On the send path it writes the low 16 bits of Clock.Now() into every
// packet of streams that negotiated SendTimeURI. On the receive path it
// reconstructs the sender's full timestamp against the local clock,
// takes the saturating difference as the delay sample, and accumulates
// per-stream statistics. When an RTCP writer is bound it also emits
// periodic receiver reports carrying the measured jitter.
//
// Delay samples are only absolute when both ends read clocks sharing
// an epoch (loopback, or a test harness wiring OffsetClock skew);
// between independently booted processes the samples are offset by the
// epoch difference and only their variation is meaningful.
type TimingInterceptor struct {
	interceptor.NoOp

	clock          monotime.Clock
	streams        sync.Map // SSRC (uint32) -> *streamStats
	reportInterval time.Duration
	senderSSRC     uint32
	onDelay        func(ssrc uint32, delay monotime.Duration)

	mu         sync.Mutex
	rtcpWriter interceptor.RTCPWriter

	closed    chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once // cleanup loop starts on first remote stream
}

// Option is a functional option for configuring TimingInterceptor.
type Option func(*TimingInterceptor)

// WithClock sets the clock used to stamp outgoing packets and to
// reconstruct incoming timestamps. Defaults to a SystemClock created
// with the interceptor; inject a FixedClock or OffsetClock in tests.
func WithClock(clock monotime.Clock) Option {
	return func(i *TimingInterceptor) {
		i.clock = clock
	}
}

// WithReportInterval sets the interval for RTCP receiver reports.
// Default is 1 second.
func WithReportInterval(d time.Duration) Option {
	return func(i *TimingInterceptor) {
		i.reportInterval = d
	}
}

// WithSenderSSRC sets the SSRC used as the reporter identity in
// receiver reports.
func WithSenderSSRC(ssrc uint32) Option {
	return func(i *TimingInterceptor) {
		i.senderSSRC = ssrc
	}
}

// WithOnDelay sets a callback invoked with every delay sample. The
// callback runs on the packet read path and must be cheap.
func WithOnDelay(fn func(ssrc uint32, delay monotime.Duration)) Option {
	return func(i *TimingInterceptor) {
		i.onDelay = fn
	}
}

// NewTimingInterceptor creates a new timing interceptor.
func NewTimingInterceptor(opts ...Option) *TimingInterceptor {
	i := &TimingInterceptor{
		closed:         make(chan struct{}),
		reportInterval: time.Second,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.clock == nil {
		i.clock = monotime.NewSystemClock()
	}
	return i
}

// Close shuts down the interceptor and waits for its loops to stop.
func (i *TimingInterceptor) Close() error {
	close(i.closed)
	i.wg.Wait()
	return nil
}

// BindLocalStream wraps the writer to stamp outgoing packets with the
// send-time extension. Streams that did not negotiate the extension
// pass through untouched.
func (i *TimingInterceptor) BindLocalStream(info *interceptor.StreamInfo, writer interceptor.RTPWriter) interceptor.RTPWriter {
	extID := FindSendTimeID(info.RTPHeaderExtensions)
	if extID == 0 {
		return writer
	}

	return interceptor.RTPWriterFunc(func(header *rtp.Header, payload []byte, attributes interceptor.Attributes) (int, error) {
		ext := SendTimeExtension{Low: i.clock.Now().Lower16()}
		data, _ := ext.Marshal() // cannot fail
		if err := header.SetExtension(extID, data); err != nil {
			// Malformed header; send the packet unstamped rather
			// than dropping media.
			return writer.Write(header, payload, attributes)
		}
		return writer.Write(header, payload, attributes)
	})
}

// BindRemoteStream wraps the reader to measure delay on incoming
// packets carrying the send-time extension.
func (i *TimingInterceptor) BindRemoteStream(info *interceptor.StreamInfo, reader interceptor.RTPReader) interceptor.RTPReader {
	i.startOnce.Do(func() {
		i.wg.Add(1)
		go i.cleanupLoop()
	})

	extID := FindSendTimeID(info.RTPHeaderExtensions)

	state := newStreamStats(info.SSRC, i.clock.Now())
	i.streams.Store(info.SSRC, state)

	return interceptor.RTPReaderFunc(func(b []byte, a interceptor.Attributes) (int, interceptor.Attributes, error) {
		n, a, err := reader.Read(b, a)
		if err == nil && n > 0 {
			i.processRTP(b[:n], state, extID)
		}
		return n, a, err
	})
}

// UnbindRemoteStream stops tracking a removed stream.
func (i *TimingInterceptor) UnbindRemoteStream(info *interceptor.StreamInfo) {
	i.streams.Delete(info.SSRC)
}

// BindRTCPWriter captures the writer for receiver reports and starts
// the report loop.
func (i *TimingInterceptor) BindRTCPWriter(writer interceptor.RTCPWriter) interceptor.RTCPWriter {
	i.mu.Lock()
	i.rtcpWriter = writer
	i.mu.Unlock()

	i.wg.Add(1)
	go i.reportLoop()

	return writer // pass through unchanged
}

// Stats returns a snapshot of the delay statistics for the given
// remote stream, and whether the stream is currently tracked.
func (i *TimingInterceptor) Stats(ssrc uint32) (DelayStats, bool) {
	value, ok := i.streams.Load(ssrc)
	if !ok {
		return DelayStats{}, false
	}
	return value.(*streamStats).snapshot(), true
}

// AllStats returns snapshots for every tracked stream.
func (i *TimingInterceptor) AllStats() []DelayStats {
	var out []DelayStats
	i.streams.Range(func(_, value any) bool {
		out = append(out, value.(*streamStats).snapshot())
		return true
	})
	return out
}

// processRTP parses one incoming packet and records a delay sample if
// it carries a usable send-time extension.
func (i *TimingInterceptor) processRTP(raw []byte, state *streamStats, extID uint8) {
	var header rtp.Header
	if _, err := header.Unmarshal(raw); err != nil {
		return // invalid RTP, skip
	}

	now := i.clock.Now()
	state.touch(now)

	if extID == 0 {
		return // extension not negotiated for this stream
	}

	extData := header.GetExtension(extID)
	if extData == nil {
		return
	}
	var ext SendTimeExtension
	if err := ext.Unmarshal(extData); err != nil {
		return
	}

	sent, err := monotime.ReconstructLowBits(uint64(ext.Low), sendTimeWidth, now)
	if err != nil {
		return // unreachable: width is a package constant
	}

	// Saturating: a sender clock slightly ahead of ours reads as zero
	// delay instead of a bogus huge value.
	delay := now.DurationSince(sent)
	state.addSample(delay, header.SequenceNumber)

	if i.onDelay != nil {
		i.onDelay(state.ssrc, delay)
	}
}

// reportLoop periodically emits RTCP receiver reports with the
// measured jitter.
func (i *TimingInterceptor) reportLoop() {
	defer i.wg.Done()

	ticker := time.NewTicker(i.reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-i.closed:
			return
		case <-ticker.C:
			i.sendReport()
		}
	}
}

// sendReport builds one receiver report covering all tracked streams
// and writes it through the bound RTCP writer.
//
// The Jitter field is filled with the smoothed delay variation in
// whole milliseconds. RFC 3550 defines jitter in RTP timestamp units;
// this interceptor measures in milliseconds and reports the same, so
// consumers must interpret the field accordingly.
func (i *TimingInterceptor) sendReport() {
	i.mu.Lock()
	writer := i.rtcpWriter
	i.mu.Unlock()

	if writer == nil {
		return // not bound yet
	}

	var reports []rtcp.ReceptionReport
	i.streams.Range(func(_, value any) bool {
		stats := value.(*streamStats).snapshot()
		if stats.Count == 0 {
			return true // nothing measured yet
		}
		reports = append(reports, rtcp.ReceptionReport{
			SSRC:               stats.SSRC,
			LastSequenceNumber: uint32(stats.LastSequenceNumber),
			Jitter:             uint32(stats.JitterMs),
		})
		return len(reports) < maxReportsPerPacket
	})

	if len(reports) == 0 {
		return
	}

	rr := &rtcp.ReceiverReport{
		SSRC:    i.senderSSRC,
		Reports: reports,
	}
	_, _ = writer.Write([]rtcp.Packet{rr}, nil) // ignore network errors
}

// cleanupLoop periodically removes streams that have gone quiet for
// longer than streamTimeout, judged against the interceptor's own
// clock.
func (i *TimingInterceptor) cleanupLoop() {
	defer i.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-i.closed:
			return
		case <-ticker.C:
			i.cleanupInactiveStreams(i.clock.Now())
		}
	}
}

// cleanupInactiveStreams removes streams whose last packet is older
// than streamTimeout.
func (i *TimingInterceptor) cleanupInactiveStreams(now monotime.Millis) {
	timeout := monotime.DurationFrom(streamTimeout)
	i.streams.Range(func(key, value any) bool {
		state := value.(*streamStats)
		if now.DurationSince(state.lastPacket()) > timeout {
			i.streams.Delete(key)
		}
		return true
	})
}
