// Package rtpext puts monotime timestamps on the wire as an RTP header
// extension and measures per-stream delay from them.
//
// A sender-side wrapper stamps every outgoing packet with the low 16
// bits of its monotonic millisecond clock (2 bytes on the wire). The
// receiver reconstructs the full timestamp against its own clock using
// the lower-bits codec, takes the saturating difference as a delay
// sample, and aggregates per-stream statistics (last, max, smoothed
// mean, jitter). When an RTCP writer is bound, the interceptor emits
// periodic receiver reports carrying the measured jitter.
//
// # Quick Start
//
// Register the factory with your Pion WebRTC API and offer the
// extension during negotiation:
//
//	import (
//	    "github.com/pion/interceptor"
//	    "github.com/thesyncim/monotime/pkg/monotime/rtpext"
//	)
//
//	registry := &interceptor.Registry{}
//	factory, err := rtpext.NewFactory(
//	    rtpext.WithFactoryOnDelay(func(ssrc uint32, delay monotime.Duration) {
//	        // record delay sample
//	    }),
//	)
//	if err != nil {
//	    return err
//	}
//	registry.Add(factory)
//
// The extension must be registered under rtpext.SendTimeURI on both
// ends; streams that did not negotiate it pass through untouched.
//
// # Clock epochs
//
// Delay samples are exact only when both ends read clocks sharing an
// epoch (loopback pipelines, or tests wiring monotime.OffsetClock to
// simulate skew). Between independently started processes the samples
// are shifted by the epoch difference; their variation (and the jitter
// derived from it) remains meaningful, absolute values do not.
package rtpext
