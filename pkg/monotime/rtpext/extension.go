package rtpext

import (
	"errors"

	"github.com/pion/interceptor"
)

// SendTimeURI is the URI under which the monotonic send-time header
// extension is registered during SDP negotiation. The extension
// payload is 2 bytes: the low 16 bits of the sender's monotonic
// millisecond timestamp, big-endian. With 16 bits the reconstruction
// wrap window is ±32768 ms, comfortably above any sane network delay.
const SendTimeURI = "https://github.com/thesyncim/monotime/rtp-hdrext/send-time"

// sendTimeExtensionSize is the wire size of the extension payload.
const sendTimeExtensionSize = 2

// ErrShortExtension is returned when unmarshaling an extension payload
// shorter than the 2-byte wire form.
var ErrShortExtension = errors.New("rtpext: send-time extension payload too short")

// SendTimeExtension is the parsed form of the monotonic send-time
// header extension: the low 16 bits of the sender's Millis timestamp
// at the instant the packet was written.
type SendTimeExtension struct {
	Low uint16
}

// Marshal serializes the extension payload (2 bytes, big-endian).
func (e SendTimeExtension) Marshal() ([]byte, error) {
	return []byte{byte(e.Low >> 8), byte(e.Low)}, nil
}

// Unmarshal parses the extension payload. Bytes beyond the first two
// are ignored, matching the tolerant parsing of other timing
// extensions.
func (e *SendTimeExtension) Unmarshal(data []byte) error {
	if len(data) < sendTimeExtensionSize {
		return ErrShortExtension
	}
	e.Low = uint16(data[0])<<8 | uint16(data[1])
	return nil
}

// FindExtensionID searches for an extension with the given URI in the
// list of negotiated RTP header extensions and returns its ID.
//
// Returns 0 if the extension is not found. Extension ID 0 is invalid
// per RFC 5285, so callers should treat a return value of 0 as
// "extension not negotiated" and skip timing processing for the stream.
func FindExtensionID(exts []interceptor.RTPHeaderExtension, uri string) uint8 {
	for _, ext := range exts {
		if ext.URI == uri {
			return uint8(ext.ID)
		}
	}
	return 0
}

// FindSendTimeID is a convenience function that searches for the
// monotonic send-time extension ID in the list of negotiated
// extensions. Returns 0 if it was not negotiated.
func FindSendTimeID(exts []interceptor.RTPHeaderExtension) uint8 {
	return FindExtensionID(exts, SendTimeURI)
}
