package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ProtocolHeader is the 8-octet preamble a client sends before its first
// frame: the literal "AMQP" followed by the protocol version 0-9-1.
var ProtocolHeader = []byte{'A', 'M', 'Q', 'P', 0, 0, 9, 1}

const (
	// FrameHeaderSize is the fixed frame header length:
	// type (1), channel (2), payload size (4).
	FrameHeaderSize = 7

	// FrameOverhead is the envelope cost of a frame: the header plus the
	// trailing frame-end octet. A frame with an n-octet payload occupies
	// n+FrameOverhead octets on the wire.
	FrameOverhead = FrameHeaderSize + 1
)

// Errors returned by Frame.Validate.
var (
	ErrFrameTruncated = errors.New("wire: truncated frame")
	ErrBadFrameEnd    = errors.New("wire: bad frame-end octet")
)

// Frame is a read-only view over the octets of one complete frame,
// header and end octet included. The accessors assume a well-formed
// frame; call Validate first on bytes from an untrusted source.
type Frame []byte

// Type returns the frame type octet.
func (f Frame) Type() FrameType { return FrameType(f[0]) }

// Channel returns the channel number the frame belongs to.
func (f Frame) Channel() uint16 { return binary.BigEndian.Uint16(f[1:3]) }

// Size returns the payload length declared in the header.
func (f Frame) Size() uint32 { return binary.BigEndian.Uint32(f[3:7]) }

// Payload returns the payload octets between header and end octet.
// The returned slice aliases the frame's backing array.
func (f Frame) Payload() []byte { return f[FrameHeaderSize : len(f)-1] }

// End returns the final octet of the frame.
func (f Frame) End() byte { return f[len(f)-1] }

// Validate checks that the frame is structurally sound: long enough to
// carry the envelope, total length consistent with the declared payload
// size, and terminated by the frame-end octet.
func (f Frame) Validate() error {
	if len(f) < FrameOverhead {
		return fmt.Errorf("%w: %d octets", ErrFrameTruncated, len(f))
	}
	if want := int(f.Size()) + FrameOverhead; len(f) != want {
		return fmt.Errorf("%w: %d octets, header declares %d", ErrFrameTruncated, len(f), want)
	}
	if f.End() != FrameEnd {
		return fmt.Errorf("%w: 0x%02X", ErrBadFrameEnd, f.End())
	}
	return nil
}

// Clone returns a copy of the frame backed by fresh memory, for callers
// that need the frame past the lifetime of the view they were handed.
func (f Frame) Clone() Frame {
	c := make(Frame, len(f))
	copy(c, f)
	return c
}

// String returns a short diagnostic form like "METHOD ch=0 size=327".
func (f Frame) String() string {
	if len(f) < FrameHeaderSize {
		return fmt.Sprintf("PARTIAL %d octets", len(f))
	}
	return fmt.Sprintf("%s ch=%d size=%d", f.Type(), f.Channel(), f.Size())
}

// PayloadSize reads the declared payload length from a frame header.
// hdr must hold at least the first FrameHeaderSize octets of a frame.
func PayloadSize(hdr []byte) uint32 {
	return binary.BigEndian.Uint32(hdr[3:FrameHeaderSize])
}

// AppendFrame appends one complete frame enveloping payload to dst and
// returns the extended slice. payload may be nil for an empty frame.
func AppendFrame(dst []byte, t FrameType, channel uint16, payload []byte) []byte {
	var hdr [FrameHeaderSize]byte
	hdr[0] = byte(t)
	binary.BigEndian.PutUint16(hdr[1:3], channel)
	binary.BigEndian.PutUint32(hdr[3:7], uint32(len(payload)))
	dst = append(dst, hdr[:]...)
	dst = append(dst, payload...)
	return append(dst, FrameEnd)
}

// HeartbeatFrame returns the canonical heartbeat frame: type heartbeat,
// channel 0, empty payload.
func HeartbeatFrame() Frame {
	return Frame{byte(FrameHeartbeat), 0, 0, 0, 0, 0, 0, FrameEnd}
}
