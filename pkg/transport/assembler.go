package transport

import (
	"errors"
	"fmt"
	"time"

	"github.com/warren-mq/warren-go/pkg/log"
	"github.com/warren-mq/warren-go/pkg/wire"
)

// Framing constants.
const (
	// DefaultMaxFrameSize is the largest total frame size accepted before
	// tune negotiation (128 KB, the common broker default).
	DefaultMaxFrameSize = 131072

	// MaxLogFrameDataSize is the maximum frame data size to include in logs (4 KB).
	// Larger frames are truncated in log events to avoid excessive memory usage.
	MaxLogFrameDataSize = 4096
)

// Framing errors.
var (
	// ErrFrameTooLarge indicates a frame exceeding the frame size limit.
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrAssemblerStalled indicates an internal copy that should have
	// moved bytes moved none. This is a framing defect, never a network
	// condition; the connection must be torn down.
	ErrAssemblerStalled = errors.New("frame assembler stalled")

	// ErrFrameMaxTooSmall indicates a frame size limit below the protocol minimum.
	ErrFrameMaxTooSmall = errors.New("frame size limit below protocol minimum")

	// ErrResizeMidFrame indicates a shrink attempt while a frame is in progress.
	ErrResizeMidFrame = errors.New("cannot shrink frame size limit mid-frame")
)

// FrameAssembler reassembles an arbitrarily-chunked byte stream into
// complete frames and dispatches each one, in arrival order, to its sink.
//
// A frame fully contained in one chunk is dispatched as a zero-copy view
// over that chunk. A frame spanning chunk boundaries - at any offset,
// including inside the 7-octet header - accumulates in a single reusable
// scratch buffer and is dispatched as a view over it. Either way the view
// is only valid for the duration of the sink call; the backing memory is
// reused afterwards.
//
// Not safe for concurrent use: Feed must be called from a single reader,
// which is how Conn drives it.
type FrameAssembler struct {
	sink func(wire.Frame)

	max     uint32
	scratch []byte

	// framePos counts octets gathered for the frame under construction.
	// While frameSize is zero it counts buffered header octets (0-6).
	framePos  int
	frameSize int

	// Logging support (optional)
	logger log.Logger
	connID string
}

// NewFrameAssembler creates an assembler that dispatches complete frames
// to sink. maxFrameSize bounds the total frame size (header and end
// octet included); zero selects DefaultMaxFrameSize.
func NewFrameAssembler(maxFrameSize uint32, sink func(wire.Frame)) *FrameAssembler {
	if maxFrameSize == 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &FrameAssembler{
		sink:    sink,
		max:     maxFrameSize,
		scratch: make([]byte, maxFrameSize),
	}
}

// SetLogger configures frame event logging for this assembler.
// Pass nil to disable logging.
func (a *FrameAssembler) SetLogger(logger log.Logger, connID string) {
	a.logger = logger
	a.connID = connID
}

// Feed processes one chunk of the inbound byte stream, dispatching every
// frame it completes. A non-nil error is fatal for the connection: the
// stream can no longer be framed and must not be fed again.
func (a *FrameAssembler) Feed(chunk []byte) error {
	n := len(chunk)
	bufPos := 0

	for bufPos < n {
		if a.frameSize == 0 {
			if a.framePos > 0 {
				// A previous chunk ended mid-header; gather the rest.
				k, err := a.copyToScratch(chunk[bufPos:], wire.FrameHeaderSize-a.framePos)
				if err != nil {
					return err
				}
				a.framePos += k
				bufPos += k
				if a.framePos < wire.FrameHeaderSize {
					return nil
				}
				size, err := a.decodeSize(a.scratch[:wire.FrameHeaderSize])
				if err != nil {
					return err
				}
				a.frameSize = size
				continue
			}

			avail := n - bufPos
			if avail < wire.FrameHeaderSize {
				// The chunk ends inside the header; buffer what is there.
				k, err := a.copyToScratch(chunk[bufPos:], avail)
				if err != nil {
					return err
				}
				a.framePos = k
				return nil
			}

			size, err := a.decodeSize(chunk[bufPos : bufPos+wire.FrameHeaderSize])
			if err != nil {
				return err
			}
			a.frameSize = size

			if avail >= a.frameSize {
				// Fast path: the whole frame is in this chunk. Dispatch a
				// view over it without touching the scratch buffer.
				if err := a.dispatch(wire.Frame(chunk[bufPos : bufPos+a.frameSize])); err != nil {
					return err
				}
				bufPos += a.frameSize
				a.framePos, a.frameSize = 0, 0
				continue
			}
		}

		// Slow path: accumulate into the scratch buffer, header included
		// when it was decoded in place above.
		want := a.frameSize - a.framePos
		if rem := n - bufPos; rem < want {
			want = rem
		}
		k, err := a.copyToScratch(chunk[bufPos:], want)
		if err != nil {
			return err
		}
		a.framePos += k
		bufPos += k

		if a.framePos == a.frameSize {
			if err := a.dispatch(wire.Frame(a.scratch[:a.frameSize])); err != nil {
				return err
			}
			a.framePos, a.frameSize = 0, 0
		}
	}
	return nil
}

// decodeSize reads the payload length from a complete header and returns
// the total frame size, rejecting frames over the configured limit on
// both the fast and slow paths.
func (a *FrameAssembler) decodeSize(hdr []byte) (int, error) {
	total := uint64(wire.PayloadSize(hdr)) + wire.FrameOverhead
	if total > uint64(a.max) {
		return 0, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, total, a.max)
	}
	return int(total), nil
}

// copyToScratch copies up to want octets from src into the scratch
// buffer at framePos, enforcing the progress invariant: a copy expected
// to move octets that moves none is a defect, not an I/O condition.
func (a *FrameAssembler) copyToScratch(src []byte, want int) (int, error) {
	if want > len(src) {
		want = len(src)
	}
	k := copy(a.scratch[a.framePos:], src[:want])
	if k == 0 && want > 0 {
		return 0, fmt.Errorf("%w: %d octets pending at offset %d", ErrAssemblerStalled, want, a.framePos)
	}
	return k, nil
}

// dispatch validates the completed frame and hands it to the sink.
func (a *FrameAssembler) dispatch(f wire.Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if a.logger != nil {
		a.logger.Log(a.makeFrameEvent(f))
	}
	a.sink(f)
	return nil
}

// makeFrameEvent creates a log event for a dispatched frame. The captured
// bytes are copied because the frame's backing memory is reused.
func (a *FrameAssembler) makeFrameEvent(f wire.Frame) log.Event {
	capture := []byte(f)
	truncated := false
	if len(capture) > MaxLogFrameDataSize {
		capture = capture[:MaxLogFrameDataSize]
		truncated = true
	}

	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: a.connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerTransport,
		Category:     log.CategoryFrame,
		Frame: &log.FrameEvent{
			Type:      f.Type(),
			Channel:   f.Channel(),
			Size:      f.Size(),
			Data:      append([]byte(nil), capture...),
			Truncated: truncated,
		},
	}
}

// SetMaxFrameSize updates the frame size limit, re-provisioning the
// scratch buffer. Growing preserves any partially gathered frame and is
// safe at any point; shrinking is only allowed between frames. The limit
// cannot go below the protocol minimum frame size.
func (a *FrameAssembler) SetMaxFrameSize(max uint32) error {
	if max < wire.FrameMinSize {
		return fmt.Errorf("%w: %d < %d", ErrFrameMaxTooSmall, max, wire.FrameMinSize)
	}
	if max == a.max {
		return nil
	}
	if max < a.max && (a.frameSize > 0 || a.framePos > 0) {
		return ErrResizeMidFrame
	}

	scratch := make([]byte, max)
	copy(scratch, a.scratch[:a.framePos])
	a.scratch = scratch
	a.max = max
	return nil
}

// MaxFrameSize returns the current frame size limit.
func (a *FrameAssembler) MaxFrameSize() uint32 {
	return a.max
}

// Pending reports the frame under construction: buffered is the octet
// count gathered so far, total the complete frame size (zero while the
// header is still incomplete). Both are zero at a frame boundary.
func (a *FrameAssembler) Pending() (buffered, total int) {
	return a.framePos, a.frameSize
}
