package transport

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/warren-mq/warren-go/pkg/wire"
)

// frameCollector records dispatched frames. Views are cloned because
// they are only valid during the sink call.
type frameCollector struct {
	frames []wire.Frame
}

func (fc *frameCollector) sink(f wire.Frame) {
	fc.frames = append(fc.frames, f.Clone())
}

func newTestAssembler() (*FrameAssembler, *frameCollector) {
	fc := &frameCollector{}
	return NewFrameAssembler(0, fc.sink), fc
}

// methodFrame builds a method frame with the given payload.
func methodFrame(channel uint16, payload []byte) []byte {
	return wire.AppendFrame(nil, wire.FrameMethod, channel, payload)
}

func assertReset(t *testing.T, a *FrameAssembler) {
	t.Helper()
	if pos, size := a.Pending(); pos != 0 || size != 0 {
		t.Errorf("assembler not reset: framePos=%d frameSize=%d", pos, size)
	}
}

func TestFeedWholeFrame(t *testing.T) {
	a, fc := newTestAssembler()

	// 8-octet payload makes a 16-octet frame.
	frame := methodFrame(1, []byte("12345678"))
	if len(frame) != 16 {
		t.Fatalf("test frame is %d octets, want 16", len(frame))
	}

	if err := a.Feed(frame); err != nil {
		t.Fatalf("Feed failed: %v", err)
	}

	if len(fc.frames) != 1 {
		t.Fatalf("dispatched %d frames, want 1", len(fc.frames))
	}
	if !bytes.Equal(fc.frames[0], frame) {
		t.Errorf("dispatched frame differs from input")
	}
	assertReset(t, a)
}

func TestFeedSplitInsideHeader(t *testing.T) {
	a, fc := newTestAssembler()

	frame := methodFrame(1, []byte("12345678"))

	// First chunk ends inside the 7-octet header.
	if err := a.Feed(frame[:3]); err != nil {
		t.Fatalf("Feed chunk 1 failed: %v", err)
	}
	if len(fc.frames) != 0 {
		t.Fatalf("dispatched %d frames after partial header, want 0", len(fc.frames))
	}
	if pos, size := a.Pending(); pos != 3 || size != 0 {
		t.Errorf("after partial header: framePos=%d frameSize=%d, want 3, 0", pos, size)
	}

	if err := a.Feed(frame[3:]); err != nil {
		t.Fatalf("Feed chunk 2 failed: %v", err)
	}
	if len(fc.frames) != 1 {
		t.Fatalf("dispatched %d frames, want 1", len(fc.frames))
	}
	if !bytes.Equal(fc.frames[0], frame) {
		t.Errorf("reassembled frame differs from input")
	}
	assertReset(t, a)
}

func TestFeedTwoFramesOneChunk(t *testing.T) {
	a, fc := newTestAssembler()

	f1 := methodFrame(1, []byte("12345678"))     // 16 octets
	f2 := methodFrame(2, []byte("abcdefghijkl")) // 20 octets

	chunk := append(append([]byte(nil), f1...), f2...)
	if err := a.Feed(chunk); err != nil {
		t.Fatalf("Feed failed: %v", err)
	}

	if len(fc.frames) != 2 {
		t.Fatalf("dispatched %d frames, want 2", len(fc.frames))
	}
	if !bytes.Equal(fc.frames[0], f1) {
		t.Errorf("frame 1 differs from input")
	}
	if !bytes.Equal(fc.frames[1], f2) {
		t.Errorf("frame 2 differs from input")
	}
	assertReset(t, a)
}

func TestFeedEmptyPayloadFrame(t *testing.T) {
	a, fc := newTestAssembler()

	if err := a.Feed(wire.HeartbeatFrame()); err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if len(fc.frames) != 1 {
		t.Fatalf("dispatched %d frames, want 1", len(fc.frames))
	}
	if fc.frames[0].Type() != wire.FrameHeartbeat || fc.frames[0].Size() != 0 {
		t.Errorf("got %v, want empty heartbeat frame", fc.frames[0])
	}
	assertReset(t, a)
}

func TestFeedEmptyChunk(t *testing.T) {
	a, fc := newTestAssembler()

	if err := a.Feed(nil); err != nil {
		t.Fatalf("Feed(nil) failed: %v", err)
	}
	if err := a.Feed([]byte{}); err != nil {
		t.Fatalf("Feed(empty) failed: %v", err)
	}
	if len(fc.frames) != 0 {
		t.Errorf("dispatched %d frames from empty input", len(fc.frames))
	}
}

// testStream builds a stream of frames with varied channels and
// payload sizes, returning the concatenated bytes and each frame.
func testStream() ([]byte, [][]byte) {
	payloads := [][]byte{
		[]byte("12345678"),
		{},
		bytes.Repeat([]byte("x"), 300), // size field uses more than one octet
		[]byte("a"),
		bytes.Repeat([]byte{0x00, 0xFF}, 64),
		[]byte("end of stream"),
	}

	var stream []byte
	var frames [][]byte
	for i, p := range payloads {
		f := wire.AppendFrame(nil, wire.FrameMethod, uint16(i), p)
		frames = append(frames, f)
		stream = append(stream, f...)
	}
	return stream, frames
}

// feedChunks pushes the stream through a fresh assembler split at the
// given boundaries and verifies the dispatched frames match.
func feedChunks(t *testing.T, stream []byte, frames [][]byte, cuts []int) {
	t.Helper()

	a, fc := newTestAssembler()

	prev := 0
	for _, cut := range cuts {
		if err := a.Feed(stream[prev:cut]); err != nil {
			t.Fatalf("Feed(%d:%d) failed: %v", prev, cut, err)
		}
		prev = cut
	}
	if err := a.Feed(stream[prev:]); err != nil {
		t.Fatalf("Feed(%d:) failed: %v", prev, err)
	}

	if len(fc.frames) != len(frames) {
		t.Fatalf("dispatched %d frames, want %d (cuts %v)", len(fc.frames), len(frames), cuts)
	}
	for i := range frames {
		if !bytes.Equal(fc.frames[i], frames[i]) {
			t.Fatalf("frame %d differs from input (cuts %v)", i, cuts)
		}
	}
	assertReset(t, a)
}

func TestFeedEverySplitPoint(t *testing.T) {
	stream, frames := testStream()

	// Two chunks, split at every possible boundary: inside headers,
	// inside payloads, exactly on frame boundaries.
	for cut := 1; cut < len(stream); cut++ {
		feedChunks(t, stream, frames, []int{cut})
	}
}

func TestFeedOneOctetAtATime(t *testing.T) {
	stream, frames := testStream()

	cuts := make([]int, 0, len(stream)-1)
	for i := 1; i < len(stream); i++ {
		cuts = append(cuts, i)
	}
	feedChunks(t, stream, frames, cuts)
}

func TestFeedRandomChunking(t *testing.T) {
	stream, frames := testStream()

	rng := rand.New(rand.NewSource(0x57a11e))
	for iter := 0; iter < 200; iter++ {
		var cuts []int
		pos := 0
		for {
			pos += 1 + rng.Intn(40)
			if pos >= len(stream) {
				break
			}
			cuts = append(cuts, pos)
		}
		feedChunks(t, stream, frames, cuts)
	}
}

func TestZeroCopyEquivalence(t *testing.T) {
	frame := methodFrame(3, []byte("equivalence check"))

	// Fast path: whole frame in one chunk.
	aFast, fcFast := newTestAssembler()
	if err := aFast.Feed(frame); err != nil {
		t.Fatalf("fast path Feed failed: %v", err)
	}

	// Slow path: force scratch accumulation with a mid-payload split.
	aSlow, fcSlow := newTestAssembler()
	if err := aSlow.Feed(frame[:10]); err != nil {
		t.Fatalf("slow path Feed chunk 1 failed: %v", err)
	}
	if err := aSlow.Feed(frame[10:]); err != nil {
		t.Fatalf("slow path Feed chunk 2 failed: %v", err)
	}

	if len(fcFast.frames) != 1 || len(fcSlow.frames) != 1 {
		t.Fatalf("dispatched %d fast / %d slow frames, want 1 each", len(fcFast.frames), len(fcSlow.frames))
	}
	if !bytes.Equal(fcFast.frames[0], fcSlow.frames[0]) {
		t.Errorf("fast and slow paths produced different frames")
	}
	assertReset(t, aFast)
	assertReset(t, aSlow)
}

func TestZeroCopyViewAliasesChunk(t *testing.T) {
	frame := methodFrame(1, []byte("aliased"))

	var view wire.Frame
	a := NewFrameAssembler(0, func(f wire.Frame) { view = f })

	chunk := append([]byte(nil), frame...)
	if err := a.Feed(chunk); err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if &view[0] != &chunk[0] {
		t.Errorf("whole-chunk frame was copied, want a view over the chunk")
	}
}

func TestFrameTooLargeFastPath(t *testing.T) {
	fc := &frameCollector{}
	a := NewFrameAssembler(wire.FrameMinSize, fc.sink)

	// The whole frame fits in the chunk, but exceeds the limit: the
	// fast path must still reject it.
	frame := methodFrame(1, bytes.Repeat([]byte("x"), wire.FrameMinSize))
	err := a.Feed(frame)
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
	if len(fc.frames) != 0 {
		t.Errorf("dispatched %d frames from oversized input", len(fc.frames))
	}
}

func TestFrameTooLargeSplitHeader(t *testing.T) {
	fc := &frameCollector{}
	a := NewFrameAssembler(wire.FrameMinSize, fc.sink)

	frame := methodFrame(1, bytes.Repeat([]byte("x"), wire.FrameMinSize))

	// The size decodes on the second chunk, from the scratch buffer.
	if err := a.Feed(frame[:4]); err != nil {
		t.Fatalf("Feed chunk 1 failed: %v", err)
	}
	err := a.Feed(frame[4:])
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestBadFrameEnd(t *testing.T) {
	a, _ := newTestAssembler()

	frame := methodFrame(1, []byte("corrupt"))
	frame[len(frame)-1] = 0x00

	err := a.Feed(frame)
	if !errors.Is(err, wire.ErrBadFrameEnd) {
		t.Fatalf("expected ErrBadFrameEnd, got %v", err)
	}
}

func TestBadFrameEndSlowPath(t *testing.T) {
	a, _ := newTestAssembler()

	frame := methodFrame(1, []byte("corrupt slow"))
	frame[len(frame)-1] = 0x00

	if err := a.Feed(frame[:9]); err != nil {
		t.Fatalf("Feed chunk 1 failed: %v", err)
	}
	err := a.Feed(frame[9:])
	if !errors.Is(err, wire.ErrBadFrameEnd) {
		t.Fatalf("expected ErrBadFrameEnd, got %v", err)
	}
}

func TestStalledCopyIsFatal(t *testing.T) {
	a, _ := newTestAssembler()

	// Fault injection: an empty scratch buffer makes any header copy
	// move zero octets. Impossible through the public API; the
	// assembler must fail loudly instead of spinning.
	a.scratch = nil

	err := a.Feed([]byte{0x01, 0x00, 0x00})
	if !errors.Is(err, ErrAssemblerStalled) {
		t.Fatalf("expected ErrAssemblerStalled, got %v", err)
	}
}

func TestSetMaxFrameSizeGrowMidFrame(t *testing.T) {
	a, fc := newTestAssembler()

	frame := methodFrame(1, []byte("grow mid frame"))

	if err := a.Feed(frame[:10]); err != nil {
		t.Fatalf("Feed chunk 1 failed: %v", err)
	}
	// Growing preserves the partially gathered frame.
	if err := a.SetMaxFrameSize(DefaultMaxFrameSize * 2); err != nil {
		t.Fatalf("SetMaxFrameSize failed: %v", err)
	}
	if err := a.Feed(frame[10:]); err != nil {
		t.Fatalf("Feed chunk 2 failed: %v", err)
	}

	if len(fc.frames) != 1 || !bytes.Equal(fc.frames[0], frame) {
		t.Fatalf("frame lost across a grow")
	}
}

func TestSetMaxFrameSizeShrinkMidFrame(t *testing.T) {
	a, _ := newTestAssembler()

	frame := methodFrame(1, []byte("shrink mid frame"))
	if err := a.Feed(frame[:10]); err != nil {
		t.Fatalf("Feed failed: %v", err)
	}

	err := a.SetMaxFrameSize(wire.FrameMinSize)
	if !errors.Is(err, ErrResizeMidFrame) {
		t.Fatalf("expected ErrResizeMidFrame, got %v", err)
	}
}

func TestSetMaxFrameSizeBelowMinimum(t *testing.T) {
	a, _ := newTestAssembler()

	err := a.SetMaxFrameSize(wire.FrameMinSize - 1)
	if !errors.Is(err, ErrFrameMaxTooSmall) {
		t.Fatalf("expected ErrFrameMaxTooSmall, got %v", err)
	}
}

func TestSetMaxFrameSizeIdle(t *testing.T) {
	a, fc := newTestAssembler()

	if err := a.SetMaxFrameSize(wire.FrameMinSize); err != nil {
		t.Fatalf("SetMaxFrameSize failed: %v", err)
	}
	if got := a.MaxFrameSize(); got != wire.FrameMinSize {
		t.Errorf("MaxFrameSize = %d, want %d", got, wire.FrameMinSize)
	}

	// Still functional at the new limit.
	frame := methodFrame(1, []byte("after shrink"))
	if err := a.Feed(frame); err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if len(fc.frames) != 1 {
		t.Fatalf("dispatched %d frames, want 1", len(fc.frames))
	}
}
