package transport_test

import (
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/warren-mq/warren-go/pkg/transport"
	"github.com/warren-mq/warren-go/pkg/transport/mocks"
	"github.com/warren-mq/warren-go/pkg/wire"
)

// Compile-time interface satisfaction check for the generated mock.
var _ transport.Engine = (*mocks.Engine)(nil)

func TestEngineMockReceivesFrames(t *testing.T) {
	engine := mocks.NewEngine(t)

	frame := wire.Frame(wire.AppendFrame(nil, wire.FrameMethod, 7, []byte("payload")))
	engine.On("OnFrame", mock.MatchedBy(func(f wire.Frame) bool {
		return f.Channel() == 7 && string(f.Payload()) == "payload"
	})).Once()

	a := transport.NewFrameAssembler(0, engine.OnFrame)
	if err := a.Feed(frame); err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
}
