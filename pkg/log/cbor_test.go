package log

import (
	"testing"
	"time"

	"github.com/warren-mq/warren-go/pkg/wire"
)

func TestEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 10, 15, 32, 123456789, time.UTC)
	original := Event{
		Timestamp:    ts,
		ConnectionID: "abc12345-def6-7890-abcd-ef1234567890",
		Direction:    DirectionOut,
		Layer:        LayerTransport,
		Category:     CategoryFrame,
		RemoteAddr:   "192.168.1.100:5672",
		VHost:        "/",
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	// Compare fields
	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, original.Timestamp)
	}
	if decoded.ConnectionID != original.ConnectionID {
		t.Errorf("ConnectionID: got %q, want %q", decoded.ConnectionID, original.ConnectionID)
	}
	if decoded.Direction != original.Direction {
		t.Errorf("Direction: got %v, want %v", decoded.Direction, original.Direction)
	}
	if decoded.Layer != original.Layer {
		t.Errorf("Layer: got %v, want %v", decoded.Layer, original.Layer)
	}
	if decoded.Category != original.Category {
		t.Errorf("Category: got %v, want %v", decoded.Category, original.Category)
	}
	if decoded.RemoteAddr != original.RemoteAddr {
		t.Errorf("RemoteAddr: got %q, want %q", decoded.RemoteAddr, original.RemoteAddr)
	}
	if decoded.VHost != original.VHost {
		t.Errorf("VHost: got %q, want %q", decoded.VHost, original.VHost)
	}
}

func TestFrameEventCBORRoundTrip(t *testing.T) {
	original := Event{
		Timestamp:    time.Now().UTC(),
		ConnectionID: "conn-1",
		Direction:    DirectionIn,
		Layer:        LayerTransport,
		Category:     CategoryFrame,
		Frame: &FrameEvent{
			Type:      wire.FrameMethod,
			Channel:   3,
			Size:      27,
			Data:      []byte{1, 0, 3, 0, 0, 0, 27},
			Truncated: true,
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.Frame == nil {
		t.Fatal("Frame payload missing after round trip")
	}
	if decoded.Frame.Type != wire.FrameMethod {
		t.Errorf("Frame.Type: got %v, want METHOD", decoded.Frame.Type)
	}
	if decoded.Frame.Channel != 3 {
		t.Errorf("Frame.Channel: got %d, want 3", decoded.Frame.Channel)
	}
	if decoded.Frame.Size != 27 {
		t.Errorf("Frame.Size: got %d, want 27", decoded.Frame.Size)
	}
	if !decoded.Frame.Truncated {
		t.Error("Frame.Truncated: got false, want true")
	}
	if len(decoded.Frame.Data) != 7 {
		t.Errorf("Frame.Data: got %d bytes, want 7", len(decoded.Frame.Data))
	}
}

func TestErrorEventCBORRoundTrip(t *testing.T) {
	code := wire.FrameError
	original := Event{
		Timestamp:    time.Now().UTC(),
		ConnectionID: "conn-2",
		Direction:    DirectionIn,
		Layer:        LayerTransport,
		Category:     CategoryError,
		Error: &ErrorEventData{
			Layer:   LayerTransport,
			Message: "bad frame-end octet",
			Code:    &code,
			Context: "read loop",
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.Error == nil {
		t.Fatal("Error payload missing after round trip")
	}
	if decoded.Error.Message != "bad frame-end octet" {
		t.Errorf("Error.Message: got %q", decoded.Error.Message)
	}
	if decoded.Error.Code == nil || *decoded.Error.Code != wire.FrameError {
		t.Errorf("Error.Code: got %v, want FRAME_ERROR", decoded.Error.Code)
	}
}

func TestHeartbeatEventCBORRoundTrip(t *testing.T) {
	original := Event{
		Timestamp:    time.Now().UTC(),
		ConnectionID: "conn-3",
		Direction:    DirectionOut,
		Layer:        LayerTransport,
		Category:     CategoryHeartbeat,
		Heartbeat: &HeartbeatEvent{
			Kind:     HeartbeatApplied,
			Interval: 60 * time.Second,
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.Heartbeat == nil {
		t.Fatal("Heartbeat payload missing after round trip")
	}
	if decoded.Heartbeat.Kind != HeartbeatApplied {
		t.Errorf("Heartbeat.Kind: got %v, want APPLIED", decoded.Heartbeat.Kind)
	}
	if decoded.Heartbeat.Interval != 60*time.Second {
		t.Errorf("Heartbeat.Interval: got %v, want 60s", decoded.Heartbeat.Interval)
	}
}

func TestOmittedPayloadsStayNil(t *testing.T) {
	data, err := EncodeEvent(Event{
		Timestamp:    time.Now().UTC(),
		ConnectionID: "conn-4",
		Direction:    DirectionIn,
		Layer:        LayerConnection,
		Category:     CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   StateEntityConnection,
			NewState: "CONNECTED",
		},
	})
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if decoded.Frame != nil || decoded.Heartbeat != nil || decoded.Error != nil {
		t.Error("unset payloads decoded as non-nil")
	}
	if decoded.StateChange == nil || decoded.StateChange.NewState != "CONNECTED" {
		t.Errorf("StateChange: got %+v", decoded.StateChange)
	}
}
