package log

import (
	"time"

	"github.com/warren-mq/warren-go/pkg/wire"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates frame flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the broker address (IP:port).
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// VHost is the virtual host the connection targets.
	VHost string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"8,keyasint,omitempty"`  // Frame traffic
	StateChange *StateChangeEvent `cbor:"9,keyasint,omitempty"`  // Connection state
	Heartbeat   *HeartbeatEvent   `cbor:"10,keyasint,omitempty"` // Liveness activity
	Error       *ErrorEventData   `cbor:"11,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of frame flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming frame (broker to client).
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing frame (client to broker).
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the socket and framing layer.
	LayerTransport Layer = 0
	// LayerConnection is the connection lifecycle layer (states, redial).
	LayerConnection Layer = 1
	// LayerClient is the application/tooling layer.
	LayerClient Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerConnection:
		return "CONNECTION"
	case LayerClient:
		return "CLIENT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryFrame indicates frame traffic.
	CategoryFrame Category = 0
	// CategoryHeartbeat indicates heartbeat activity.
	CategoryHeartbeat Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryFrame:
		return "FRAME"
	case CategoryHeartbeat:
		return "HEARTBEAT"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures one frame passing the transport layer.
type FrameEvent struct {
	// Type is the frame type octet.
	Type wire.FrameType `cbor:"1,keyasint"`

	// Channel is the channel number the frame belongs to.
	Channel uint16 `cbor:"2,keyasint"`

	// Size is the payload size declared in the frame header.
	Size uint32 `cbor:"3,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"4,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"5,keyasint,omitempty"`
}

// HeartbeatEvent captures heartbeat activity on a connection.
type HeartbeatEvent struct {
	// Kind of heartbeat activity.
	Kind HeartbeatKind `cbor:"1,keyasint"`

	// Interval is the negotiated heartbeat interval, set on KindApplied.
	// Stored as nanoseconds.
	Interval time.Duration `cbor:"2,keyasint,omitempty"`
}

// HeartbeatKind indicates the kind of heartbeat activity.
type HeartbeatKind uint8

const (
	// HeartbeatSent indicates a heartbeat frame was sent.
	HeartbeatSent HeartbeatKind = 0
	// HeartbeatReceived indicates a heartbeat frame was received.
	HeartbeatReceived HeartbeatKind = 1
	// HeartbeatTimeout indicates the peer was declared dead.
	HeartbeatTimeout HeartbeatKind = 2
	// HeartbeatApplied indicates a negotiated interval took effect.
	HeartbeatApplied HeartbeatKind = 3
)

// String returns the heartbeat kind name.
func (k HeartbeatKind) String() string {
	switch k {
	case HeartbeatSent:
		return "SENT"
	case HeartbeatReceived:
		return "RECEIVED"
	case HeartbeatTimeout:
		return "TIMEOUT"
	case HeartbeatApplied:
		return "APPLIED"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures connection lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a transport connection state change.
	StateEntityConnection StateEntity = 0
	// StateEntityRedial indicates a redial manager state change.
	StateEntityRedial StateEntity = 1
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityRedial:
		return "REDIAL"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the protocol reply code (if applicable).
	Code *wire.ReplyCode `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
