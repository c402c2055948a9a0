package transport

import "github.com/warren-mq/warren-go/pkg/wire"

// Engine is the protocol engine boundary. The transport holds an Engine
// by reference and drives it with assembled frames and connection-wide
// errors; everything inside the frame payloads (method dispatch, channel
// multiplexing, content reassembly, authentication) happens behind this
// interface.
type Engine interface {
	// OnFrame is called once per assembled frame, synchronously, in
	// arrival order. The frame is a view over transport-owned memory
	// and is invalid once OnFrame returns; use Clone to retain it.
	OnFrame(f wire.Frame)

	// OnError is called with transport errors that occur after the
	// connect handshake has resolved. Every such error is fatal for the
	// connection; the transport has already begun tearing it down.
	OnError(err error)
}
