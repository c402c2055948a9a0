// Package transport provides the Warren transport layer implementation.
//
// The transport layer handles:
//   - TCP and TLS connections to a broker
//   - The 8-octet protocol preamble on connection establishment
//   - Reassembly of the inbound byte stream into complete frames
//   - Heartbeat traffic for connection liveness
//   - Connection state management
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│     Protocol Engine            │
//	├────────────────────────────────┤
//	│   Frame Envelope (7B + 0xCE)   │
//	├────────────────────────────────┤
//	│       TLS (optional)           │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// # Frame Reassembly
//
// The broker's byte stream arrives in arbitrarily-sized chunks; a frame
// can be whole in one read, split at any offset including inside its
// 7-octet header, or packed back to back with others. FrameAssembler
// turns that stream into ordered complete frames, dispatching a
// zero-copy view when a frame is fully contained in one chunk and
// accumulating into a single reusable scratch buffer otherwise.
//
// # Connection Lifecycle
//
// Conn dials the broker, writes the preamble, and feeds socket reads
// into a FrameAssembler. Connect blocks until the protocol engine
// signals handshake completion via HandshakeComplete, or fails on the
// first transport error. After the handshake, errors are delivered to
// the engine's OnError. The engine encodes its own frames and sends
// them through Send; CloseSocket half-closes the write side for a
// graceful shutdown, Close tears the connection down entirely.
//
// # Heartbeats
//
// After the engine negotiates a heartbeat interval it calls
// SetHeartbeat. The monitor then emits heartbeat frames when the write
// side is idle and declares the peer dead when nothing is read for two
// intervals; any inbound traffic counts as liveness.
package transport
