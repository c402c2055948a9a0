// Package connection provides redial management on top of the
// transport layer. The transport itself never retries anything; when a
// broker link drops, the Manager here decides when to dial again.
//
// # Redial Strategy
//
// When a connection is lost, the manager uses exponential backoff:
//
//  1. Initial delay: 1 second
//  2. Exponential increase: 2s, 4s, 8s, 16s, 32s
//  3. Maximum delay: 60 seconds
//  4. Continue at 60s until successful
//  5. Reset to 1s on successful reconnection
//
// # Jitter
//
// To prevent thundering herd when multiple clients reconnect:
//
//	actual_delay = base_delay + random(0, base_delay * 0.25)
//
// # Success Criteria
//
// A redial counts as successful when the ConnectFunc returns nil, which
// for a transport connection means socket, preamble and protocol
// handshake all completed. A broker that accepts the socket but rejects
// the handshake does NOT reset backoff.
package connection
