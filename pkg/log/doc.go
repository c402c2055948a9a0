// Package log provides structured protocol logging for Warren.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events at multiple layers (transport, connection, client).
// It is separate from operational logging (slog) - protocol capture provides
// a complete machine-readable event trace for debugging and analysis.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/warren/broker.wlog")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    log.NewFileLogger("/var/log/warren/broker.wlog"),
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Transport: Raw frame traffic (FrameEvent)
//   - Connection: Lifecycle state changes (StateChangeEvent)
//   - Heartbeat: Liveness traffic and timeouts (HeartbeatEvent)
//
// Errors have a dedicated event type usable at any layer.
//
// # File Format
//
// Log files use CBOR encoding with .wlog extension. The warren-tap CLI
// captures them and reads them back via its -replay mode.
package log
