package log

// Logger receives protocol events from the transport and connection
// layers. Implementations must be safe for concurrent use; Log is called
// from the read loop, so it should return quickly or queue the event.
type Logger interface {
	Log(event Event)
}

// NoopLogger discards all events. Use when logging is disabled.
// Safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// LoggerFunc adapts a plain function to the Logger interface.
type LoggerFunc func(Event)

// Log calls the function.
func (f LoggerFunc) Log(event Event) { f(event) }

// Compile-time interface satisfaction checks.
var (
	_ Logger = NoopLogger{}
	_ Logger = LoggerFunc(nil)
)
