package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/warren-mq/warren-go/pkg/log"
	"github.com/warren-mq/warren-go/pkg/uri"
	"github.com/warren-mq/warren-go/pkg/wire"
)

// Connection states.
type ConnectionState int

const (
	// StateDisconnected indicates no connection.
	StateDisconnected ConnectionState = iota

	// StateConnecting indicates connection in progress.
	StateConnecting

	// StateConnected indicates an active connection.
	StateConnected

	// StateClosing indicates graceful close in progress.
	StateClosing
)

// String returns the connection state name.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateClosing:
		return "CLOSING"
	default:
		return "UNKNOWN"
	}
}

// Connection errors.
var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrConnectionClosed = errors.New("connection closed")
)

// readBufferSize is the socket read chunk size. Frames up to this size
// that arrive whole take the assembler's zero-copy path.
const readBufferSize = 64 * 1024

// Config configures a broker connection.
type Config struct {
	// TLS holds settings for encrypted endpoints. Ignored for plain
	// endpoints; nil selects sane defaults.
	TLS *TLSConfig

	// MaxFrameSize is the largest total frame size accepted before
	// tune negotiation (default: DefaultMaxFrameSize).
	MaxFrameSize uint32

	// WriteTimeout is the deadline for individual writes (0 = none).
	WriteTimeout time.Duration

	// Logger receives protocol events. Nil disables event logging.
	Logger log.Logger
}

// Conn is one transport link to a broker. It owns the socket, writes
// the protocol preamble, reassembles the inbound byte stream into
// frames and hands each one to the protocol engine.
//
// Connect blocks until the engine signals handshake completion through
// HandshakeComplete, or until the first transport error, whichever
// comes first; that resolution happens exactly once. Errors after
// resolution are delivered to Engine.OnError instead.
//
// A Conn is single-use. Once closed it stays closed; redialing means
// building a fresh Conn (see pkg/connection for the redial loop).
type Conn struct {
	id     string
	ep     uri.Endpoint
	config Config
	engine Engine
	logger log.Logger

	// Network connection. conn is the stream the read and write paths
	// use; tlsConn is set in addition when the endpoint is encrypted.
	conn    net.Conn
	tlsConn *tls.Conn

	assembler *FrameAssembler
	heartbeat *Heartbeat

	// State
	state     atomic.Int32
	closeOnce sync.Once
	readDone  chan struct{}

	// Connect resolution: one-shot by construction.
	resolveOnce sync.Once
	resolveCh   chan error

	// closing is set by CloseSocket and Close so the read loop can
	// treat the resulting EOF as a clean shutdown.
	closing atomic.Bool

	// spent is set by forceClose. A Conn is single-use: closeOnce and
	// resolveOnce are consumed by the first lifecycle, so a second
	// Connect could neither resolve nor be torn down again.
	spent atomic.Bool

	mu      sync.RWMutex
	writeMu sync.Mutex
	cancel  context.CancelFunc
}

// NewConn creates a connection to the given endpoint (not yet
// connected). The engine is held by reference and must be non-nil.
func NewConn(ep uri.Endpoint, config Config, engine Engine) *Conn {
	if config.MaxFrameSize == 0 {
		config.MaxFrameSize = DefaultMaxFrameSize
	}
	logger := config.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}

	c := &Conn{
		id:        uuid.New().String(),
		ep:        ep,
		config:    config,
		engine:    engine,
		logger:    logger,
		readDone:  make(chan struct{}),
		resolveCh: make(chan error, 1),
	}
	c.state.Store(int32(StateDisconnected))

	return c
}

// ID returns the connection's unique identifier.
func (c *Conn) ID() string {
	return c.id
}

// State returns the current connection state.
func (c *Conn) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// Endpoint returns the endpoint this connection targets.
func (c *Conn) Endpoint() uri.Endpoint {
	return c.ep
}

// Connect opens the socket, writes the 8-octet protocol preamble and
// starts the read loop, then blocks until the engine resolves the
// handshake or a transport error rejects it. ctx cancellation is the
// caller-side timeout: when it wins the race the socket is torn down
// and ctx.Err() is returned.
func (c *Conn) Connect(ctx context.Context) error {
	if c.spent.Load() {
		return ErrConnectionClosed
	}
	if !c.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		return ErrAlreadyConnected
	}
	c.notifyStateChange(StateDisconnected, StateConnecting, "")

	// Apply the endpoint's connection_timeout when the caller set none.
	dialCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.ep.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.ep.ConnectTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(dialCtx, "tcp", c.ep.Addr())
	if err != nil {
		c.state.Store(int32(StateDisconnected))
		c.notifyStateChange(StateConnecting, StateDisconnected, err.Error())
		return fmt.Errorf("dial failed: %w", err)
	}

	var tlsConn *tls.Conn
	if c.ep.TLS {
		tlsConf, err := NewClientTLSConfig(c.ep.Host, c.config.TLS)
		if err != nil {
			conn.Close()
			c.state.Store(int32(StateDisconnected))
			c.notifyStateChange(StateConnecting, StateDisconnected, err.Error())
			return err
		}
		tlsConn = tls.Client(conn, tlsConf)
		if err := tlsConn.HandshakeContext(dialCtx); err != nil {
			conn.Close()
			c.state.Store(int32(StateDisconnected))
			c.notifyStateChange(StateConnecting, StateDisconnected, err.Error())
			return fmt.Errorf("TLS handshake failed: %w", err)
		}
		conn = tlsConn
	}

	assembler := NewFrameAssembler(c.config.MaxFrameSize, c.onFrame)
	assembler.SetLogger(c.logger, c.id)

	var loopCtx context.Context
	c.mu.Lock()
	c.conn = conn
	c.tlsConn = tlsConn
	c.assembler = assembler
	loopCtx, c.cancel = context.WithCancel(context.Background())
	c.mu.Unlock()

	// The preamble goes out before any frame traffic.
	if err := c.writeAll(wire.ProtocolHeader); err != nil {
		c.forceClose(err.Error())
		return fmt.Errorf("preamble write failed: %w", err)
	}

	c.state.Store(int32(StateConnected))
	c.notifyStateChange(StateConnecting, StateConnected, "")

	go c.readLoop(loopCtx)

	select {
	case err := <-c.resolveCh:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
		c.forceClose(ctx.Err().Error())
		return ctx.Err()
	}
}

// HandshakeComplete resolves the pending Connect. The protocol engine
// calls it once its handshake with the broker has finished. Calls after
// the connect has already resolved are no-ops.
func (c *Conn) HandshakeComplete() {
	c.resolve(nil)
}

// resolve settles the pending connect exactly once. Returns false when
// it had already been settled.
func (c *Conn) resolve(err error) bool {
	settled := false
	c.resolveOnce.Do(func() {
		c.resolveCh <- err
		settled = true
	})
	return settled
}

// Send writes one encoded frame to the socket. It returns once the OS
// has accepted the write; that is transport backpressure only, not a
// broker acknowledgment. Concurrent senders are serialized, so write
// order on the wire is lock acquisition order.
func (c *Conn) Send(frame []byte) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}

	if err := c.writeAll(frame); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}

	if hb := c.currentHeartbeat(); hb != nil {
		hb.NoteWrite()
	}
	c.logFrameOut(frame)
	return nil
}

// writeAll writes the whole buffer under the write lock, applying the
// configured write deadline.
func (c *Conn) writeAll(b []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}

	if c.config.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
		defer conn.SetWriteDeadline(time.Time{})
	}

	for len(b) > 0 {
		n, err := conn.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

// CloseSocket half-closes the write side so queued writes flush before
// the socket goes down. The read loop keeps draining until the peer
// closes; the EOF that follows is a clean shutdown, not an error.
// Fire-and-forget: close completion is the protocol engine's concern.
func (c *Conn) CloseSocket() {
	c.closing.Store(true)

	if c.state.CompareAndSwap(int32(StateConnected), int32(StateClosing)) {
		c.notifyStateChange(StateConnected, StateClosing, "close requested")
	}

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		cw.CloseWrite()
	}
}

// Close tears the connection down: stops the heartbeat monitor, stops
// the read loop and closes the socket. Idempotent; safe to call from
// the engine's callbacks.
func (c *Conn) Close() error {
	c.closing.Store(true)
	c.forceClose("closed")
	return nil
}

// forceClose is the single teardown path. It marks the Conn spent:
// a new connection needs a new Conn.
func (c *Conn) forceClose(reason string) {
	c.closeOnce.Do(func() {
		c.spent.Store(true)
		prev := c.State()

		if hb := c.currentHeartbeat(); hb != nil {
			hb.Stop()
		}

		c.mu.Lock()
		if c.cancel != nil {
			c.cancel()
		}
		if c.conn != nil {
			c.conn.Close()
			c.conn = nil
		}
		c.tlsConn = nil
		c.mu.Unlock()

		c.state.Store(int32(StateDisconnected))
		if prev != StateDisconnected {
			c.notifyStateChange(prev, StateDisconnected, reason)
		}
	})
}

// LocalAddr returns the local network address, or nil before Connect.
func (c *Conn) LocalAddr() net.Addr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn != nil {
		return c.conn.LocalAddr()
	}
	return nil
}

// RemoteAddr returns the broker's network address, or nil before Connect.
func (c *Conn) RemoteAddr() net.Addr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn != nil {
		return c.conn.RemoteAddr()
	}
	return nil
}

// TLSConnectionState returns the TLS state of an encrypted connection.
func (c *Conn) TLSConnectionState() (tls.ConnectionState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tlsConn != nil {
		return c.tlsConn.ConnectionState(), true
	}
	return tls.ConnectionState{}, false
}

// SetMaxFrameSize adjusts the frame size limit after tune negotiation.
// Must be called from the engine's OnFrame callback or before Connect,
// never concurrently with the read loop.
func (c *Conn) SetMaxFrameSize(max uint32) error {
	c.mu.RLock()
	assembler := c.assembler
	c.mu.RUnlock()

	if assembler == nil {
		c.config.MaxFrameSize = max
		return nil
	}
	return assembler.SetMaxFrameSize(max)
}

// SetHeartbeat starts liveness monitoring at the negotiated interval,
// replacing any previous monitor. Zero stops monitoring entirely.
func (c *Conn) SetHeartbeat(interval time.Duration) {
	c.mu.Lock()
	if c.heartbeat != nil {
		c.heartbeat.Stop()
		c.heartbeat = nil
	}
	if interval <= 0 {
		c.mu.Unlock()
		return
	}
	hb := NewHeartbeat(interval, c.sendHeartbeat, c.onHeartbeatTimeout)
	c.heartbeat = hb
	c.mu.Unlock()

	hb.Start(context.Background())

	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    log.DirectionOut,
		Layer:        log.LayerTransport,
		Category:     log.CategoryHeartbeat,
		Heartbeat:    &log.HeartbeatEvent{Kind: log.HeartbeatApplied, Interval: interval},
	})
}

func (c *Conn) currentHeartbeat() *Heartbeat {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.heartbeat
}

// sendHeartbeat transmits one heartbeat frame.
func (c *Conn) sendHeartbeat() error {
	if err := c.Send(wire.HeartbeatFrame()); err != nil {
		return err
	}
	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    log.DirectionOut,
		Layer:        log.LayerTransport,
		Category:     log.CategoryHeartbeat,
		Heartbeat:    &log.HeartbeatEvent{Kind: log.HeartbeatSent},
	})
	return nil
}

// onHeartbeatTimeout declares the peer dead.
func (c *Conn) onHeartbeatTimeout() {
	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    log.DirectionIn,
		Layer:        log.LayerTransport,
		Category:     log.CategoryHeartbeat,
		Heartbeat:    &log.HeartbeatEvent{Kind: log.HeartbeatTimeout},
	})
	c.fatal(ErrHeartbeatTimeout)
}

// readLoop is the single reader: it feeds every chunk the socket
// delivers into the frame assembler until the connection ends.
func (c *Conn) readLoop(ctx context.Context) {
	defer close(c.readDone)

	buf := make([]byte, readBufferSize)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()
		if conn == nil {
			return
		}

		n, err := conn.Read(buf)
		if n > 0 {
			if hb := c.currentHeartbeat(); hb != nil {
				hb.NoteRead()
			}
			if ferr := c.assembler.Feed(buf[:n]); ferr != nil {
				// Framing invariant violation or oversize frame: the
				// stream can no longer be trusted.
				c.fatal(fmt.Errorf("framing error: %w", ferr))
				return
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if c.closing.Load() {
				// EOF after CloseSocket/Close is the peer completing
				// the shutdown, not a failure.
				c.resolve(ErrConnectionClosed)
				c.forceClose("peer closed")
				return
			}
			c.fatal(fmt.Errorf("read error: %w", err))
			return
		}
	}
}

// onFrame is the assembler's sink: one complete frame, in arrival
// order, view valid only for the duration of this call.
func (c *Conn) onFrame(f wire.Frame) {
	if f.Type() == wire.FrameHeartbeat {
		if hb := c.currentHeartbeat(); hb != nil {
			hb.NoteRead()
		}
		c.logger.Log(log.Event{
			Timestamp:    time.Now(),
			ConnectionID: c.id,
			Direction:    log.DirectionIn,
			Layer:        log.LayerTransport,
			Category:     log.CategoryHeartbeat,
			Heartbeat:    &log.HeartbeatEvent{Kind: log.HeartbeatReceived},
		})
	}
	c.engine.OnFrame(f)
}

// fatal routes a connection-fatal error: it rejects the pending connect
// when still unresolved, otherwise delivers to the engine, then tears
// the connection down.
func (c *Conn) fatal(err error) {
	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Layer:        log.LayerTransport,
		Category:     log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerTransport,
			Message: err.Error(),
		},
	})

	if !c.resolve(err) {
		c.engine.OnError(err)
	}
	c.forceClose(err.Error())
}

// logFrameOut records an outbound frame event. The header is peeked for
// type, channel and size; short buffers are still sent verbatim (frame
// correctness on the way out belongs to the engine) and logged without
// that detail.
func (c *Conn) logFrameOut(frame []byte) {
	ev := log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    log.DirectionOut,
		Layer:        log.LayerTransport,
		Category:     log.CategoryFrame,
	}

	if len(frame) >= wire.FrameHeaderSize {
		capture := frame
		truncated := false
		if len(capture) > MaxLogFrameDataSize {
			capture = capture[:MaxLogFrameDataSize]
			truncated = true
		}
		ev.Frame = &log.FrameEvent{
			Type:      wire.Frame(frame).Type(),
			Channel:   wire.Frame(frame).Channel(),
			Size:      wire.PayloadSize(frame),
			Data:      append([]byte(nil), capture...),
			Truncated: truncated,
		}
	}

	c.logger.Log(ev)
}

// notifyStateChange emits a connection state event.
func (c *Conn) notifyStateChange(oldState, newState ConnectionState, reason string) {
	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		RemoteAddr:   c.ep.Addr(),
		VHost:        c.ep.VHost,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: oldState.String(),
			NewState: newState.String(),
			Reason:   reason,
		},
	})
}
