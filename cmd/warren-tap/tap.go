package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/warren-mq/warren-go/pkg/connection"
	"github.com/warren-mq/warren-go/pkg/transport"
	"github.com/warren-mq/warren-go/pkg/uri"
	"github.com/warren-mq/warren-go/pkg/wire"
)

// payloadPreview caps how many payload bytes a frame line shows.
const payloadPreview = 16

// Tap observes one broker connection and prints every frame the broker
// sends. It never answers the protocol handshake; the connection resolves
// on the first frame received.
type Tap struct {
	ep  uri.Endpoint
	cfg transport.Config
	mgr *connection.Manager

	mu   sync.Mutex
	conn *transport.Conn
	out  *slog.Logger
}

// NewTap creates a tap for the given endpoint.
func NewTap(ep uri.Endpoint, cfg transport.Config, out *slog.Logger) *Tap {
	t := &Tap{ep: ep, cfg: cfg, out: out}
	t.mgr = connection.NewManager(t.dial)
	return t
}

// AutoReconnect enables redialing with backoff after a connection loss.
func (t *Tap) AutoReconnect(enabled bool) {
	t.mgr.SetAutoReconnect(enabled)
	if enabled {
		t.mgr.StartReconnectLoop()
		t.mgr.OnReconnecting(func(attempt int, delay time.Duration) {
			t.console().Info("reconnecting", "attempt", attempt, "delay", delay)
		})
		t.mgr.OnConnected(func() {
			t.console().Info("reconnected", "remote", t.ep.Addr())
		})
	}
}

// Connect dials the broker, redialing per the reconnect policy.
func (t *Tap) Connect(ctx context.Context) error {
	return t.mgr.Connect(ctx)
}

// Close tears the connection down and stops any redial loop.
func (t *Tap) Close() {
	t.mgr.Close()
	if c := t.current(); c != nil {
		_ = c.Close()
	}
}

// Send writes one raw frame to the broker.
func (t *Tap) Send(frame []byte) error {
	c := t.current()
	if c == nil {
		return transport.ErrNotConnected
	}
	return c.Send(frame)
}

// State returns the transport state of the current connection.
func (t *Tap) State() transport.ConnectionState {
	c := t.current()
	if c == nil {
		return transport.StateDisconnected
	}
	return c.State()
}

// Endpoint returns the endpoint the tap dials.
func (t *Tap) Endpoint() uri.Endpoint {
	return t.ep
}

// SetConsole swaps the console logger, e.g. to route output through a
// readline-coordinated writer.
func (t *Tap) SetConsole(out *slog.Logger) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.out = out
}

// CloseSocket half-closes the current connection.
func (t *Tap) CloseSocket() {
	if c := t.current(); c != nil {
		c.CloseSocket()
	}
}

// dial establishes a fresh transport connection. Each attempt needs a new
// Conn; a torn-down connection cannot be revived.
func (t *Tap) dial(ctx context.Context) error {
	sink := &frameSink{tap: t}
	conn := transport.NewConn(t.ep, t.cfg, sink)
	sink.conn = conn

	if err := conn.Connect(ctx); err != nil {
		return err
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	return nil
}

func (t *Tap) current() *transport.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn
}

func (t *Tap) console() *slog.Logger {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.out
}

// printFrame logs one broker frame. The frame view is only valid for the
// duration of the call, so everything printed is read here.
func (t *Tap) printFrame(f wire.Frame) {
	preview := f.Payload()
	truncated := false
	if len(preview) > payloadPreview {
		preview = preview[:payloadPreview]
		truncated = true
	}
	payload := fmt.Sprintf("% x", preview)
	if truncated {
		payload += " ..."
	}
	t.console().Info("frame",
		"type", f.Type().String(),
		"channel", f.Channel(),
		"size", f.Size(),
		"payload", payload,
	)
}

// frameSink is the engine for one tap connection. A tap observes, so it
// resolves the connect handshake on the first frame the broker sends.
type frameSink struct {
	tap  *Tap
	conn *transport.Conn
	once sync.Once
}

var _ transport.Engine = (*frameSink)(nil)

func (s *frameSink) OnFrame(f wire.Frame) {
	s.once.Do(s.conn.HandshakeComplete)
	s.tap.printFrame(f)
}

func (s *frameSink) OnError(err error) {
	s.tap.console().Error("connection lost", "err", err)
	s.tap.mgr.NotifyConnectionLost()
}
