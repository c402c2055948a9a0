package transport

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrHeartbeatTimeout indicates the peer went silent for more than two
// heartbeat intervals and is considered dead.
var ErrHeartbeatTimeout = errors.New("heartbeat timeout")

// Heartbeat monitors connection liveness after the engine has
// negotiated a heartbeat interval. It sends a heartbeat frame whenever
// the write side has been idle for the interval, and declares the peer
// dead when nothing has been read for twice the interval. Any inbound
// traffic counts as liveness, heartbeat frame or not.
type Heartbeat struct {
	interval time.Duration

	// Callbacks
	send      func() error
	onTimeout func()

	// Unix nanos of the last observed activity in each direction.
	lastRead  atomic.Int64
	lastWrite atomic.Int64

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// minHeartbeatInterval floors the negotiated interval. The loop ticks
// at half the interval, and a ticker duration of zero panics.
const minHeartbeatInterval = 2 * time.Millisecond

// NewHeartbeat creates a heartbeat monitor. send transmits one
// heartbeat frame; onTimeout is invoked once when the peer is declared
// dead. Intervals below minHeartbeatInterval are raised to it.
func NewHeartbeat(interval time.Duration, send func() error, onTimeout func()) *Heartbeat {
	if interval < minHeartbeatInterval {
		interval = minHeartbeatInterval
	}
	hb := &Heartbeat{
		interval:  interval,
		send:      send,
		onTimeout: onTimeout,
		stopCh:    make(chan struct{}),
	}
	now := time.Now().UnixNano()
	hb.lastRead.Store(now)
	hb.lastWrite.Store(now)
	return hb
}

// Start begins the monitoring loop.
func (hb *Heartbeat) Start(ctx context.Context) {
	hb.mu.Lock()
	if hb.running {
		hb.mu.Unlock()
		return
	}
	hb.running = true
	hb.stopCh = make(chan struct{})
	hb.mu.Unlock()

	go hb.loop(ctx)
}

// Stop stops the monitoring loop.
func (hb *Heartbeat) Stop() {
	hb.mu.Lock()
	defer hb.mu.Unlock()

	if !hb.running {
		return
	}

	hb.running = false
	close(hb.stopCh)
}

// IsRunning returns true if the monitor is active.
func (hb *Heartbeat) IsRunning() bool {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	return hb.running
}

// Interval returns the negotiated heartbeat interval.
func (hb *Heartbeat) Interval() time.Duration {
	return hb.interval
}

// NoteRead records inbound activity. Called by the read loop for every
// chunk, whatever its content.
func (hb *Heartbeat) NoteRead() {
	hb.lastRead.Store(time.Now().UnixNano())
}

// NoteWrite records outbound activity. A busy write side needs no
// heartbeat frames of its own.
func (hb *Heartbeat) NoteWrite() {
	hb.lastWrite.Store(time.Now().UnixNano())
}

// loop checks both directions at half-interval granularity.
func (hb *Heartbeat) loop(ctx context.Context) {
	ticker := time.NewTicker(hb.interval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-hb.stopCh:
			return
		case <-ticker.C:
			if hb.handleTick() {
				return
			}
		}
	}
}

// handleTick performs one liveness check. Returns true when the peer
// has been declared dead and the loop must stop.
func (hb *Heartbeat) handleTick() bool {
	now := time.Now()

	if now.Sub(time.Unix(0, hb.lastRead.Load())) >= 2*hb.interval {
		hb.Stop()
		if hb.onTimeout != nil {
			hb.onTimeout()
		}
		return true
	}

	if now.Sub(time.Unix(0, hb.lastWrite.Load())) >= hb.interval {
		// A send failure surfaces through the read side shortly; the
		// monitor does not tear down on its own here.
		if err := hb.send(); err == nil {
			hb.NoteWrite()
		}
	}

	return false
}
