package connection

import (
	"math/rand"
	"sync"
	"time"
)

// Redial backoff defaults. A lost broker rarely comes back within the
// first second, and a thundering herd of clients redialing in lockstep
// is exactly what a recovering broker does not need, hence the jitter.
const (
	// InitialBackoff is the delay before the first redial attempt.
	InitialBackoff = 1 * time.Second

	// MaxBackoff caps the delay between redial attempts.
	MaxBackoff = 60 * time.Second

	// BackoffMultiplier is the growth factor between attempts.
	BackoffMultiplier = 2.0

	// JitterFactor is the maximum random extension of a delay, as a
	// fraction of its base value.
	JitterFactor = 0.25
)

// BackoffConfig customizes the redial schedule. Zero or out-of-range
// fields fall back to the package defaults.
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// Backoff produces the delay schedule for redial attempts: exponential
// growth from Initial to Max, each delay extended by random jitter.
// Safe for concurrent use.
type Backoff struct {
	mu sync.Mutex

	current  time.Duration
	attempts int
	rng      *rand.Rand

	initial    time.Duration
	max        time.Duration
	multiplier float64
	jitter     float64
}

// NewBackoff creates a backoff schedule with the default settings.
func NewBackoff() *Backoff {
	return NewBackoffWithConfig(BackoffConfig{})
}

// NewBackoffWithConfig creates a backoff schedule with custom settings.
func NewBackoffWithConfig(cfg BackoffConfig) *Backoff {
	if cfg.Initial <= 0 {
		cfg.Initial = InitialBackoff
	}
	if cfg.Max <= 0 {
		cfg.Max = MaxBackoff
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = BackoffMultiplier
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}

	return &Backoff{
		current:    cfg.Initial,
		initial:    cfg.Initial,
		max:        cfg.Max,
		multiplier: cfg.Multiplier,
		jitter:     cfg.Jitter,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the delay to wait before the upcoming attempt and
// advances the schedule.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	delay := b.jittered(b.current)

	b.attempts++
	if next := time.Duration(float64(b.current) * b.multiplier); next > b.max {
		b.current = b.max
	} else {
		b.current = next
	}

	return delay
}

// Peek returns the upcoming delay without advancing the schedule.
func (b *Backoff) Peek() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.jittered(b.current)
}

// Reset restarts the schedule. Call after a successful connection.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.initial
	b.attempts = 0
}

// Attempts returns the number of delays handed out since the last reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// Current returns the upcoming base delay, without jitter.
func (b *Backoff) Current() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

func (b *Backoff) jittered(d time.Duration) time.Duration {
	if b.jitter <= 0 {
		return d
	}
	return d + time.Duration(float64(d)*b.jitter*b.rng.Float64())
}

// BackoffSequence returns the default base delays, without jitter,
// up to the cap.
func BackoffSequence() []time.Duration {
	return []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		32 * time.Second,
		60 * time.Second, // max
	}
}
