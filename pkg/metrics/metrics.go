// Package metrics exports Prometheus metrics derived from protocol log
// events. The Collector implements log.Logger, so it plugs into the
// transport (or a MultiLogger) like any other event sink:
//
//	m := metrics.New()
//	cfg.Logger = log.NewMultiLogger(fileLogger, m)
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/warren-mq/warren-go/pkg/log"
)

// Config configures the collector.
type Config struct {
	// Namespace is the metrics namespace (default: "warren").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// Option configures the collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// Collector turns protocol log events into Prometheus metrics.
type Collector struct {
	framesTotal  *prometheus.CounterVec
	frameBytes   *prometheus.CounterVec
	heartbeats   *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	stateChanges *prometheus.CounterVec
	connections  prometheus.Gauge
}

// Compile-time interface satisfaction check.
var _ log.Logger = (*Collector)(nil)

// New creates a collector and registers its metrics.
func New(opts ...Option) *Collector {
	cfg := Config{
		Namespace: "warren",
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	factory := promauto.With(cfg.Registry)

	return &Collector{
		framesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "frames_total",
			Help:        "Frames passing the transport layer.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"direction", "type"}),

		frameBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "frame_bytes_total",
			Help:        "Frame payload bytes passing the transport layer.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"direction"}),

		heartbeats: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "heartbeats_total",
			Help:        "Heartbeat activity by kind.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"kind"}),

		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "errors_total",
			Help:        "Errors by originating layer.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"layer"}),

		stateChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "state_changes_total",
			Help:        "State transitions by entity and new state.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"entity", "state"}),

		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Name:        "connections",
			Help:        "Connections currently in the CONNECTED state.",
			ConstLabels: cfg.ConstLabels,
		}),
	}
}

// Log maps one protocol event onto the metrics. Safe for concurrent
// use; prometheus counters handle their own synchronization.
func (c *Collector) Log(event log.Event) {
	switch event.Category {
	case log.CategoryFrame:
		if event.Frame == nil {
			return
		}
		dir := event.Direction.String()
		c.framesTotal.WithLabelValues(dir, event.Frame.Type.String()).Inc()
		c.frameBytes.WithLabelValues(dir).Add(float64(event.Frame.Size))

	case log.CategoryHeartbeat:
		if event.Heartbeat == nil {
			return
		}
		c.heartbeats.WithLabelValues(event.Heartbeat.Kind.String()).Inc()

	case log.CategoryError:
		if event.Error == nil {
			return
		}
		c.errorsTotal.WithLabelValues(event.Error.Layer.String()).Inc()

	case log.CategoryState:
		if event.StateChange == nil {
			return
		}
		sc := event.StateChange
		c.stateChanges.WithLabelValues(sc.Entity.String(), sc.NewState).Inc()

		if sc.Entity == log.StateEntityConnection {
			if sc.NewState == "CONNECTED" {
				c.connections.Inc()
			} else if sc.OldState == "CONNECTED" {
				c.connections.Dec()
			}
		}
	}
}
