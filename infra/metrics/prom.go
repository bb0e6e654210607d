package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/livetrack/core/metrics"
	"github.com/kilianp07/livetrack/core/model"
)

// PromSink records stream events in Prometheus metrics.
type PromSink struct {
	state         prometheus.Gauge
	transitions   *prometheus.CounterVec
	frames        *prometheus.CounterVec
	subscriptions *prometheus.GaugeVec
	drops         prometheus.Counter
}

// NewPromSink registers stream metrics on the default Prometheus registerer.
// The Prometheus server should be started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "livetrack_connection_state",
			Help: "Current connection state (0 disconnected, 1 connecting, 2 connected, 3 reconnecting)",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "livetrack_connection_transitions_total",
			Help: "Connection state transitions by target state",
		}, []string{"to"}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "livetrack_frames_total",
			Help: "Inbound frames by decode result",
		}, []string{"result"}),
		subscriptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "livetrack_subscriptions",
			Help: "Tracked order ids by subscription state",
		}, []string{"state"}),
		drops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livetrack_feed_drops_total",
			Help: "Updates dropped because a feed consumer was too slow",
		}),
	}
	var err error
	if s.state, err = register(reg, s.state); err != nil {
		return nil, err
	}
	if s.transitions, err = register(reg, s.transitions); err != nil {
		return nil, err
	}
	if s.frames, err = register(reg, s.frames); err != nil {
		return nil, err
	}
	if s.subscriptions, err = register(reg, s.subscriptions); err != nil {
		return nil, err
	}
	if s.drops, err = register(reg, s.drops); err != nil {
		return nil, err
	}
	return s, nil
}

// register returns the already registered collector when c was registered
// before, so several sinks can share one registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordConnectionEvent updates the state gauge and transition counter.
func (s *PromSink) RecordConnectionEvent(ev model.ConnectionEvent) error {
	s.state.Set(float64(ev.To))
	s.transitions.WithLabelValues(ev.To.String()).Inc()
	return nil
}

// RecordFrame counts accepted and rejected frames.
func (s *PromSink) RecordFrame(ev coremetrics.FrameEvent) error {
	result := "accepted"
	if !ev.Accepted {
		result = "rejected"
	}
	s.frames.WithLabelValues(result).Inc()
	return nil
}

// RecordSubscriptions sets the registry occupancy gauges.
func (s *PromSink) RecordSubscriptions(active, pending int) error {
	s.subscriptions.WithLabelValues(model.Active.String()).Set(float64(active))
	s.subscriptions.WithLabelValues(model.Pending.String()).Set(float64(pending))
	return nil
}

// RecordFeedDrop counts a dropped update.
func (s *PromSink) RecordFeedDrop() error {
	s.drops.Inc()
	return nil
}
