package metrics

import "github.com/kilianp07/livetrack/core/model"

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordConnectionEvent forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordConnectionEvent(ev model.ConnectionEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordConnectionEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordFrame forwards frame events.
func (m *MultiSink) RecordFrame(ev FrameEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordFrame(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordSubscriptions forwards registry counts when supported by the sink.
func (m *MultiSink) RecordSubscriptions(active, pending int) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SubscriptionRecorder); ok {
			if err := rec.RecordSubscriptions(active, pending); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordFeedDrop forwards feed drops when supported by the sink.
func (m *MultiSink) RecordFeedDrop() error {
	for _, s := range m.Sinks {
		if rec, ok := s.(FeedDropRecorder); ok {
			if err := rec.RecordFeedDrop(); err != nil {
				return err
			}
		}
	}
	return nil
}
