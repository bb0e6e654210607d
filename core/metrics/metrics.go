package metrics

import (
	"time"

	"github.com/kilianp07/livetrack/core/model"
)

// Sink records stream events for observability purposes.
type Sink interface {
	RecordConnectionEvent(ev model.ConnectionEvent) error
	RecordFrame(ev FrameEvent) error
}

// FrameEvent describes one inbound frame and whether it was published.
type FrameEvent struct {
	Topic    string
	Accepted bool
	Reason   string
	Time     time.Time
}

// SubscriptionRecorder records registry occupancy.
type SubscriptionRecorder interface {
	RecordSubscriptions(active, pending int) error
}

// FeedDropRecorder records updates dropped for a slow feed consumer.
type FeedDropRecorder interface {
	RecordFeedDrop() error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordConnectionEvent(model.ConnectionEvent) error { return nil }
func (NopSink) RecordFrame(FrameEvent) error                      { return nil }
func (NopSink) RecordSubscriptions(int, int) error                { return nil }
func (NopSink) RecordFeedDrop() error                             { return nil }
