package metrics

import (
	"errors"
	"testing"

	"github.com/kilianp07/livetrack/core/model"
)

type recordSink struct {
	events int
	frames int
	subs   int
	drops  int
	err    error
}

func (r *recordSink) RecordConnectionEvent(model.ConnectionEvent) error {
	r.events++
	return r.err
}

func (r *recordSink) RecordFrame(FrameEvent) error {
	r.frames++
	return r.err
}

func (r *recordSink) RecordSubscriptions(int, int) error {
	r.subs++
	return nil
}

func (r *recordSink) RecordFeedDrop() error {
	r.drops++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2, NopSink{})
	if err := m.RecordConnectionEvent(model.ConnectionEvent{To: model.Connected}); err != nil {
		t.Fatalf("record event: %v", err)
	}
	if err := m.RecordFrame(FrameEvent{Accepted: true}); err != nil {
		t.Fatalf("record frame: %v", err)
	}
	if err := m.RecordSubscriptions(1, 2); err != nil {
		t.Fatalf("record subs: %v", err)
	}
	if err := m.RecordFeedDrop(); err != nil {
		t.Fatalf("record drop: %v", err)
	}
	for _, s := range []*recordSink{s1, s2} {
		if s.events != 1 || s.frames != 1 || s.subs != 1 || s.drops != 1 {
			t.Fatalf("records not forwarded: %+v", s)
		}
	}
}

func TestMultiSink_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	s1 := &recordSink{err: boom}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordFrame(FrameEvent{}); !errors.Is(err, boom) {
		t.Fatalf("expected boom got %v", err)
	}
	if s2.frames != 0 {
		t.Fatalf("second sink should not be called")
	}
}
