package stream

import (
	"context"

	"github.com/kilianp07/livetrack/core/metrics"
	"github.com/kilianp07/livetrack/core/model"
)

// Multiplexer maps tracked order ids onto broker topics over the Manager's
// single connection. Track and Untrack only record intent in the Registry
// and return; the actual broker operations run on the Manager's loop.
type Multiplexer struct {
	mgr    *Manager
	reg    *Registry
	prefix string

	// loop owned: order ids subscribed on the current connection
	subscribed map[string]bool
}

// NewMultiplexer attaches a Multiplexer to mgr.
func NewMultiplexer(mgr *Manager) *Multiplexer {
	x := &Multiplexer{
		mgr:        mgr,
		reg:        NewRegistry(),
		prefix:     mgr.cfg.TopicPrefix,
		subscribed: make(map[string]bool),
	}
	mgr.addLinkHooks(x.replay, x.reset)
	return x
}

// Topic returns the broker topic of an order id.
func (x *Multiplexer) Topic(orderID string) string { return TopicFor(x.prefix, orderID) }

// Track registers interest in orderID. Calling it again for the same id is a
// no-op. When connected the subscribe is issued right away, otherwise the
// entry stays Pending until the next Connected transition.
func (x *Multiplexer) Track(orderID string) error {
	if orderID == "" {
		return ErrEmptyOrderID
	}
	if !x.reg.Add(orderID) {
		return nil
	}
	x.mgr.post(func() { x.reconcile(orderID) })
	return nil
}

// Untrack removes interest in orderID and unsubscribes when needed. Updates
// already dispatched for the id may still reach consumers.
func (x *Multiplexer) Untrack(orderID string) {
	if !x.reg.Remove(orderID) {
		return
	}
	x.mgr.post(func() { x.reconcile(orderID) })
}

// Status returns the registry state of orderID.
func (x *Multiplexer) Status(orderID string) (model.SubscriptionState, bool) {
	return x.reg.Get(orderID)
}

// Snapshot lists every registry entry ordered by id.
func (x *Multiplexer) Snapshot() []model.SubscriptionEntry { return x.reg.Entries() }

// reconcile aligns the broker subscription of one id with the registry.
// It runs on the Manager loop.
func (x *Multiplexer) reconcile(id string) {
	defer x.record()
	conn := x.mgr.conn
	if conn == nil || x.mgr.State() != model.Connected {
		return
	}
	st, tracked := x.reg.Get(id)
	switch {
	case tracked && !x.subscribed[id]:
		topic := x.Topic(id)
		ctx, cancel := context.WithTimeout(context.Background(), x.mgr.cfg.SubscribeTimeout)
		err := conn.Subscribe(ctx, topic)
		cancel()
		if err != nil {
			// Left Pending; replayed on the next Connected transition.
			x.mgr.log.Errorf("%v", &BrokerError{Topic: topic, Err: err})
			return
		}
		x.subscribed[id] = true
		if x.reg.MarkActive(id) {
			x.mgr.log.Debugf("subscribed %s", topic)
		}
	case tracked && st == model.Pending:
		x.reg.MarkActive(id)
	case !tracked && x.subscribed[id]:
		delete(x.subscribed, id)
		topic := x.Topic(id)
		ctx, cancel := context.WithTimeout(context.Background(), x.mgr.cfg.SubscribeTimeout)
		defer cancel()
		if err := conn.Unsubscribe(ctx, topic); err != nil {
			x.mgr.log.Warnf("%v", &BrokerError{Topic: topic, Err: err})
		}
	}
}

// replay subscribes every Pending entry after a Connected transition.
func (x *Multiplexer) replay() {
	for _, id := range x.reg.IDs() {
		if st, ok := x.reg.Get(id); ok && st == model.Pending {
			x.reconcile(id)
		}
	}
}

// reset runs before the connection goes away: nothing survives at the
// transport level, so every entry goes back to Pending.
func (x *Multiplexer) reset() {
	x.subscribed = make(map[string]bool)
	if n := x.reg.ResetAll(); n > 0 {
		x.mgr.log.Infof("%d subscriptions pending replay", n)
	}
	x.record()
}

func (x *Multiplexer) record() {
	rec, ok := x.mgr.sink.(metrics.SubscriptionRecorder)
	if !ok {
		return
	}
	active, pending := x.reg.Counts()
	if err := rec.RecordSubscriptions(active, pending); err != nil {
		x.mgr.log.Errorf("metrics error: %v", err)
	}
}
