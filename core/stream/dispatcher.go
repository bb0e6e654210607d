package stream

import (
	"context"

	"github.com/kilianp07/livetrack/core/model"
	"github.com/kilianp07/livetrack/internal/eventbus"
)

// Dispatcher republishes decoded updates on one shared live feed. It does not
// know about order ids; consumers filter what they need.
type Dispatcher struct {
	bus *eventbus.TypedBus[model.LocationUpdate]
}

// NewDispatcher creates a Dispatcher whose consumers each get a queue of
// buffer updates. onDrop, when set, is called for every update a full
// consumer queue had to skip.
func NewDispatcher(buffer int, onDrop func()) *Dispatcher {
	opts := []eventbus.Option{eventbus.WithBuffer(buffer)}
	if onDrop != nil {
		opts = append(opts, eventbus.WithDropHandler(onDrop))
	}
	return &Dispatcher{bus: eventbus.NewTyped[model.LocationUpdate](opts...)}
}

// Publish delivers u to every current consumer without blocking.
func (d *Dispatcher) Publish(u model.LocationUpdate) { d.bus.Publish(u) }

// SubscribeAll returns a live feed. Updates published earlier are not replayed.
func (d *Dispatcher) SubscribeAll() <-chan model.LocationUpdate { return d.bus.Subscribe() }

// Unsubscribe releases a feed returned by SubscribeAll.
func (d *Dispatcher) Unsubscribe(ch <-chan model.LocationUpdate) { d.bus.Unsubscribe(ch) }

// Close closes every feed.
func (d *Dispatcher) Close() { d.bus.Close() }

// FilterByOrder forwards the updates of feed that belong to orderID until ctx
// is done or feed is closed.
func FilterByOrder(ctx context.Context, feed <-chan model.LocationUpdate, orderID string) <-chan model.LocationUpdate {
	out := make(chan model.LocationUpdate, cap(feed))
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case u, ok := <-feed:
				if !ok {
					return
				}
				if u.VehicleID != orderID {
					continue
				}
				select {
				case out <- u:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
