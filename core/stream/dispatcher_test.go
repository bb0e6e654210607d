package stream

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/livetrack/core/model"
)

func TestDispatcher_NoReplay(t *testing.T) {
	d := NewDispatcher(4, nil)
	defer d.Close()
	d.Publish(model.LocationUpdate{VehicleID: "early"})

	feed := d.SubscribeAll()
	d.Publish(model.LocationUpdate{VehicleID: "late"})
	u := <-feed
	assert.Equal(t, "late", u.VehicleID)
	select {
	case u := <-feed:
		t.Fatalf("unexpected %s", u.VehicleID)
	default:
	}
}

func TestDispatcher_SlowConsumerDrops(t *testing.T) {
	var drops atomic.Int32
	d := NewDispatcher(1, func() { drops.Add(1) })
	defer d.Close()
	slow := d.SubscribeAll()
	fast := d.SubscribeAll()

	d.Publish(model.LocationUpdate{VehicleID: "1"})
	<-fast
	d.Publish(model.LocationUpdate{VehicleID: "2"})
	<-fast

	assert.Equal(t, int32(1), drops.Load())
	assert.Equal(t, "1", (<-slow).VehicleID)
}

func TestDispatcher_CloseEndsFeeds(t *testing.T) {
	d := NewDispatcher(1, nil)
	feed := d.SubscribeAll()
	d.Close()
	_, ok := <-feed
	assert.False(t, ok)
}

func TestFilterByOrder(t *testing.T) {
	d := NewDispatcher(8, nil)
	defer d.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := FilterByOrder(ctx, d.SubscribeAll(), "B")

	d.Publish(model.LocationUpdate{VehicleID: "A"})
	d.Publish(model.LocationUpdate{VehicleID: "B", Status: model.StatusDelivered})

	select {
	case u := <-out:
		assert.Equal(t, "B", u.VehicleID)
		assert.Equal(t, model.StatusDelivered, u.Status)
	case <-time.After(time.Second):
		t.Fatal("filtered update not delivered")
	}
	cancel()
	require.Eventually(t, func() bool {
		_, ok := <-out
		return !ok
	}, time.Second, 5*time.Millisecond)
}
