package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/livetrack/core/model"
	"github.com/kilianp07/livetrack/core/stream"
	"github.com/kilianp07/livetrack/infra/auth"
	"github.com/kilianp07/livetrack/infra/logger"
	"github.com/kilianp07/livetrack/infra/mqtt"
	"github.com/kilianp07/livetrack/simulator"
	"github.com/kilianp07/livetrack/test/util"
)

const prefix = "delivery/locations/"

func TestStreaming_MosquittoEndToEnd(t *testing.T) {
	if !util.DockerAvailable() {
		t.Skip("docker not available")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker, cleanup, err := util.StartMosquitto(ctx)
	require.NoError(t, err)
	defer cleanup()

	cfg := mqtt.Config{Broker: broker, ClientID: "it-consumer", QoS: 1}
	tr, err := mqtt.NewTransport(cfg, logger.New("mqtt"))
	require.NoError(t, err)

	feed := stream.NewDispatcher(16, nil)
	defer feed.Close()
	mgr, err := stream.NewManager(tr, stream.Config{TopicPrefix: prefix, BaseDelayMS: 200},
		stream.WithLogger(logger.New("stream")), stream.WithPublisher(feed))
	require.NoError(t, err)
	defer func() { _ = mgr.Close() }()
	mux := stream.NewMultiplexer(mgr)

	require.NoError(t, mux.Track("order-1"))
	require.NoError(t, mgr.Connect(ctx, auth.NewStatic("tok")))
	require.Eventually(t, func() bool {
		st, ok := mux.Status("order-1")
		return ok && st == model.Active
	}, 10*time.Second, 50*time.Millisecond)

	pub, err := mqtt.NewPublisher(ctx, mqtt.Config{Broker: broker, ClientID: "it", QoS: 1}, prefix, "tok")
	require.NoError(t, err)
	defer func() { _ = pub.Close() }()

	lat, lon := simulator.DefaultSourceLat, simulator.DefaultSourceLon
	sim, err := simulator.New(simulator.Config{
		IntervalMS:   50,
		SpeedDegrees: 0.01,
		Orders: []simulator.OrderConfig{
			{ID: "order-1", SrcLat: &lat, SrcLon: &lon, DesLat: lat + 0.02, DesLon: lon},
			{ID: "order-2", DesLat: lat, DesLon: lon + 0.02},
		},
	}, pub, logger.New("simulator"))
	require.NoError(t, err)

	own := stream.FilterByOrder(ctx, feed.SubscribeAll(), "order-1")
	go func() { _ = sim.Run(ctx) }()

	var last model.LocationUpdate
	for last.Status != model.StatusDelivered {
		select {
		case u, ok := <-own:
			require.True(t, ok)
			assert.Equal(t, "order-1", u.VehicleID)
			last = u
		case <-ctx.Done():
			t.Fatal("order-1 was never delivered")
		}
	}
	assert.InDelta(t, lat+0.02, last.CurrentLat, 1e-4)
}
