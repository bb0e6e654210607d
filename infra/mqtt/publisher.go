package mqtt

import (
	"context"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/livetrack/core/codec"
	"github.com/kilianp07/livetrack/core/model"
	"github.com/kilianp07/livetrack/core/monitoring"
	"github.com/kilianp07/livetrack/core/stream"
	"github.com/kilianp07/livetrack/infra/logger"
)

// Publisher emits location frames on the per-order topics. It is the producer
// side used by the simulator.
type Publisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	maxRetries int
	backoff    time.Duration
	logger     logger.Logger
}

// NewPublisher connects a publishing client to the broker.
func NewPublisher(ctx context.Context, cfg Config, prefix, token string) (*Publisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg, token)
	if err != nil {
		return nil, err
	}
	opts.SetClientID(cfg.ClientID + "-publisher")
	opts.SetAutoReconnect(true)
	log := logger.New("mqtt_publisher")
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if err := wait(ctx, c.Connect()); err != nil {
		return nil, err
	}
	return &Publisher{
		cli:        c,
		prefix:     prefix,
		qos:        cfg.QoS,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		logger:     log,
	}, nil
}

// PublishLocation encodes u and publishes it on the topic of its order,
// retrying with linear backoff.
func (p *Publisher) PublishLocation(ctx context.Context, u model.LocationUpdate) error {
	topic := stream.TopicFor(p.prefix, u.VehicleID)
	payload := codec.Encode(u)
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		publishErr = wait(ctx, p.cli.Publish(topic, p.qos, false, payload))
		if publishErr == nil {
			p.logger.Debugf("published %s to %s", u.Status, topic)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		select {
		case <-time.After(p.backoff * time.Duration(attempt+1)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	monitoring.CaptureException(publishErr, map[string]string{"module": "mqtt", "order_id": u.VehicleID})
	return publishErr
}

// Close gracefully closes the MQTT connection.
func (p *Publisher) Close() error {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
	return nil
}
