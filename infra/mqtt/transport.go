package mqtt

import (
	"context"
	"fmt"
	"strings"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/livetrack/core/stream"
	"github.com/kilianp07/livetrack/infra/logger"
)

// subscribeFailure is the SUBACK return code of a rejected subscription.
const subscribeFailure = 0x80

// Transport dials MQTT brokers with Paho. Every Dial creates a fresh client
// with a clean session, so nothing survives a reconnect.
type Transport struct {
	cfg    Config
	logger logger.Logger
}

// NewTransport validates cfg and returns a Transport.
func NewTransport(cfg Config, log logger.Logger) (*Transport, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Transport{cfg: cfg, logger: log}, nil
}

// Dial connects with the bearer token and returns once the broker sent CONNACK.
func (t *Transport) Dial(ctx context.Context, token string, h stream.Handler) (stream.Conn, error) {
	opts, err := NewClientOptions(t.cfg, token)
	if err != nil {
		return nil, err
	}
	c := &conn{qos: t.cfg.QoS, handler: h, logger: t.logger}
	opts.OnConnectionLost = func(_ paho.Client, err error) { c.lost(err) }
	cli := newMQTTClient(opts)
	if err := wait(ctx, cli.Connect()); err != nil {
		cli.Disconnect(0)
		return nil, err
	}
	c.cli = cli
	t.logger.Infof("MQTT connected to %s", t.cfg.Broker)
	return c, nil
}

type conn struct {
	cli     pahoClient
	qos     byte
	handler stream.Handler
	logger  logger.Logger

	mu     sync.Mutex
	closed bool
	gone   bool
}

func (c *conn) Subscribe(ctx context.Context, topic string) error {
	tok := c.cli.Subscribe(topic, c.qos, c.onMessage)
	if err := wait(ctx, tok); err != nil {
		return err
	}
	if st, ok := tok.(*paho.SubscribeToken); ok {
		if code, ok := st.Result()[topic]; ok && code == subscribeFailure {
			return fmt.Errorf("subscription to %s rejected", topic)
		}
	}
	return nil
}

func (c *conn) Unsubscribe(ctx context.Context, topic string) error {
	return wait(ctx, c.cli.Unsubscribe(topic))
}

func (c *conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	if c.cli.IsConnected() {
		c.cli.Disconnect(250)
	}
	return nil
}

func (c *conn) onMessage(_ paho.Client, msg paho.Message) {
	if c.handler.OnFrame != nil {
		c.handler.OnFrame(msg.Topic(), msg.Payload())
	}
}

func (c *conn) lost(err error) {
	c.mu.Lock()
	if c.closed || c.gone {
		c.mu.Unlock()
		return
	}
	c.gone = true
	c.mu.Unlock()
	// Paho reports a missed PINGRESP with a plain error.
	if err != nil && strings.Contains(err.Error(), "pingresp") {
		err = fmt.Errorf("%w: %v", stream.ErrHeartbeatTimeout, err)
	}
	c.logger.Errorf("connection lost: %v", err)
	if c.handler.OnLost != nil {
		c.handler.OnLost(err)
	}
}

// wait blocks until tok completes or ctx is done.
func wait(ctx context.Context, tok paho.Token) error {
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
