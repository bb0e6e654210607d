package stomp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kilianp07/livetrack/core/monitoring"
	"github.com/kilianp07/livetrack/core/stream"
	"github.com/kilianp07/livetrack/infra/logger"
)

// Subprotocol is the WebSocket subprotocol for STOMP 1.2.
const Subprotocol = "v12.stomp"

// Transport dials STOMP brokers over WebSocket.
type Transport struct {
	cfg    Config
	dialer *websocket.Dialer
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
	d := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: time.Duration(cfg.HandshakeTimeoutMS) * time.Millisecond,
		Subprotocols:     []string{Subprotocol},
	}
	return &Transport{cfg: cfg, dialer: d, logger: log}, nil
}

// Dial opens the WebSocket, sends CONNECT with the bearer token and returns
// once CONNECTED arrived.
func (t *Transport) Dial(ctx context.Context, token string, h stream.Handler) (stream.Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	ws, _, err := t.dialer.DialContext(ctx, t.cfg.URL, header)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	hb := t.cfg.heartbeat()
	hbMS := strconv.FormatInt(hb.Milliseconds(), 10)
	connect := NewFrame(CmdConnect,
		"accept-version", "1.2",
		"host", t.cfg.Host,
		"heart-beat", hbMS+","+hbMS,
		"Authorization", "Bearer "+token,
	)
	if dl, ok := ctx.Deadline(); ok {
		_ = ws.SetWriteDeadline(dl)
		_ = ws.SetReadDeadline(dl)
	}
	if err := ws.WriteMessage(websocket.TextMessage, connect.Marshal()); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("send CONNECT: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { _ = ws.SetReadDeadline(time.Now()) })
	connected, err := awaitConnected(ws)
	stop()
	if err != nil {
		_ = ws.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	_ = ws.SetWriteDeadline(time.Time{})
	_ = ws.SetReadDeadline(time.Time{})

	sx, sy := parseHeartBeat(connected)
	c := &conn{
		ws:       ws,
		handler:  h,
		logger:   t.logger,
		out:      negotiate(hb, sy),
		in:       negotiate(hb, sx),
		pending:  make(map[string]chan error),
		subs:     make(map[string]string),
		done:     make(chan struct{}),
		clientID: uuid.NewString(),
	}
	t.logger.Infof("STOMP connected to %s (heartbeat out=%s in=%s)", t.cfg.URL, c.out, c.in)
	go c.readLoop()
	if c.out > 0 {
		go c.heartbeatLoop()
	}
	return c, nil
}

func awaitConnected(ws *websocket.Conn) (*Frame, error) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("await CONNECTED: %w", err)
		}
		frames, err := Parse(data)
		if err != nil {
			return nil, err
		}
		for _, f := range frames {
			switch f.Command {
			case CmdConnected:
				return f, nil
			case CmdError:
				return nil, frameError(f)
			}
		}
	}
}

// parseHeartBeat returns the sx,sy values of a CONNECTED frame.
func parseHeartBeat(f *Frame) (time.Duration, time.Duration) {
	v, ok := f.Get("heart-beat")
	if !ok {
		return 0, 0
	}
	a, b, _ := strings.Cut(v, ",")
	sx, _ := strconv.Atoi(strings.TrimSpace(a))
	sy, _ := strconv.Atoi(strings.TrimSpace(b))
	return time.Duration(sx) * time.Millisecond, time.Duration(sy) * time.Millisecond
}

// negotiate applies the heart-beat rule: zero on either side disables,
// otherwise the larger interval wins.
func negotiate(client, server time.Duration) time.Duration {
	if client <= 0 || server <= 0 {
		return 0
	}
	return max(client, server)
}

func frameError(f *Frame) error {
	msg, _ := f.Get("message")
	if len(f.Body) > 0 {
		msg = strings.TrimSpace(msg + " " + string(f.Body))
	}
	return fmt.Errorf("broker error: %s", msg)
}

type conn struct {
	ws       *websocket.Conn
	handler  stream.Handler
	logger   logger.Logger
	out, in  time.Duration
	clientID string

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan error
	subs    map[string]string
	seq     int
	closed  bool
	gone    bool
	done    chan struct{}
}

func (c *conn) write(f *Frame) error {
	return c.writeRaw(f.Marshal())
}

func (c *conn) writeRaw(b []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

// request sends f with a receipt header and waits for the matching RECEIPT.
func (c *conn) request(ctx context.Context, f *Frame) error {
	receipt := uuid.NewString()
	ch := make(chan error, 1)
	c.mu.Lock()
	if c.closed || c.gone {
		c.mu.Unlock()
		return stream.ErrNotConnected
	}
	c.pending[receipt] = ch
	c.mu.Unlock()
	f.Headers = append(f.Headers, [2]string{"receipt", receipt})
	if err := c.write(f); err != nil {
		c.forget(receipt)
		return err
	}
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		c.forget(receipt)
		return ctx.Err()
	case <-c.done:
		return stream.ErrNotConnected
	}
}

func (c *conn) forget(receipt string) {
	c.mu.Lock()
	delete(c.pending, receipt)
	c.mu.Unlock()
}

func (c *conn) Subscribe(ctx context.Context, topic string) error {
	c.mu.Lock()
	if _, ok := c.subs[topic]; ok {
		c.mu.Unlock()
		return nil
	}
	c.seq++
	id := c.clientID + "-" + strconv.Itoa(c.seq)
	c.mu.Unlock()
	if err := c.request(ctx, NewFrame(CmdSubscribe, "id", id, "destination", topic, "ack", "auto")); err != nil {
		return err
	}
	c.mu.Lock()
	c.subs[topic] = id
	c.mu.Unlock()
	return nil
}

func (c *conn) Unsubscribe(ctx context.Context, topic string) error {
	c.mu.Lock()
	id, ok := c.subs[topic]
	delete(c.subs, topic)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return c.request(ctx, NewFrame(CmdUnsubscribe, "id", id))
}

func (c *conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	alive := !c.gone
	c.mu.Unlock()
	if alive {
		_ = c.write(NewFrame(CmdDisconnect))
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
	}
	c.shutdown()
	return nil
}

func (c *conn) shutdown() {
	c.mu.Lock()
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.mu.Unlock()
	_ = c.ws.Close()
}

func (c *conn) lost(err error) {
	c.mu.Lock()
	if c.closed || c.gone {
		c.mu.Unlock()
		return
	}
	c.gone = true
	c.mu.Unlock()
	c.shutdown()
	c.logger.Errorf("connection lost: %v", err)
	if c.handler.OnLost != nil {
		c.handler.OnLost(err)
	}
}

func (c *conn) readLoop() {
	defer monitoring.Recover()
	for {
		if c.in > 0 {
			_ = c.ws.SetReadDeadline(time.Now().Add(2 * c.in))
		}
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				err = fmt.Errorf("%w: nothing received for %s", stream.ErrHeartbeatTimeout, 2*c.in)
			}
			c.lost(err)
			return
		}
		frames, err := Parse(data)
		if err != nil {
			c.logger.Warnf("dropping unparsable STOMP data: %v", err)
		}
		for _, f := range frames {
			c.dispatch(f)
		}
	}
}

func (c *conn) dispatch(f *Frame) {
	switch f.Command {
	case CmdMessage:
		dest, _ := f.Get("destination")
		if c.handler.OnFrame != nil {
			c.handler.OnFrame(dest, f.Body)
		}
	case CmdReceipt:
		id, _ := f.Get("receipt-id")
		c.resolve(id, nil)
	case CmdError:
		err := frameError(f)
		if id, ok := f.Get("receipt-id"); ok && c.resolve(id, err) {
			return
		}
		// The broker closes the connection after an ERROR frame.
		c.lost(err)
	default:
		c.logger.Debugf("ignoring STOMP %s frame", f.Command)
	}
}

func (c *conn) resolve(receipt string, err error) bool {
	c.mu.Lock()
	ch, ok := c.pending[receipt]
	delete(c.pending, receipt)
	c.mu.Unlock()
	if ok {
		ch <- err
	}
	return ok
}

func (c *conn) heartbeatLoop() {
	defer monitoring.Recover()
	t := time.NewTicker(c.out)
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-t.C:
			if err := c.writeRaw([]byte("\n")); err != nil {
				c.lost(err)
				return
			}
		}
	}
}
