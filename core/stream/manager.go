package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/livetrack/core/codec"
	"github.com/kilianp07/livetrack/core/logger"
	"github.com/kilianp07/livetrack/core/metrics"
	"github.com/kilianp07/livetrack/core/model"
	"github.com/kilianp07/livetrack/core/monitoring"
	"github.com/kilianp07/livetrack/internal/eventbus"
)

// Publisher receives decoded updates from the frame handler.
type Publisher interface {
	Publish(u model.LocationUpdate)
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithSink sets the metrics sink.
func WithSink(s metrics.Sink) Option {
	return func(m *Manager) {
		if s != nil {
			m.sink = s
		}
	}
}

// WithPublisher sets where decoded updates go.
func WithPublisher(p Publisher) Option {
	return func(m *Manager) { m.pub = p }
}

// Manager owns the broker connection. Every state transition, dial result,
// retry and subscription change runs on a single loop goroutine; public
// methods hand work to it through a mailbox.
type Manager struct {
	cfg       Config
	transport Transport
	log       logger.Logger
	sink      metrics.Sink
	pub       Publisher
	events    *eventbus.TypedBus[model.ConnectionEvent]

	box      *mailbox
	notifier *mailbox
	quit     chan struct{}
	closing  sync.Once

	// loop owned
	creds      CredentialsProvider
	token      string
	conn       Conn
	attempt    int
	refreshed  bool
	gen        uint64
	cancelDial context.CancelFunc
	retry      *time.Timer
	waiters    []chan error
	linkUp     []func()
	linkDown   []func()

	mu             sync.RWMutex
	state          model.ConnectionState
	onConnected    []func()
	onDisconnected []func(error)
	onError        []func(error)
}

// NewManager creates a Manager in the Disconnected state and starts its loop.
func NewManager(t Transport, cfg Config, opts ...Option) (*Manager, error) {
	if t == nil {
		return nil, fmt.Errorf("stream: nil transport")
	}
	cfg.SetDefaults()
	m := &Manager{
		cfg:       cfg,
		transport: t,
		log:       logger.NopLogger{},
		sink:      metrics.NopSink{},
		events:    eventbus.NewTyped[model.ConnectionEvent](eventbus.WithBuffer(32)),
		box:       newMailbox(),
		notifier:  newMailbox(),
		quit:      make(chan struct{}),
		state:     model.Disconnected,
	}
	for _, opt := range opts {
		opt(m)
	}
	go func() {
		defer monitoring.Recover()
		m.box.run(m.quit)
	}()
	go func() {
		defer monitoring.Recover()
		m.notifier.run(m.quit)
	}()
	return m, nil
}

// State returns the current connection state.
func (m *Manager) State() model.ConnectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// OnConnected registers a callback invoked on every transition to Connected.
func (m *Manager) OnConnected(f func()) {
	m.mu.Lock()
	m.onConnected = append(m.onConnected, f)
	m.mu.Unlock()
}

// OnDisconnected registers a callback invoked when the connection leaves
// Connected and whenever the manager enters Disconnected.
func (m *Manager) OnDisconnected(f func(error)) {
	m.mu.Lock()
	m.onDisconnected = append(m.onDisconnected, f)
	m.mu.Unlock()
}

// OnError registers a callback invoked on terminal failures.
func (m *Manager) OnError(f func(error)) {
	m.mu.Lock()
	m.onError = append(m.onError, f)
	m.mu.Unlock()
}

// Events subscribes to connection transitions.
func (m *Manager) Events() <-chan model.ConnectionEvent { return m.events.Subscribe() }

// UnsubscribeEvents releases a channel returned by Events.
func (m *Manager) UnsubscribeEvents(ch <-chan model.ConnectionEvent) { m.events.Unsubscribe(ch) }

// Connect establishes the connection using the token from creds. It returns
// ErrAuthUnavailable at once when creds has no token. Otherwise it blocks
// until Connected, until the retry budget is exhausted or until ctx is done;
// a done ctx only abandons the wait.
func (m *Manager) Connect(ctx context.Context, creds CredentialsProvider) error {
	if creds == nil {
		return ErrAuthUnavailable
	}
	res := make(chan error, 1)
	if !m.post(func() { m.startConnect(creds, res) }) {
		return ErrClosed
	}
	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Disconnect tears the connection down, cancels pending reconnection
// attempts and clears the retry counter. It is idempotent.
func (m *Manager) Disconnect() {
	done := make(chan struct{})
	if !m.post(func() {
		m.teardown()
		close(done)
	}) {
		return
	}
	select {
	case <-done:
	case <-m.quit:
	}
}

// Close disconnects and stops the loop.
func (m *Manager) Close() error {
	m.Disconnect()
	m.closing.Do(func() {
		close(m.quit)
		m.events.Close()
	})
	return nil
}

func (m *Manager) post(fn func()) bool {
	select {
	case <-m.quit:
		return false
	default:
	}
	m.box.put(fn)
	return true
}

// addLinkHooks registers loop-side callbacks run right after Connected and
// right before leaving it.
func (m *Manager) addLinkHooks(up, down func()) {
	m.post(func() {
		m.linkUp = append(m.linkUp, up)
		m.linkDown = append(m.linkDown, down)
	})
}

func (m *Manager) startConnect(creds CredentialsProvider, res chan error) {
	switch m.State() {
	case model.Connected:
		res <- nil
		return
	case model.Connecting, model.Reconnecting:
		m.waiters = append(m.waiters, res)
		return
	}
	token := creds.Token()
	if token == "" {
		m.log.Errorf("connect: no token available")
		res <- ErrAuthUnavailable
		return
	}
	m.creds = creds
	m.token = token
	m.attempt = 0
	m.refreshed = false
	m.waiters = append(m.waiters, res)
	m.dial()
}

func (m *Manager) dial() {
	m.gen++
	gen := m.gen
	m.setState(model.Connecting, nil)
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.DialTimeout)
	m.cancelDial = cancel
	h := Handler{
		OnFrame: m.handleFrame,
		OnLost: func(err error) {
			m.post(func() { m.lost(gen, err) })
		},
	}
	token := m.token
	go func() {
		conn, err := m.transport.Dial(ctx, token, h)
		cancel()
		if !m.post(func() { m.dialed(gen, conn, err) }) && conn != nil {
			_ = conn.Close()
		}
	}()
}

func (m *Manager) dialed(gen uint64, conn Conn, err error) {
	if gen != m.gen {
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	m.cancelDial = nil
	if err != nil {
		m.log.Warnf("dial attempt failed: %v", err)
		m.fail(&TransportError{Err: err})
		return
	}
	m.conn = conn
	m.attempt = 0
	m.refreshed = false
	m.setState(model.Connected, nil)
	m.resolve(nil)
	for _, f := range m.linkUp {
		f()
	}
}

func (m *Manager) lost(gen uint64, err error) {
	if gen != m.gen || m.State() != model.Connected {
		return
	}
	m.log.Warnf("connection lost: %v", err)
	m.dropLink()
	m.attempt = 0
	m.refreshed = false
	m.fail(&TransportError{Err: err})
}

// fail counts one consecutive failure and either schedules the next attempt
// with linear backoff or gives up.
func (m *Manager) fail(cause error) {
	if !m.refreshToken() {
		return
	}
	m.attempt++
	if m.attempt > m.cfg.retries() {
		err := fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, m.attempt, cause)
		m.terminal(err)
		return
	}
	m.setState(model.Reconnecting, cause)
	delay := time.Duration(m.attempt) * m.cfg.BaseDelay
	gen := m.gen
	m.log.Infof("reconnecting in %s (attempt %d/%d)", delay, m.attempt, m.cfg.retries())
	m.retry = time.AfterFunc(delay, func() {
		m.post(func() {
			if gen == m.gen && m.State() == model.Reconnecting {
				m.retry = nil
				m.dial()
			}
		})
	})
}

// refreshToken runs once per reconnect cycle. It reports false when the
// cycle was aborted because no token is available.
func (m *Manager) refreshToken() bool {
	if m.refreshed || m.creds == nil {
		return true
	}
	m.refreshed = true
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.DialTimeout)
	defer cancel()
	token, err := m.creds.RefreshIfNeeded(ctx)
	if err != nil {
		m.log.Warnf("token refresh failed: %v", err)
	}
	if token != "" {
		m.token = token
		return true
	}
	if m.token == "" || errors.Is(err, ErrAuthUnavailable) {
		m.terminal(fmt.Errorf("%w: %v", ErrAuthUnavailable, err))
		return false
	}
	return true
}

func (m *Manager) terminal(err error) {
	m.log.Errorf("live tracking unavailable: %v", err)
	monitoring.CaptureException(err, map[string]string{"module": "stream"})
	m.setState(model.Disconnected, err)
	m.attempt = 0
	m.resolve(err)
	m.mu.RLock()
	cbs := append([]func(error){}, m.onError...)
	m.mu.RUnlock()
	m.notifier.put(func() {
		for _, f := range cbs {
			f(err)
		}
	})
}

func (m *Manager) teardown() {
	m.gen++
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
	if m.cancelDial != nil {
		m.cancelDial()
		m.cancelDial = nil
	}
	m.dropLink()
	m.attempt = 0
	m.refreshed = false
	if m.State() != model.Disconnected {
		m.setState(model.Disconnected, nil)
	}
	m.resolve(ErrDisconnected)
}

// dropLink closes the current connection and runs the link-down hooks.
func (m *Manager) dropLink() {
	if m.conn == nil {
		return
	}
	for _, f := range m.linkDown {
		f()
	}
	if err := m.conn.Close(); err != nil {
		m.log.Debugf("close connection: %v", err)
	}
	m.conn = nil
}

func (m *Manager) resolve(err error) {
	for _, w := range m.waiters {
		w <- err
	}
	m.waiters = nil
}

func (m *Manager) setState(to model.ConnectionState, cause error) {
	m.mu.Lock()
	from := m.state
	m.state = to
	connected := append([]func(){}, m.onConnected...)
	disconnected := append([]func(error){}, m.onDisconnected...)
	m.mu.Unlock()
	if from == to {
		return
	}
	ev := model.ConnectionEvent{From: from, To: to, Attempt: m.attempt, Err: cause, Time: time.Now()}
	m.log.Infof("connection %s -> %s", from, to)
	m.events.Publish(ev)
	if err := m.sink.RecordConnectionEvent(ev); err != nil {
		m.log.Errorf("metrics error: %v", err)
	}
	switch {
	case to == model.Connected:
		m.notifier.put(func() {
			for _, f := range connected {
				f()
			}
		})
	case from == model.Connected || to == model.Disconnected:
		m.notifier.put(func() {
			for _, f := range disconnected {
				f(cause)
			}
		})
	}
}

// handleFrame runs on the transport's read goroutine. A bad frame is dropped
// and logged; it never affects the connection.
func (m *Manager) handleFrame(topic string, payload []byte) {
	u, err := codec.Decode(payload)
	ev := metrics.FrameEvent{Topic: topic, Accepted: err == nil, Time: time.Now()}
	if err != nil {
		ev.Reason = err.Error()
		m.log.Warnf("dropping frame on %s: %v", topic, err)
	}
	if rerr := m.sink.RecordFrame(ev); rerr != nil {
		m.log.Errorf("metrics error: %v", rerr)
	}
	if err != nil || m.pub == nil {
		return
	}
	m.pub.Publish(u)
}
