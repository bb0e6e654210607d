package stream

import (
	"context"
	"errors"
	"sync"
)

const testPrefix = "/api/topic/locations/"

type fakeConn struct {
	mu      sync.Mutex
	subs    []string
	unsubs  []string
	closed  bool
	subErrs []error
}

func (c *fakeConn) Subscribe(_ context.Context, topic string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.subErrs) > 0 {
		err := c.subErrs[0]
		c.subErrs = c.subErrs[1:]
		if err != nil {
			return err
		}
	}
	c.subs = append(c.subs, topic)
	return nil
}

func (c *fakeConn) Unsubscribe(_ context.Context, topic string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unsubs = append(c.unsubs, topic)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) subscribed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.subs...)
}

func (c *fakeConn) unsubscribed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.unsubs...)
}

type fakeTransport struct {
	mu         sync.Mutex
	dials      int
	tokens     []string
	failNext   int
	alwaysFail bool
	conns      []*fakeConn
	handler    Handler
	subErrs    []error
}

func (t *fakeTransport) Dial(_ context.Context, token string, h Handler) (Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dials++
	t.tokens = append(t.tokens, token)
	if t.alwaysFail || t.failNext > 0 {
		t.failNext--
		return nil, errors.New("connection refused")
	}
	c := &fakeConn{subErrs: t.subErrs}
	t.subErrs = nil
	t.conns = append(t.conns, c)
	t.handler = h
	return c, nil
}

func (t *fakeTransport) setAlwaysFail(v bool) {
	t.mu.Lock()
	t.alwaysFail = v
	t.mu.Unlock()
}

func (t *fakeTransport) dialCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dials
}

func (t *fakeTransport) last() (*fakeConn, Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.conns) == 0 {
		return nil, Handler{}
	}
	return t.conns[len(t.conns)-1], t.handler
}

type fakeCreds struct {
	mu        sync.Mutex
	token     string
	refreshed string
	refreshes int
	err       error
}

func (c *fakeCreds) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *fakeCreds) RefreshIfNeeded(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshes++
	if c.err != nil {
		return "", c.err
	}
	if c.refreshed != "" {
		c.token = c.refreshed
	}
	return c.token, nil
}

func (c *fakeCreds) refreshCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshes
}

func ptr[T any](v T) *T { return &v }
