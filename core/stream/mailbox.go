package stream

import "sync"

// mailbox is an unbounded FIFO of closures. put never blocks, so callers on
// consumer goroutines can hand work to the owning goroutine without waiting.
type mailbox struct {
	mu     sync.Mutex
	queue  []func()
	signal chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{signal: make(chan struct{}, 1)}
}

func (m *mailbox) put(fn func()) {
	m.mu.Lock()
	m.queue = append(m.queue, fn)
	m.mu.Unlock()
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

func (m *mailbox) drain() []func() {
	m.mu.Lock()
	q := m.queue
	m.queue = nil
	m.mu.Unlock()
	return q
}

// run executes queued closures in order until quit is closed.
func (m *mailbox) run(quit <-chan struct{}) {
	for {
		select {
		case <-quit:
			return
		case <-m.signal:
			for _, fn := range m.drain() {
				fn()
			}
		}
	}
}
