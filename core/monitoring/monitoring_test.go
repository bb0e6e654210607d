package monitoring

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type panicMonitor struct {
	NopMonitor
	mu  sync.Mutex
	got any
}

func (m *panicMonitor) Recover(r any) {
	m.mu.Lock()
	m.got = r
	m.mu.Unlock()
}

func TestRecover_ReportsAndRepanics(t *testing.T) {
	mon := &panicMonitor{}
	Init(mon)
	t.Cleanup(func() { current = NopMonitor{} })

	var repanic any
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() { repanic = recover() }()
		defer Recover()
		panic("observer failed")
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not finish")
	}

	mon.mu.Lock()
	defer mon.mu.Unlock()
	assert.Equal(t, "observer failed", mon.got)
	assert.Equal(t, "observer failed", repanic)
}

func TestRecover_NoPanic(t *testing.T) {
	mon := &panicMonitor{}
	Init(mon)
	t.Cleanup(func() { current = NopMonitor{} })

	func() {
		defer Recover()
	}()
	assert.Nil(t, mon.got)
}
