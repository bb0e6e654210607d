package stream

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/livetrack/core/model"
)

func TestRegistry_AddIsIdempotent(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.Add("o1"))
	assert.False(t, r.Add("o1"))
	assert.Len(t, r.Entries(), 1)
	st, ok := r.Get("o1")
	assert.True(t, ok)
	assert.Equal(t, model.Pending, st)
}

func TestRegistry_Lifecycle(t *testing.T) {
	r := NewRegistry()
	r.Add("b")
	r.Add("a")
	assert.True(t, r.MarkActive("a"))
	assert.False(t, r.MarkActive("missing"))

	active, pending := r.Counts()
	assert.Equal(t, 1, active)
	assert.Equal(t, 1, pending)
	assert.Equal(t, []model.SubscriptionEntry{
		{OrderID: "a", State: model.Active},
		{OrderID: "b", State: model.Pending},
	}, r.Entries())

	assert.Equal(t, 1, r.ResetAll())
	active, pending = r.Counts()
	assert.Equal(t, 0, active)
	assert.Equal(t, 2, pending)
	assert.Equal(t, []string{"a", "b"}, r.IDs())

	assert.True(t, r.Remove("a"))
	assert.False(t, r.Remove("a"))
	_, ok := r.Get("a")
	assert.False(t, ok)
}

func TestRegistry_ConcurrentAdd(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	added := make(chan bool, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			added <- r.Add("same")
		}()
	}
	wg.Wait()
	close(added)
	n := 0
	for ok := range added {
		if ok {
			n++
		}
	}
	assert.Equal(t, 1, n)
}
