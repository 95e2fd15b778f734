package mapview

import (
	"slices"
	"sync"
)

// ResetBus carries "reset map view" requests between components of one page.
type ResetBus struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

// NewResetBus creates an empty bus.
func NewResetBus() *ResetBus {
	return &ResetBus{subs: make(map[int]func())}
}

// Subscribe registers fn and returns a function that removes it.
func (b *ResetBus) Subscribe(fn func()) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Emit calls every subscriber in subscription order.
func (b *ResetBus) Emit() {
	b.mu.Lock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	fns := make([]func(), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, b.subs[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
