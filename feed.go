package makefoods

import (
	"sync"
	"sync/atomic"
)

// Feed holds the latest value of some observable state and fans it out to
// subscribers. Slow subscribers only ever see the most recent value.
type Feed[T any] struct {
	cur atomic.Pointer[T]

	mu   sync.Mutex
	subs map[int]chan T
	next int
}

func NewFeed[T any](initial T) *Feed[T] {
	f := &Feed[T]{subs: make(map[int]chan T)}
	f.cur.Store(&initial)
	return f
}

// Load returns the latest published value without blocking.
func (f *Feed[T]) Load() T {
	return *f.cur.Load()
}

// Publish replaces the current value and notifies every subscriber.
func (f *Feed[T]) Publish(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cur.Store(&v)
	for _, ch := range f.subs {
		offer(ch, v)
	}
}

// Subscribe returns a channel that receives the current value immediately
// and every later one. cancel closes the channel.
func (f *Feed[T]) Subscribe() (<-chan T, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.next
	f.next++
	ch := make(chan T, 1)
	ch <- *f.cur.Load()
	f.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// offer replaces any undelivered value in ch with v. Callers hold f.mu.
func offer[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
