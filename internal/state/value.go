// Package state holds the in-memory copy of a remote collection and pushes
// every replacement to subscribers.
package state

import "sync"

// Value is a current value plus its subscribers. Readers must treat what Get
// returns as immutable; writers publish a fresh value with Set.
type Value[T any] struct {
	mu      sync.RWMutex
	current T
	subs    map[int]chan T
	nextID  int
}

func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		current: initial,
		subs:    make(map[int]chan T),
	}
}

func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.current = val
	for _, ch := range v.subs {
		offer(ch, val)
	}
}

// Subscribe returns a channel that holds the current value right away and then
// each later one. A subscriber that falls behind only sees the newest value.
// cancel closes the channel.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++
	ch := make(chan T, 1)
	ch <- v.current
	v.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			delete(v.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// offer replaces a pending unread value so Set never blocks.
func offer[T any](ch chan T, val T) {
	select {
	case ch <- val:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- val:
	default:
	}
}
