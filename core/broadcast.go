package core

import "sync"

// Broadcaster is a process-wide change-notification channel owned by an
// entity store. Observers register a callback with Subscribe and are invoked
// synchronously on every Publish, in unspecified order. There is no replay:
// a new subscriber only sees future notifications.
type Broadcaster[T any] struct {
	mu   sync.Mutex
	next int
	subs map[int]func(T)
}

// Subscribe registers fn and returns an unsubscribe handle.
func (b *Broadcaster[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs == nil {
		b.subs = make(map[int]func(T))
	}
	id := b.next
	b.next++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish invokes every currently-registered callback with v.
// Callbacks run outside the registry lock so they may subscribe/unsubscribe.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	fns := make([]func(T), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}
