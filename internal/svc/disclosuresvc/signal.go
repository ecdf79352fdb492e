package disclosuresvc

import (
	"slices"
	"sync"
)

// Signal delivers "end of list became visible" notifications.
type Signal interface {
	// Subscribe registers fn and returns a function that removes it again.
	// The returned function may be called more than once.
	Subscribe(fn func()) (unsubscribe func())
}

// Broadcaster is an in-process Signal. Notify calls every current subscriber
// synchronously, in subscription order.
type Broadcaster struct {
	subscribers map[uint64]func()
	order       []uint64
	next        uint64
	m           sync.Mutex
}

var _ Signal = (*Broadcaster)(nil)

// NewBroadcaster returns a Broadcaster without subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subscribers: make(map[uint64]func())}
}

// Subscribe implements Signal.Subscribe.
func (b *Broadcaster) Subscribe(fn func()) func() {
	b.m.Lock()
	defer b.m.Unlock()

	if b.subscribers == nil {
		b.subscribers = make(map[uint64]func())
	}

	id := b.next
	b.next++
	b.subscribers[id] = fn
	b.order = append(b.order, id)

	var once sync.Once

	return func() {
		once.Do(func() {
			b.m.Lock()
			defer b.m.Unlock()

			delete(b.subscribers, id)
			b.order = slices.DeleteFunc(b.order, func(other uint64) bool { return other == id })
		})
	}
}

// Notify delivers one signal to every subscriber. Subscribers may unsubscribe
// from within their callback.
func (b *Broadcaster) Notify() {
	b.m.Lock()

	fns := make([]func(), 0, len(b.subscribers))
	live := b.order[:0]

	for _, id := range b.order {
		if fn, ok := b.subscribers[id]; ok {
			fns = append(fns, fn)
			live = append(live, id)
		}
	}

	b.order = live
	b.m.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Len returns the number of current subscribers.
func (b *Broadcaster) Len() int {
	b.m.Lock()
	defer b.m.Unlock()

	return len(b.subscribers)
}
