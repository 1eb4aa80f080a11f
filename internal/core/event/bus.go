package event

import (
	"reflect"
	"sync"
)

// Bus is a per-tick buffered typed event bus. Systems emit events while the
// tick runs; the clock calls Flush once the tick has finished, so handlers
// always observe a stable post-tick snapshot. Handlers run synchronously on
// the ticking goroutine, in emission order.
type Bus struct {
	mu       sync.Mutex // protects handler registration only
	pending  []pendingEvent
	handlers map[reflect.Type][]any
}

type pendingEvent struct {
	typ reflect.Type
	ev  any
}

func NewBus() *Bus {
	return &Bus{
		pending:  make([]pendingEvent, 0, 64),
		handlers: make(map[reflect.Type][]any),
	}
}

// Emit queues an event for delivery at the end of the current tick.
func Emit[T any](b *Bus, ev T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.pending = append(b.pending, pendingEvent{typ: t, ev: ev})
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// Flush delivers every pending event to its subscribed handlers, preserving
// emission order across event types, then clears the buffer. Events emitted
// by handlers during Flush land in the next batch.
func (b *Bus) Flush() {
	batch := b.pending
	b.pending = make([]pendingEvent, 0, 64)
	for _, p := range batch {
		for _, h := range b.handlers[p.typ] {
			callHandler(h, p.ev)
		}
	}
}

// Pending reports the number of undelivered events.
func (b *Bus) Pending() int {
	return len(b.pending)
}

func callHandler(handler any, ev any) {
	// Safe: Subscribe and Emit key handlers and events by the same type.
	reflect.ValueOf(handler).Call([]reflect.Value{reflect.ValueOf(ev)})
}
