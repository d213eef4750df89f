package event

import (
	"reflect"
	"sync"
)

// Bus carries typed events across tick boundaries. Anything emitted during
// tick N sits in the pending buffer until EventDispatch rotates it at the
// start of tick N+1, so producers never observe their own events mid-tick.
type Bus struct {
	mu sync.Mutex // guards handler registration only

	ready    map[reflect.Type][]any // delivered this tick
	pending  map[reflect.Type][]any // accumulating for next tick
	handlers map[reflect.Type][]any
}

func NewBus() *Bus {
	return &Bus{
		ready:    make(map[reflect.Type][]any),
		pending:  make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]any),
	}
}

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Emit queues an event for delivery on the next tick.
func Emit[T any](b *Bus, ev T) {
	k := typeKey[T]()
	b.pending[k] = append(b.pending[k], ev)
}

// Subscribe registers fn to receive every event of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := typeKey[T]()
	b.handlers[k] = append(b.handlers[k], fn)
}

// SwapBuffers promotes the pending buffer for delivery and recycles the
// old one. Runs once per tick, before DispatchAll.
func (b *Bus) SwapBuffers() {
	b.ready, b.pending = b.pending, b.ready
	for k := range b.pending {
		b.pending[k] = b.pending[k][:0]
	}
}

// DispatchAll hands every promoted event to its subscribers. Handlers and
// events share the same type key, so the reflective call cannot mismatch.
func (b *Bus) DispatchAll() {
	for k, events := range b.ready {
		for _, ev := range events {
			args := []reflect.Value{reflect.ValueOf(ev)}
			for _, h := range b.handlers[k] {
				reflect.ValueOf(h).Call(args)
			}
		}
	}
}
