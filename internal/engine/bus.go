package engine

import "sync"

// Bus delivers notifications to subscribers in emission order.
//
// Events are stamped with the next Seq and queued under the lock. A single
// delivery goroutine, started when the queue becomes non-empty and exiting
// when it drains, calls the listeners outside the lock. Listeners therefore
// never run on the goroutine that emitted an event, and delivery order
// always equals Seq order.
//
// Post queues and returns at once; it is what control methods (and
// listeners) use. Publish queues and then waits until the queue is empty,
// so everything emitted before it, and everything its listeners emit in
// response, has been delivered when it returns. Publish must not be called
// from a listener.
//
// Thread-safety: safe for concurrent use.
type Bus struct {
	mu        sync.Mutex
	idle      *sync.Cond // broadcast when the delivery goroutine exits
	clock     *Clock
	queue     *eventQueue
	listeners []subscription
	nextID    int
	draining  bool
}

type subscription struct {
	id int
	fn Listener
}

// NewBus creates a bus stamping events from clock. A nil clock starts a new
// one at 0.
func NewBus(clock *Clock) *Bus {
	if clock == nil {
		clock = NewClock()
	}
	b := &Bus{
		clock: clock,
		queue: newEventQueue(),
	}
	b.idle = sync.NewCond(&b.mu)
	return b
}

// Subscribe adds a listener. Events queued after Subscribe returns are
// delivered to it until the returned function is called.
func (b *Bus) Subscribe(fn Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.listeners = append(b.listeners, subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.listeners {
			if s.id == id {
				b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// Publish stamps ev, queues it and waits until every queued event has
// reached every listener.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enqueueLocked(ev)
	b.waitIdleLocked()
}

// Post stamps ev and queues it for delivery without waiting.
func (b *Bus) Post(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enqueueLocked(ev)
}

// Flush waits until every queued event has been delivered.
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.waitIdleLocked()
}

func (b *Bus) enqueueLocked(ev Event) {
	ev.Seq = b.clock.Next()
	b.queue.enqueue(ev)
	if !b.draining {
		b.draining = true
		go b.deliver()
	}
}

func (b *Bus) waitIdleLocked() {
	for b.draining {
		b.idle.Wait()
	}
}

// deliver runs on the delivery goroutine until the queue is empty.
func (b *Bus) deliver() {
	b.mu.Lock()
	for {
		ev, ok := b.queue.tryDequeue()
		if !ok {
			b.draining = false
			b.idle.Broadcast()
			b.mu.Unlock()
			return
		}
		listeners := append([]subscription(nil), b.listeners...)
		b.mu.Unlock()

		for _, s := range listeners {
			s.fn(ev)
		}

		b.mu.Lock()
	}
}
