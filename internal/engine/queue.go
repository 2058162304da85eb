package engine

// eventQueue is the FIFO buffer behind a Bus.
//
// It is unbounded so that listeners which call back into the engine (and
// therefore publish more events) never block the publisher.
//
// Not safe for concurrent use: every method is called with Bus.mu held.
type eventQueue struct {
	events []Event
}

// newEventQueue creates an empty event queue.
func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 16),
	}
}

// enqueue adds an event to the back of the queue.
func (q *eventQueue) enqueue(e Event) {
	q.events = append(q.events, e)
}

// tryDequeue removes and returns the front event.
// Returns (Event{}, false) if the queue is empty.
func (q *eventQueue) tryDequeue() (Event, bool) {
	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]

	// Nil out the slot so the payload pointers can be collected.
	q.events[0] = Event{}

	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// len returns the current queue length.
func (q *eventQueue) len() int {
	return len(q.events)
}
