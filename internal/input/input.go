// Package input turns raw key presses from any physical source into the single
// normalized "press" signal the trial engine listens to.
//
// Sources (terminal keys, stdin lines, test scripts) call Broadcaster.Press.
// The broadcaster drops presses that arrive within the debounce interval of
// the last accepted press and fans accepted presses out to every subscriber.
package input

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultDebounce collapses near-simultaneous presses from several sources.
const DefaultDebounce = 150 * time.Millisecond

// PressSource delivers normalized presses to subscribers.
// The returned function removes the subscription; calling it twice is safe.
type PressSource interface {
	Subscribe(fn func()) (unsubscribe func())
}

// Broadcaster merges press sources and debounces them.
//
// Thread-safety: all methods are safe for concurrent use. Subscribers are
// called on the goroutine that called Press.
type Broadcaster struct {
	mu      sync.Mutex
	subs    map[int]func()
	order   []int
	nextID  int
	limiter *rate.Limiter // nil disables debouncing
}

// NewBroadcaster creates a broadcaster. A debounce of zero or less accepts
// every press.
func NewBroadcaster(debounce time.Duration) *Broadcaster {
	b := &Broadcaster{subs: make(map[int]func())}
	if debounce > 0 {
		// Burst 1 at one token per debounce interval: the first press is
		// accepted, the next only after the interval has elapsed.
		b.limiter = rate.NewLimiter(rate.Every(debounce), 1)
	}
	return b
}

// Subscribe registers fn for every accepted press.
func (b *Broadcaster) Subscribe(fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.order = append(b.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			for i, oid := range b.order {
				if oid == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Press reports one physical press. It returns false when the press was
// debounced away.
func (b *Broadcaster) Press() bool {
	if b.limiter != nil && !b.limiter.Allow() {
		return false
	}

	b.mu.Lock()
	fns := make([]func(), 0, len(b.order))
	for _, id := range b.order {
		fns = append(fns, b.subs[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return true
}

// Subscribers returns the number of active subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
