package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DeliversInOrderWithSeq(t *testing.T) {
	b := NewBus(nil)

	var got []Event
	b.Subscribe(func(ev Event) { got = append(got, ev) })

	b.Publish(Event{Type: EventPaused})
	b.Publish(Event{Type: EventResumed})
	b.Publish(Event{Type: EventStopped})

	require.Len(t, got, 3)
	assert.Equal(t, []EventType{EventPaused, EventResumed, EventStopped},
		[]EventType{got[0].Type, got[1].Type, got[2].Type})
	assert.Equal(t, int64(1), got[0].Seq)
	assert.Equal(t, int64(3), got[2].Seq)
}

func TestBus_ReentrantPostIsDeferred(t *testing.T) {
	b := NewBus(nil)

	var order []string
	b.Subscribe(func(ev Event) {
		order = append(order, "a:"+ev.Type.String())
		if ev.Type == EventPaused {
			b.Post(Event{Type: EventResumed})
		}
	})
	b.Subscribe(func(ev Event) {
		order = append(order, "b:"+ev.Type.String())
	})

	b.Publish(Event{Type: EventPaused})

	// Every listener sees paused before anyone sees resumed, and Publish
	// waits for the cascade.
	assert.Equal(t, []string{"a:paused", "b:paused", "a:resumed", "b:resumed"}, order)
}

func TestBus_PostNeverRunsListenersOnCaller(t *testing.T) {
	b := NewBus(nil)

	release := make(chan struct{})
	delivered := make(chan EventType, 1)
	b.Subscribe(func(ev Event) {
		<-release
		delivered <- ev.Type
	})

	posted := make(chan struct{})
	go func() {
		b.Post(Event{Type: EventPaused})
		close(posted)
	}()

	select {
	case <-posted:
	case <-time.After(2 * time.Second):
		t.Fatal("Post blocked on a listener")
	}

	close(release)
	b.Flush()
	assert.Equal(t, EventPaused, <-delivered)
}

func TestBus_PublishWaitsForEarlierPosts(t *testing.T) {
	b := NewBus(nil)

	var got []EventType
	b.Subscribe(func(ev Event) {
		if ev.Type == EventResumed {
			time.Sleep(30 * time.Millisecond)
		}
		got = append(got, ev.Type)
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.Post(Event{Type: EventResumed})
	}()
	wg.Wait()

	b.Publish(Event{Type: EventTrialEnd})

	assert.Equal(t, []EventType{EventResumed, EventTrialEnd}, got)
}

func TestBus_FlushOnIdleBusReturns(t *testing.T) {
	b := NewBus(nil)
	done := make(chan struct{})
	go func() {
		b.Flush()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Flush blocked on an empty bus")
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	b := NewBus(nil)

	calls := 0
	unsubscribe := b.Subscribe(func(Event) { calls++ })

	b.Publish(Event{Type: EventPaused})
	unsubscribe()
	unsubscribe()
	b.Publish(Event{Type: EventResumed})

	assert.Equal(t, 1, calls)
}

func TestEventQueue_FIFO(t *testing.T) {
	q := newEventQueue()
	q.enqueue(Event{Type: EventBlockStart})
	q.enqueue(Event{Type: EventTrialStart})
	assert.Equal(t, 2, q.len())

	ev, ok := q.tryDequeue()
	require.True(t, ok)
	assert.Equal(t, EventBlockStart, ev.Type)

	ev, ok = q.tryDequeue()
	require.True(t, ok)
	assert.Equal(t, EventTrialStart, ev.Type)

	_, ok = q.tryDequeue()
	assert.False(t, ok)
}
