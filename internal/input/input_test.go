package input

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_FansOutInSubscriptionOrder(t *testing.T) {
	b := NewBroadcaster(0)
	var got []string
	b.Subscribe(func() { got = append(got, "a") })
	b.Subscribe(func() { got = append(got, "b") })

	require.True(t, b.Press())
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := NewBroadcaster(0)
	count := 0
	unsubscribe := b.Subscribe(func() { count++ })

	b.Press()
	unsubscribe()
	unsubscribe() // second call is a no-op
	b.Press()

	assert.Equal(t, 1, count)
	assert.Zero(t, b.Subscribers())
}

func TestBroadcaster_Debounce(t *testing.T) {
	b := NewBroadcaster(time.Hour)
	count := 0
	b.Subscribe(func() { count++ })

	assert.True(t, b.Press())
	assert.False(t, b.Press(), "press inside the debounce interval must be dropped")
	assert.Equal(t, 1, count)
}

func TestBroadcaster_DebounceWindowExpires(t *testing.T) {
	b := NewBroadcaster(10 * time.Millisecond)
	assert.True(t, b.Press())
	time.Sleep(25 * time.Millisecond)
	assert.True(t, b.Press())
}

func TestReadLines(t *testing.T) {
	b := NewBroadcaster(0)
	presses := 0
	b.Subscribe(func() { presses++ })

	var paused, resumed, quit bool
	in := strings.NewReader("\nx\n p \nR\n\nq\n\n")
	err := ReadLines(context.Background(), in, b, Controls{
		Pause:  func() { paused = true },
		Resume: func() { resumed = true },
		Quit:   func() { quit = true },
	})

	require.NoError(t, err)
	assert.Equal(t, 3, presses, "lines after q are not read")
	assert.True(t, paused)
	assert.True(t, resumed)
	assert.True(t, quit)
}

func TestReadLines_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ReadLines(ctx, strings.NewReader("\n\n"), NewBroadcaster(0), Controls{})
	assert.ErrorIs(t, err, context.Canceled)
}
