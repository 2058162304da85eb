package tui

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nback/internal/engine"
	"github.com/roach88/nback/internal/input"
	"github.com/roach88/nback/internal/store"
)

func TestPlay_QuitKeyCancelsRunner(t *testing.T) {
	in := bytes.NewBufferString("q")
	var out bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	run := func(ctx context.Context) ([]store.Session, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	sessions, err := Play(ctx, engine.New(nil, nil), input.NewBroadcaster(0), run,
		tea.WithInput(in), tea.WithOutput(&out))
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.NotZero(t, out.Len())
}

func TestPlay_ReturnsRunnerSessions(t *testing.T) {
	var in, out bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	want := []store.Session{{ID: "a", N: 2}, {ID: "b", N: 3}}
	run := func(context.Context) ([]store.Session, error) {
		return want, nil
	}

	sessions, err := Play(ctx, engine.New(nil, nil), input.NewBroadcaster(0), run,
		tea.WithInput(&in), tea.WithOutput(&out))
	require.NoError(t, err)
	assert.Equal(t, want, sessions)
}

// liveBlock wires a real engine running a long block behind Play, fed keys
// through a pipe.
type liveBlock struct {
	eng     *engine.Engine
	keys    *io.PipeWriter
	started chan struct{}

	mu    sync.Mutex
	kinds []string
}

func newLiveBlock(t *testing.T) (*liveBlock, <-chan error) {
	t.Helper()
	lb := &liveBlock{
		eng: engine.New(nil, nil,
			engine.WithISI(50*time.Millisecond),
			engine.WithResponseWindow(20*time.Millisecond),
			engine.WithSeed(3),
		),
		started: make(chan struct{}),
	}

	var once sync.Once
	lb.eng.Subscribe(func(ev engine.Event) {
		lb.mu.Lock()
		lb.kinds = append(lb.kinds, ev.Type.String())
		lb.mu.Unlock()
		if ev.Type == engine.EventTrialStart {
			once.Do(func() { close(lb.started) })
		}
	})

	pr, pw := io.Pipe()
	lb.keys = pw
	t.Cleanup(func() { pw.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	run := func(ctx context.Context) ([]store.Session, error) {
		_, err := lb.eng.StartBlock(ctx, 1, 200)
		return nil, err
	}

	errc := make(chan error, 1)
	go func() {
		_, err := Play(ctx, lb.eng, input.NewBroadcaster(0), run,
			tea.WithInput(pr), tea.WithOutput(&bytes.Buffer{}))
		errc <- err
	}()

	select {
	case <-lb.started:
	case <-time.After(5 * time.Second):
		t.Fatal("block never started")
	}
	return lb, errc
}

func (lb *liveBlock) press(t *testing.T, key string) {
	t.Helper()
	_, err := lb.keys.Write([]byte(key))
	require.NoError(t, err)
}

func (lb *liveBlock) seen() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return append([]string(nil), lb.kinds...)
}

func waitPlay(t *testing.T, errc <-chan error) {
	t.Helper()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Play did not return after quitting")
	}
}

func TestPlay_PauseThenQuitDuringBlock(t *testing.T) {
	lb, errc := newLiveBlock(t)

	lb.press(t, "p")
	require.Eventually(t, func() bool {
		return lb.eng.State() == engine.StatePaused
	}, 2*time.Second, 5*time.Millisecond)

	lb.press(t, "q")
	waitPlay(t, errc)

	assert.Equal(t, engine.StateIdle, lb.eng.State())
	kinds := lb.seen()
	assert.Contains(t, kinds, "paused")
	assert.Contains(t, kinds, "stopped")
	assert.NotContains(t, kinds, "blockComplete")
}

func TestPlay_QuitDuringBlock(t *testing.T) {
	lb, errc := newLiveBlock(t)

	lb.press(t, "q")
	waitPlay(t, errc)

	assert.Equal(t, engine.StateIdle, lb.eng.State())
	assert.Contains(t, lb.seen(), "stopped")
	assert.NotContains(t, lb.seen(), "blockComplete")
}
