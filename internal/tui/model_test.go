package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nback/internal/engine"
	"github.com/roach88/nback/internal/scoring"
)

type fakeControls struct {
	state engine.State
	calls []string
}

func (f *fakeControls) Pause() bool {
	f.calls = append(f.calls, "pause")
	f.state = engine.StatePaused
	return true
}

func (f *fakeControls) Resume() bool {
	f.calls = append(f.calls, "resume")
	f.state = engine.StatePlaying
	return true
}

func (f *fakeControls) Stop() bool {
	f.calls = append(f.calls, "stop")
	f.state = engine.StateIdle
	return true
}

func (f *fakeControls) State() engine.State { return f.state }

type countingPresser struct{ n int }

func (p *countingPresser) Press() bool {
	p.n++
	return true
}

func newTestModel() (Model, *fakeControls, *countingPresser) {
	c := &fakeControls{state: engine.StateIdle}
	p := &countingPresser{}
	return New(c, p), c, p
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func blockStart(n, total int) EventMsg {
	return EventMsg{Event: engine.Event{
		Type:       engine.EventBlockStart,
		BlockStart: &engine.BlockStart{N: n, TotalTrials: total},
	}}
}

func trialStart(i, total int) EventMsg {
	return EventMsg{Event: engine.Event{
		Type:       engine.EventTrialStart,
		TrialStart: &engine.TrialStart{TrialIndex: i, TotalTrials: total},
	}}
}

func TestModel_TracksBlockProgress(t *testing.T) {
	m, _, _ := newTestModel()

	m, _ = update(t, m, blockStart(2, 22))
	m, _ = update(t, m, trialStart(4, 22))

	assert.True(t, m.running)
	assert.Equal(t, 2, m.n)
	assert.Contains(t, m.View(), "2-back")
	assert.Contains(t, m.View(), "Trial 5/22")

	m, _ = update(t, m, EventMsg{Event: engine.Event{
		Type: engine.EventTrialEnd,
		TrialEnd: &engine.TrialEnd{
			TrialIndex: 4,
			WasMatch:   true,
			Outcome:    scoring.Miss,
		},
	}})
	assert.Equal(t, "miss", m.lastOutcome)
	assert.False(t, m.lastCorrect)
	assert.Contains(t, m.View(), "miss")
}

func TestModel_PressOnlyWhileRunning(t *testing.T) {
	m, _, p := newTestModel()

	m, _ = update(t, m, key(" "))
	assert.Equal(t, 0, p.n, "no block running")

	m, _ = update(t, m, blockStart(1, 21))
	m, _ = update(t, m, trialStart(0, 21))
	m, _ = update(t, m, key(" "))
	m, _ = update(t, m, key("enter"))
	assert.Equal(t, 2, p.n)
	assert.True(t, m.pressed)

	m, _ = update(t, m, trialStart(1, 21))
	assert.False(t, m.pressed, "press marker resets per trial")
}

func TestModel_PauseToggle(t *testing.T) {
	m, c, _ := newTestModel()
	c.state = engine.StatePlaying

	m, _ = update(t, m, key("p"))
	m, _ = update(t, m, EventMsg{Event: engine.Event{Type: engine.EventPaused}})
	assert.True(t, m.paused)
	assert.Contains(t, m.View(), "PAUSED")

	m, _ = update(t, m, key("p"))
	m, _ = update(t, m, EventMsg{Event: engine.Event{Type: engine.EventResumed}})
	assert.False(t, m.paused)

	assert.Equal(t, []string{"pause", "resume"}, c.calls)
}

func TestModel_QuitStopsEngine(t *testing.T) {
	for _, k := range []string{"q", "ctrl+c"} {
		t.Run(k, func(t *testing.T) {
			m, c, _ := newTestModel()
			c.state = engine.StatePlaying

			m, cmd := update(t, m, key(k))
			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
			assert.True(t, m.Quitting())
			assert.Equal(t, []string{"stop"}, c.calls)
			assert.Equal(t, "Stopped.\n", m.View())
		})
	}
}

func TestModel_BlockCompleteShowsResult(t *testing.T) {
	m, _, _ := newTestModel()

	m, _ = update(t, m, blockStart(2, 22))
	m, _ = update(t, m, EventMsg{Event: engine.Event{
		Type: engine.EventBlockComplete,
		BlockComplete: &engine.BlockComplete{
			Results: scoring.ResultsFor(scoring.Tally{
				Hits:              6,
				CorrectRejections: 14,
			}),
			NextLevel: 3,
			CurrentN:  2,
		},
	}})

	assert.False(t, m.running)
	assert.Equal(t, 1, m.Blocks())

	view := m.View()
	assert.Contains(t, view, "accuracy 100%")
	assert.Contains(t, view, "hits 6")
	assert.Contains(t, view, "Level up: next block is 3-back")
	assert.Contains(t, view, "Next block starting")
}

func TestModel_StoppedEndsBlock(t *testing.T) {
	m, _, _ := newTestModel()

	m, _ = update(t, m, blockStart(2, 22))
	m, _ = update(t, m, EventMsg{Event: engine.Event{Type: engine.EventPaused}})
	m, _ = update(t, m, EventMsg{Event: engine.Event{Type: engine.EventStopped}})

	assert.False(t, m.running)
	assert.False(t, m.paused)
	assert.Equal(t, 0, m.Blocks())
}

func TestModel_DoneQuits(t *testing.T) {
	m, _, _ := newTestModel()

	m, cmd := update(t, m, DoneMsg{Err: errors.New("disk full")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.done)
	assert.Contains(t, m.View(), "disk full")
}
