// Package tui is the interactive terminal front-end for playing blocks.
//
// The model never touches engine state directly. Engine notifications arrive
// as EventMsg values sent from the engine goroutine; key presses are turned
// into calls on the Controls and Presser the model was built with.
//
// Thread safety: the model is used only inside the bubbletea event loop.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/roach88/nback/internal/engine"
	"github.com/roach88/nback/internal/store"
)

// Controls is the part of the engine the screen drives.
// *engine.Engine satisfies it.
type Controls interface {
	Pause() bool
	Resume() bool
	Stop() bool
	State() engine.State
}

// Presser receives match presses. *input.Broadcaster satisfies it.
type Presser interface {
	Press() bool
}

// EventMsg carries an engine notification into the event loop.
type EventMsg struct {
	Event engine.Event
}

// DoneMsg signals that no more blocks will run.
type DoneMsg struct {
	Sessions []store.Session
	Err      error
}

// Model is the bubbletea model for a play session.
type Model struct {
	controls Controls
	presses  Presser

	// Block in progress.
	n       int
	trial   int
	total   int
	pressed bool
	paused  bool
	running bool

	// Feedback for the last finished trial.
	lastOutcome string
	lastCorrect bool

	// Most recent block result.
	last   *engine.BlockComplete
	blocks int

	quitting bool
	done     bool
	err      error
}

// New creates a model driving controls and presses.
func New(controls Controls, presses Presser) Model {
	return Model{
		controls: controls,
		presses:  presses,
		trial:    -1,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case EventMsg:
		m.observe(msg.Event)
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ", "enter":
		if m.running && !m.paused && m.presses.Press() {
			m.pressed = true
		}

	case "p", "P":
		if m.controls.State() == engine.StatePaused {
			m.controls.Resume()
		} else {
			m.controls.Pause()
		}

	case "q", "Q", "ctrl+c", "esc":
		m.controls.Stop()
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) observe(ev engine.Event) {
	switch ev.Type {
	case engine.EventBlockStart:
		m.n = ev.BlockStart.N
		m.total = ev.BlockStart.TotalTrials
		m.trial = -1
		m.running = true
		m.paused = false
		m.lastOutcome = ""

	case engine.EventTrialStart:
		m.trial = ev.TrialStart.TrialIndex
		m.total = ev.TrialStart.TotalTrials
		m.pressed = false

	case engine.EventTrialEnd:
		m.lastOutcome = ev.TrialEnd.Outcome.String()
		m.lastCorrect = ev.TrialEnd.Correct

	case engine.EventPaused:
		m.paused = true

	case engine.EventResumed:
		m.paused = false

	case engine.EventStopped:
		m.running = false
		m.paused = false

	case engine.EventBlockComplete:
		bc := *ev.BlockComplete
		m.last = &bc
		m.blocks++
		m.running = false
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return "Stopped.\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("%d-back", max(m.n, 1))))
	if m.paused {
		b.WriteString("  ")
		b.WriteString(pausedStyle.Render("PAUSED"))
	}
	b.WriteString("\n\n")

	if m.running {
		b.WriteString(m.renderTrial())
	} else if m.blocks == 0 {
		b.WriteString(dimStyle.Render("Waiting for the first block..."))
	} else {
		b.WriteString(dimStyle.Render("Next block starting..."))
	}
	b.WriteString("\n\n")

	if m.last != nil {
		b.WriteString(m.renderResult())
		b.WriteString("\n\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n\n")
	}

	b.WriteString(helpStyle.Render("space/enter match · p pause/resume · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderTrial() string {
	var b strings.Builder

	if m.trial < 0 {
		b.WriteString(fmt.Sprintf("Trial -/%d", m.total))
	} else {
		b.WriteString(fmt.Sprintf("Trial %d/%d", m.trial+1, m.total))
	}
	if m.pressed {
		b.WriteString("  ")
		b.WriteString(pressStyle.Render("●"))
	}

	if m.lastOutcome != "" {
		style := wrongStyle
		if m.lastCorrect {
			style = correctStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.lastOutcome))
	}
	return b.String()
}

func (m Model) renderResult() string {
	r := m.last.Results
	lines := []string{
		labelStyle.Render("Last block") + fmt.Sprintf("  n=%d  accuracy %.0f%%", m.last.CurrentN, r.Accuracy*100),
		fmt.Sprintf("hits %d  misses %d  false alarms %d  correct rejections %d",
			r.Hits, r.Misses, r.FalseAlarms, r.CorrectRejections),
	}

	switch {
	case m.last.NextLevel > m.last.CurrentN:
		lines = append(lines, correctStyle.Render(fmt.Sprintf("Level up: next block is %d-back", m.last.NextLevel)))
	case m.last.NextLevel < m.last.CurrentN:
		lines = append(lines, wrongStyle.Render(fmt.Sprintf("Level down: next block is %d-back", m.last.NextLevel)))
	default:
		lines = append(lines, dimStyle.Render(fmt.Sprintf("Staying at %d-back", m.last.NextLevel)))
	}
	return strings.Join(lines, "\n")
}

// Blocks returns the number of blocks completed while the model ran.
func (m Model) Blocks() int {
	return m.blocks
}

// Quitting reports whether the player asked to quit.
func (m Model) Quitting() bool {
	return m.quitting
}
