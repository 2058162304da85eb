package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/roach88/nback/internal/engine"
	"github.com/roach88/nback/internal/store"
)

// BlockRunner runs blocks until it is done or ctx is cancelled.
// session.Runner.RunBlocks has this shape once its count is bound.
type BlockRunner func(ctx context.Context) ([]store.Session, error)

// Play shows the screen while run plays blocks on eng. It returns when run
// finishes or the player quits; quitting stops the block in progress and
// cancels the runner, which is not an error.
func Play(ctx context.Context, eng *engine.Engine, presses Presser, run BlockRunner, opts ...tea.ProgramOption) ([]store.Session, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(eng, presses), append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)

	// Listeners run on the engine's delivery goroutine, never on the
	// program's update loop, so Send can wait for Update without either
	// side waiting on the other. Once Run returns the program context is
	// done and Send drops the message.
	unsubscribe := eng.Subscribe(func(ev engine.Event) {
		p.Send(EventMsg{Event: ev})
	})
	defer unsubscribe()

	type result struct {
		sessions []store.Session
		err      error
	}
	done := make(chan result, 1)
	go func() {
		sessions, err := run(ctx)
		p.Send(DoneMsg{Sessions: sessions, Err: err})
		done <- result{sessions: sessions, err: err}
	}()

	_, runErr := p.Run()

	// The player may have quit between blocks, when Stop is a no-op.
	eng.Stop()
	cancel()
	res := <-done

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return res.sessions, fmt.Errorf("tui: %w", runErr)
	}
	if errors.Is(res.err, context.Canceled) {
		res.err = nil
	}
	return res.sessions, res.err
}
