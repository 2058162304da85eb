package input

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// Command words recognized by ReadLines besides a plain press.
const (
	LinePause  = "p"
	LineResume = "r"
	LineQuit   = "q"
)

// Controls receives the non-press commands typed on a line.
type Controls struct {
	Pause  func()
	Resume func()
	Quit   func()
}

// ReadLines treats every line read from r as a key press: an empty line (or
// any other text) presses, while "p", "r" and "q" map onto controls.
// It returns when r is exhausted or ctx is cancelled; a pending read is not
// interrupted, so close r to unblock it.
func ReadLines(ctx context.Context, r io.Reader, b *Broadcaster, c Controls) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case LinePause:
			if c.Pause != nil {
				c.Pause()
			}
		case LineResume:
			if c.Resume != nil {
				c.Resume()
			}
		case LineQuit:
			if c.Quit != nil {
				c.Quit()
			}
			return nil
		default:
			b.Press()
		}
	}
	return scanner.Err()
}
