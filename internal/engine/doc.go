// Package engine implements the n-back trial engine.
//
// The engine runs one block at a time: it asks the stimulus generator for a
// sequence, plays each letter, opens a response window for the normalized
// press signal, scores the trial, plays feedback, and waits out the rest of
// the inter-stimulus interval. When the last trial ends it computes the
// block result and the next adaptive level.
//
// ARCHITECTURE:
//
// Single Block Loop:
// StartBlock runs the whole block on the caller's goroutine. All trial
// logic, scoring and sequence access happen there, one trial at a time.
//
// Control Methods:
// Pause, Resume and Stop may be called from any goroutine. They only move
// the state machine (see state.go) and publish a notification. The block
// loop observes the new state cooperatively:
//   - a pause takes effect at the next trial boundary; an in-flight response
//     window or feedback cue is never interrupted
//   - a stop aborts the block at the next trial boundary and StartBlock
//     returns no result
//   - resume and stop wake a paused loop immediately (no polling)
//
// Notifications:
// Lifecycle events are delivered in emission order to all current
// subscribers through a Bus, on its own delivery goroutine. Control calls
// only queue their event, so they are safe from any goroutine, including
// a UI loop that a listener forwards to. Listeners may call back into the
// engine (for example Stop from a TrialStart listener); such events are
// delivered after the current one has reached every listener. The block
// loop waits for delivery before it moves on.
//
// Timing:
// The response window and inter-stimulus interval are the only timeouts.
// Audio playback is fire-and-forget and never delays the schedule.
package engine
