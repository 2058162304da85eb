// Package audio defines the playback capability the trial engine drives and
// a few concrete players.
//
// Playback is fire-and-forget: Play must return immediately and must never
// report failure to the caller. Trial timing cannot depend on whether a sound
// actually reached the speaker.
package audio

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/nback/internal/stimulus"
)

// SoundID names a playable cue.
type SoundID string

// Feedback and block cues.
const (
	SoundHit           SoundID = "hit"
	SoundMiss          SoundID = "miss"
	SoundFalseAlarm    SoundID = "false-alarm"
	SoundBlockComplete SoundID = "block-complete"
	SoundLevelUp       SoundID = "level-up"
)

const letterPrefix = "letter-"

// LetterSound returns the cue for a spoken stimulus letter: "letter-<symbol>",
// with the symbol lower-cased so it maps onto file names.
func LetterSound(s stimulus.Symbol) SoundID {
	// A Caser is stateful, so each call gets its own.
	return SoundID(letterPrefix + cases.Lower(language.Und).String(string(s)))
}

// IsLetter reports whether the id names a stimulus letter.
func (id SoundID) IsLetter() bool {
	return len(id) > len(letterPrefix) && string(id[:len(letterPrefix)]) == letterPrefix
}

func (id SoundID) String() string { return string(id) }

// Player plays a cue without blocking.
type Player interface {
	Play(id SoundID)
}

// PlayerFunc adapts a function to Player.
type PlayerFunc func(id SoundID)

// Play calls f(id).
func (f PlayerFunc) Play(id SoundID) { f(id) }

// Nop discards every cue.
var Nop Player = PlayerFunc(func(SoundID) {})

// LogPlayer writes each cue to a structured logger instead of a speaker.
// Useful headless and in tests that only care about ordering.
type LogPlayer struct {
	Logger *slog.Logger
	Level  slog.Level
}

// Play logs the cue.
func (p LogPlayer) Play(id SoundID) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Log(context.Background(), p.Level, "play sound", "sound", string(id))
}

// Multi fans a cue out to several players in order.
func Multi(players ...Player) Player {
	ps := make([]Player, 0, len(players))
	for _, p := range players {
		if p != nil {
			ps = append(ps, p)
		}
	}
	return PlayerFunc(func(id SoundID) {
		for _, p := range ps {
			p.Play(id)
		}
	})
}

// Recorder remembers every cue it is asked to play.
// Thread-safety: safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	played []SoundID
}

// Play appends the cue.
func (r *Recorder) Play(id SoundID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.played = append(r.played, id)
}

// Played returns a copy of the cues played so far.
func (r *Recorder) Played() []SoundID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SoundID(nil), r.played...)
}

// Reset forgets all recorded cues.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.played = nil
}
