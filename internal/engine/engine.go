package engine

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/roach88/nback/internal/audio"
	"github.com/roach88/nback/internal/input"
	"github.com/roach88/nback/internal/scoring"
	"github.com/roach88/nback/internal/stimulus"
)

// Default trial timing.
const (
	DefaultISI            = 3000 * time.Millisecond
	DefaultResponseWindow = 2500 * time.Millisecond
	DefaultLevelUpDelay   = 500 * time.Millisecond
)

// SequenceSource produces the stimulus sequence for a block. The engine
// passes a fresh seed per block; sources that ignore it must still return a
// sequence with exactly totalTrials stimuli.
type SequenceSource func(n, totalTrials int, seed uint64) stimulus.Sequence

// BlockOutcome is what StartBlock returns for a block that ran to the end.
type BlockOutcome struct {
	Results     scoring.BlockResult `json:"results"`
	NextLevel   int                 `json:"next_level"`
	N           int                 `json:"n"`
	TotalTrials int                 `json:"total_trials"`
	Seed        uint64              `json:"seed"`
}

// Engine runs n-back blocks.
//
// Thread-safety model:
//   - StartBlock: runs the block on the calling goroutine; a second call while
//     a block is running is ignored
//   - Pause, Resume, Stop, State, Subscribe: safe from any goroutine; control
//     calls queue their notification and never run listeners themselves
//   - listeners run on the bus delivery goroutine, and StartBlock returns
//     only after every notification of its block has been delivered
//
// INVARIANTS:
//   - at most one block loop runs at a time
//   - each trial is recorded with the scorer exactly once
//   - trialStart/trialEnd pairs are published in trial index order
type Engine struct {
	player audio.Player
	input  input.PressSource
	bus    *Bus
	scorer *scoring.Scorer
	source SequenceSource
	seeds  *rand.Rand

	isi          time.Duration
	window       time.Duration
	levelUpDelay time.Duration
	matchRate    float64
	thresholds   scoring.Thresholds
	alphabet     stimulus.Alphabet

	mu      sync.Mutex
	state   State
	changed chan struct{} // closed and replaced on every state change
	running bool

	trialMu    sync.Mutex
	windowOpen bool
	responded  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithISI sets the total time per trial (default 3s).
func WithISI(d time.Duration) Option {
	return func(e *Engine) { e.isi = d }
}

// WithResponseWindow sets how long presses are accepted after a letter
// starts (default 2.5s).
func WithResponseWindow(d time.Duration) Option {
	return func(e *Engine) { e.window = d }
}

// WithLevelUpDelay sets the pause between the block-complete and level-up
// cues (default 500ms).
func WithLevelUpDelay(d time.Duration) Option {
	return func(e *Engine) { e.levelUpDelay = d }
}

// WithMatchRate sets the generator's match density (default 0.3).
func WithMatchRate(rate float64) Option {
	return func(e *Engine) { e.matchRate = rate }
}

// WithThresholds replaces the adaptive rule and level bounds. Invalid
// thresholds are ignored.
func WithThresholds(t scoring.Thresholds) Option {
	return func(e *Engine) {
		if err := t.Validate(); err != nil {
			slog.Warn("ignoring invalid thresholds", "error", err)
			return
		}
		e.thresholds = t
	}
}

// WithAlphabet replaces the stimulus alphabet.
func WithAlphabet(a stimulus.Alphabet) Option {
	return func(e *Engine) { e.alphabet = a }
}

// WithSeed makes the per-block seeds, and therefore every generated
// sequence, reproducible.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.seeds = rand.New(rand.NewPCG(seed, seed)) }
}

// WithSequenceSource replaces the stimulus generator (scenarios, tests).
func WithSequenceSource(src SequenceSource) Option {
	return func(e *Engine) { e.source = src }
}

// New creates an idle engine. A nil player discards sounds; a nil press
// source never presses.
func New(player audio.Player, presses input.PressSource, opts ...Option) *Engine {
	if player == nil {
		player = audio.Nop
	}
	if presses == nil {
		presses = noPresses{}
	}

	e := &Engine{
		player:       player,
		input:        presses,
		bus:          NewBus(nil),
		scorer:       scoring.NewScorer(),
		seeds:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		isi:          DefaultISI,
		window:       DefaultResponseWindow,
		levelUpDelay: DefaultLevelUpDelay,
		matchRate:    stimulus.DefaultMatchRate,
		thresholds:   scoring.DefaultThresholds(),
		alphabet:     stimulus.DefaultAlphabet(),
		state:        StateIdle,
		changed:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.source == nil {
		e.source = e.generate
	}

	return e
}

// StartBlock runs one block at level n and blocks until it ends.
//
// n is clamped into the configured level bounds; a trialCount of zero or
// less means stimulus.DefaultTrialCount(n), and anything below n+1 is raised
// to n+1.
//
// Returns:
//   - the outcome when the block ran to its last trial
//   - nil, nil when the block was stopped, or when a block is already in
//     progress (the call is ignored)
//   - nil, ctx.Err() when ctx was cancelled; the engine is stopped first
func (e *Engine) StartBlock(ctx context.Context, n, trialCount int) (*BlockOutcome, error) {
	n = e.thresholds.Clamp(n)
	if trialCount <= 0 {
		trialCount = stimulus.DefaultTrialCount(n)
	}
	if trialCount < n+1 {
		trialCount = n + 1
	}

	if err := e.begin(); err != nil {
		slog.Debug("start block ignored", "error", err)
		return nil, nil
	}
	defer e.end()
	defer e.bus.Flush()

	seed := e.seeds.Uint64()
	seq := e.source(n, trialCount, seed)
	e.scorer.Reset()

	unsubscribe := e.input.Subscribe(e.handlePress)

	slog.Info("block starting",
		"n", n,
		"trials", seq.TotalTrials,
		"matches", seq.MatchCount(),
		"seed", seed,
	)
	e.bus.Publish(Event{
		Type:       EventBlockStart,
		BlockStart: &BlockStart{N: n, TotalTrials: seq.TotalTrials},
	})

	err := e.runTrials(ctx, seq)
	unsubscribe()

	if err != nil {
		e.Stop()
		slog.Info("block cancelled", "n", n, "error", err)
		return nil, err
	}

	if _, err := e.transition(actionFinish, nil); err != nil {
		slog.Info("block aborted", "n", n, "trials_scored", e.scorer.Tally().Total())
		return nil, nil
	}

	results := e.scorer.Results()
	nextLevel := e.thresholds.NextLevel(n, results.Accuracy)

	e.player.Play(audio.SoundBlockComplete)
	if nextLevel > n {
		if err := sleep(ctx, e.levelUpDelay); err == nil {
			e.player.Play(audio.SoundLevelUp)
		}
	}

	slog.Info("block complete",
		"n", n,
		"accuracy", results.Accuracy,
		"hit_rate", results.HitRate,
		"correct_rejection_rate", results.CorrectRejectionRate,
		"next_level", nextLevel,
	)
	e.bus.Publish(Event{
		Type: EventBlockComplete,
		BlockComplete: &BlockComplete{
			Results:   results,
			NextLevel: nextLevel,
			CurrentN:  n,
		},
	})

	return &BlockOutcome{
		Results:     results,
		NextLevel:   nextLevel,
		N:           n,
		TotalTrials: seq.TotalTrials,
		Seed:        seed,
	}, nil
}

// runTrials runs every trial in index order. It returns nil when the loop
// ended (normally or by Stop) and ctx.Err() on cancellation.
func (e *Engine) runTrials(ctx context.Context, seq stimulus.Sequence) error {
	for t := 0; t < seq.TotalTrials; t++ {
		// Pause and stop are only observed here, between trials.
		ok, err := e.awaitPlaying(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := e.runTrial(ctx, seq, t); err != nil {
			return err
		}
	}
	return nil
}

// runTrial presents trial t and scores it.
func (e *Engine) runTrial(ctx context.Context, seq stimulus.Sequence, t int) error {
	letter := seq.Stimuli[t]
	isMatch := seq.IsMatch(t)

	e.openWindow()
	e.bus.Publish(Event{
		Type: EventTrialStart,
		TrialStart: &TrialStart{
			TrialIndex:  t,
			TotalTrials: seq.TotalTrials,
			IsMatch:     isMatch,
		},
	})
	e.player.Play(audio.LetterSound(letter))

	err := sleep(ctx, e.window)
	pressed := e.closeWindow()
	if err != nil {
		return err
	}

	outcome := e.scorer.RecordTrial(pressed, isMatch)
	if cue, ok := feedbackCue(outcome); ok {
		e.player.Play(cue)
	}

	slog.Debug("trial scored",
		"trial", t,
		"letter", string(letter),
		"match", isMatch,
		"pressed", pressed,
		"outcome", outcome.String(),
	)
	e.bus.Publish(Event{
		Type: EventTrialEnd,
		TrialEnd: &TrialEnd{
			TrialIndex:  t,
			UserPressed: pressed,
			WasMatch:    isMatch,
			Correct:     outcome.Correct(),
			Outcome:     outcome,
		},
	})

	if rest := e.isi - e.window; rest > 0 {
		return sleep(ctx, rest)
	}
	return nil
}

// feedbackCue maps an outcome to its cue. Correct rejections stay silent.
func feedbackCue(o scoring.Outcome) (audio.SoundID, bool) {
	switch o {
	case scoring.Hit:
		return audio.SoundHit, true
	case scoring.Miss:
		return audio.SoundMiss, true
	case scoring.FalseAlarm:
		return audio.SoundFalseAlarm, true
	default:
		return "", false
	}
}

// awaitPlaying blocks while the engine is paused. It reports false when the
// block was stopped.
func (e *Engine) awaitPlaying(ctx context.Context) (bool, error) {
	for {
		e.mu.Lock()
		state, changed := e.state, e.changed
		e.mu.Unlock()

		switch state {
		case StatePlaying:
			return true, nil
		case StatePaused:
			select {
			case <-changed:
			case <-ctx.Done():
				return false, ctx.Err()
			}
		default:
			return false, nil
		}
	}
}

// openWindow clears the latched press and starts accepting presses.
func (e *Engine) openWindow() {
	e.trialMu.Lock()
	defer e.trialMu.Unlock()
	e.responded = false
	e.windowOpen = true
}

// closeWindow stops accepting presses and returns the latched flag.
func (e *Engine) closeWindow() bool {
	e.trialMu.Lock()
	defer e.trialMu.Unlock()
	e.windowOpen = false
	return e.responded
}

// handlePress latches the first press inside an open window.
func (e *Engine) handlePress() {
	e.trialMu.Lock()
	defer e.trialMu.Unlock()
	if e.windowOpen && !e.responded {
		e.responded = true
	}
}

// Pause stops the block at the next trial boundary. It reports whether the
// call had an effect; pausing outside StatePlaying is a no-op.
func (e *Engine) Pause() bool {
	return e.control(actionPause, EventPaused)
}

// Resume continues a paused block. No-op unless paused.
func (e *Engine) Resume() bool {
	return e.control(actionResume, EventResumed)
}

// Stop aborts the running block at the next trial boundary; StartBlock then
// returns no result. No-op unless playing or paused.
func (e *Engine) Stop() bool {
	return e.control(actionStop, EventStopped)
}

func (e *Engine) control(a action, t EventType) bool {
	to, err := e.transition(a, &Event{Type: t})
	if err != nil {
		slog.Debug("control call ignored", "error", err)
		return false
	}
	slog.Info("engine "+t.String(), "state", to.String())
	return true
}

// transition applies a to the state machine. When ev is non-nil it is
// queued before the lock is released, so no event from the block loop can
// overtake it. Delivery happens on the bus goroutine.
func (e *Engine) transition(a action, ev *Event) (State, error) {
	e.mu.Lock()
	from := e.state
	to, ok := next(from, a)
	if !ok {
		e.mu.Unlock()
		return from, &TransitionError{From: from, Action: string(a)}
	}
	e.setStateLocked(to)
	if ev != nil {
		e.bus.Post(*ev)
	}
	e.mu.Unlock()
	return to, nil
}

// begin claims the block loop and moves to StatePlaying.
func (e *Engine) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	to, ok := next(e.state, actionStart)
	if !ok || e.running {
		return &TransitionError{From: e.state, Action: string(actionStart)}
	}
	e.running = true
	e.setStateLocked(to)
	return nil
}

// end releases the block loop.
func (e *Engine) end() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
}

func (e *Engine) setStateLocked(s State) {
	e.state = s
	close(e.changed)
	e.changed = make(chan struct{})
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Subscribe registers a notification listener.
func (e *Engine) Subscribe(fn Listener) (unsubscribe func()) {
	return e.bus.Subscribe(fn)
}

// Thresholds returns the adaptive rule in effect.
func (e *Engine) Thresholds() scoring.Thresholds {
	return e.thresholds
}

func (e *Engine) generate(n, totalTrials int, seed uint64) stimulus.Sequence {
	return stimulus.Generate(n, totalTrials, e.matchRate,
		stimulus.WithSeed(seed),
		stimulus.WithAlphabet(e.alphabet),
	)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type noPresses struct{}

func (noPresses) Subscribe(func()) func() { return func() {} }
