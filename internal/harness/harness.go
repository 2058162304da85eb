package harness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/nback/internal/engine"
	"github.com/roach88/nback/internal/input"
	"github.com/roach88/nback/internal/stimulus"
)

// Scenario timing. Short enough for unit tests; the trace does not depend
// on it.
const (
	responseWindow = time.Millisecond
	trialDuration  = 2 * time.Millisecond
)

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace is the full block trace.
	Trace []TraceEntry `json:"trace"`

	// Errors lists failed expectations and assertions.
	Errors []string `json:"errors,omitempty"`

	// Outcome is the block outcome, nil when the block was aborted.
	Outcome *engine.BlockOutcome `json:"outcome,omitempty"`

	// FinalState is the engine state after the block.
	FinalState engine.State `json:"final_state"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEntry{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run executes a scenario against a fresh engine.
//
// Execution flow:
//  1. Build the fixed sequence from the scenario
//  2. Wire a recorder as the engine's audio player and first listener
//  3. Script presses, pause/resume and stop from engine listeners
//  4. Run one block
//  5. Check Expect and Assertions
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	seq, err := scenario.Sequence()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	rec := newRecorder()
	presses := input.NewBroadcaster(0)

	eng := engine.New(rec, presses,
		engine.WithISI(trialDuration),
		engine.WithResponseWindow(responseWindow),
		engine.WithLevelUpDelay(0),
		engine.WithSequenceSource(func(int, int, uint64) stimulus.Sequence { return seq }),
	)

	// Registration order is delivery order: the recorder must see each
	// notification before the script reacts to it.
	eng.Subscribe(rec.observe)
	eng.Subscribe(newScript(scenario, eng, presses, rec).react)

	slog.Debug("running scenario", "name", scenario.Name, "n", scenario.N, "trials", seq.TotalTrials)

	outcome, err := eng.StartBlock(ctx, scenario.N, seq.TotalTrials)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	result.Trace = rec.trace()
	result.Outcome = outcome
	result.FinalState = eng.State()

	for _, msg := range checkExpect(scenario.Expect, outcome) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// script performs a scenario's scripted actions as notifications arrive.
type script struct {
	engine  *engine.Engine
	presses *input.Broadcaster
	rec     *recorder
	pressOn map[int]bool
	pauseAt int
	stopAt  int
}

func newScript(s *Scenario, e *engine.Engine, b *input.Broadcaster, rec *recorder) *script {
	sc := &script{
		engine:  e,
		presses: b,
		rec:     rec,
		pressOn: make(map[int]bool, len(s.Presses)),
		pauseAt: -1,
		stopAt:  -1,
	}
	for _, p := range s.Presses {
		sc.pressOn[p] = true
	}
	if s.Control != nil {
		if s.Control.PauseAt != nil {
			sc.pauseAt = *s.Control.PauseAt
		}
		if s.Control.StopAt != nil {
			sc.stopAt = *s.Control.StopAt
		}
	}
	return sc
}

func (s *script) react(ev engine.Event) {
	switch ev.Type {
	case engine.EventTrialStart:
		t := ev.TrialStart.TrialIndex
		if s.pressOn[t] {
			s.rec.add(KindPress, fmt.Sprintf("trial=%d", t))
			s.presses.Press()
		}
		if t == s.pauseAt {
			s.engine.Pause()
		}
		if t == s.stopAt {
			s.engine.Stop()
		}
	case engine.EventTrialEnd:
		if ev.TrialEnd.TrialIndex == s.pauseAt {
			s.engine.Resume()
		}
	}
}

// checkExpect compares the outcome with the expected values.
func checkExpect(want Expect, got *engine.BlockOutcome) []string {
	if want.Aborted {
		if got != nil {
			return []string{"expected an aborted block, got a result"}
		}
		return nil
	}
	if got == nil {
		return []string{"block was aborted, expected a result"}
	}

	var errs []string
	check := func(name string, want *int, got int) {
		if want != nil && *want != got {
			errs = append(errs, fmt.Sprintf("%s: expected %d, got %d", name, *want, got))
		}
	}

	tally := got.Results.Tally
	check("hits", want.Hits, tally.Hits)
	check("misses", want.Misses, tally.Misses)
	check("false_alarms", want.FalseAlarms, tally.FalseAlarms)
	check("correct_rejections", want.CorrectRejections, tally.CorrectRejections)
	check("next_level", want.NextLevel, got.NextLevel)
	return errs
}
