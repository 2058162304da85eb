// Package session runs consecutive n-back blocks at the adaptive level and
// persists every completed block.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/nback/internal/engine"
	"github.com/roach88/nback/internal/stimulus"
	"github.com/roach88/nback/internal/store"
)

// Store is the persistence a Runner needs. *store.Store satisfies it.
type Store interface {
	WriteSession(ctx context.Context, sess store.Session) error
	CurrentLevel(ctx context.Context, def int) (int, error)
	SetCurrentLevel(ctx context.Context, n int) error
}

// Runner ties an engine to a store.
//
// Each block starts at the stored current level; when it completes, its
// record is written and its next level becomes the new current level. An
// aborted block is neither written nor allowed to change the level.
type Runner struct {
	engine     *engine.Engine
	store      Store
	ids        IDGenerator
	now        func() time.Time
	trials     func(n int) int
	startLevel int
}

// Option configures a Runner.
type Option func(*Runner)

// WithIDs replaces the UUIDv7 ID generator.
func WithIDs(ids IDGenerator) Option {
	return func(r *Runner) { r.ids = ids }
}

// WithNow replaces the wall clock used for timestamps.
func WithNow(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithTrials sets the block length for a level (default 20+n).
func WithTrials(fn func(n int) int) Option {
	return func(r *Runner) { r.trials = fn }
}

// WithStartLevel sets the level used when the store has none (default 2).
func WithStartLevel(n int) Option {
	return func(r *Runner) { r.startLevel = n }
}

// NewRunner creates a runner.
func NewRunner(e *engine.Engine, st Store, opts ...Option) *Runner {
	r := &Runner{
		engine:     e,
		store:      st,
		ids:        UUIDv7Generator{},
		now:        time.Now,
		trials:     stimulus.DefaultTrialCount,
		startLevel: 2,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Level returns the level the next block will run at.
func (r *Runner) Level(ctx context.Context) (int, error) {
	n, err := r.store.CurrentLevel(ctx, r.startLevel)
	if err != nil {
		return 0, fmt.Errorf("current level: %w", err)
	}
	return r.engine.Thresholds().Clamp(n), nil
}

// RunBlock runs one block. It returns nil, nil when the block was stopped.
func (r *Runner) RunBlock(ctx context.Context) (*store.Session, error) {
	n, err := r.Level(ctx)
	if err != nil {
		return nil, err
	}

	trials := &trialLog{}
	unsubscribe := r.engine.Subscribe(trials.observe)
	defer unsubscribe()

	started := r.now()
	out, err := r.engine.StartBlock(ctx, n, r.trials(n))
	if err != nil {
		return nil, err
	}
	if out == nil {
		slog.Info("block aborted, nothing saved", "n", n)
		return nil, nil
	}

	sess := store.Session{
		ID:                   r.ids.Generate(),
		N:                    out.N,
		NextLevel:            out.NextLevel,
		TotalTrials:          out.TotalTrials,
		Tally:                out.Results.Tally,
		HitRate:              out.Results.HitRate,
		CorrectRejectionRate: out.Results.CorrectRejectionRate,
		Accuracy:             out.Results.Accuracy,
		Seed:                 out.Seed,
		StartedAt:            started,
		CompletedAt:          r.now(),
		Trials:               trials.records(),
	}

	// Persistence failures do not invalidate the block the player just did;
	// they are returned alongside the record.
	if err := r.store.WriteSession(ctx, sess); err != nil {
		return &sess, fmt.Errorf("save session: %w", err)
	}
	if err := r.store.SetCurrentLevel(ctx, out.NextLevel); err != nil {
		return &sess, fmt.Errorf("save level: %w", err)
	}

	slog.Info("session saved",
		"id", sess.ID,
		"n", sess.N,
		"accuracy", sess.Accuracy,
		"next_level", sess.NextLevel,
	)
	return &sess, nil
}

// RunBlocks runs up to count blocks back to back (count <= 0 means until
// stopped). It returns the completed records; a stopped block ends the run
// without error.
func (r *Runner) RunBlocks(ctx context.Context, count int) ([]store.Session, error) {
	var done []store.Session
	for i := 0; count <= 0 || i < count; i++ {
		sess, err := r.RunBlock(ctx)
		if sess != nil {
			done = append(done, *sess)
		}
		if err != nil {
			return done, err
		}
		if sess == nil {
			break
		}
	}
	return done, nil
}

// trialLog records trialEnd notifications for one block.
type trialLog struct {
	mu     sync.Mutex
	trials []store.TrialRecord
}

func (l *trialLog) observe(ev engine.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch ev.Type {
	case engine.EventBlockStart:
		l.trials = l.trials[:0]
	case engine.EventTrialEnd:
		te := ev.TrialEnd
		l.trials = append(l.trials, store.TrialRecord{
			Index:   te.TrialIndex,
			Match:   te.WasMatch,
			Pressed: te.UserPressed,
			Outcome: te.Outcome.String(),
		})
	}
}

func (l *trialLog) records() []store.TrialRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]store.TrialRecord{}, l.trials...)
}
