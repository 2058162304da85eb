package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

const settingCurrentLevel = "current_level"

// WriteSession inserts a completed block.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - writing the same session
// twice is silently ignored.
func (s *Store) WriteSession(ctx context.Context, sess Session) error {
	if sess.ID == "" {
		return errors.New("write session: empty id")
	}

	trialsJSON, err := marshalTrials(sess.Trials)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(id, n, next_level, total_trials,
		 hits, misses, false_alarms, correct_rejections,
		 hit_rate, correct_rejection_rate, accuracy,
		 seed, started_at, completed_at, trials)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.N,
		sess.NextLevel,
		sess.TotalTrials,
		sess.Tally.Hits,
		sess.Tally.Misses,
		sess.Tally.FalseAlarms,
		sess.Tally.CorrectRejections,
		sess.HitRate,
		sess.CorrectRejectionRate,
		sess.Accuracy,
		int64(sess.Seed),
		toMillis(sess.StartedAt),
		toMillis(sess.CompletedAt),
		trialsJSON,
	)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	return nil
}

// SetCurrentLevel records the level the next block should start at.
func (s *Store) SetCurrentLevel(ctx context.Context, n int) error {
	if n < 1 {
		return fmt.Errorf("set current level: level must be >= 1, got %d", n)
	}
	return s.setSetting(ctx, settingCurrentLevel, strconv.Itoa(n))
}

func (s *Store) setSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
