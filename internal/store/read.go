package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

const sessionColumns = `
	id, n, next_level, total_trials,
	hits, misses, false_alarms, correct_rejections,
	hit_rate, correct_rejection_rate, accuracy,
	seed, started_at, completed_at, trials`

// ErrNotFound is returned (wrapped) when a session ID is not stored.
var ErrNotFound = errors.New("session not found")

// ReadSession returns the session with the given ID.
// Returns ErrNotFound (wrapped) if not found.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("read session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session %s: %w", id, err)
	}
	return sess, nil
}

// ListSessions returns up to limit sessions, newest first. A limit of zero
// or less returns every session.
//
// Returns an empty slice (not nil) if nothing is stored.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		ORDER BY completed_at DESC, id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// CountSessions returns the number of stored sessions.
func (s *Store) CountSessions(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

// CurrentLevel returns the stored start level, or def when none was saved.
func (s *Store) CurrentLevel(ctx context.Context, def int) (int, error) {
	value, ok, err := s.setting(ctx, settingCurrentLevel)
	if err != nil {
		return 0, err
	}
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", settingCurrentLevel, value, err)
	}
	return n, nil
}

func (s *Store) setting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var (
		sess       Session
		seed       int64
		started    int64
		completed  int64
		trialsJSON string
	)
	err := row.Scan(
		&sess.ID,
		&sess.N,
		&sess.NextLevel,
		&sess.TotalTrials,
		&sess.Tally.Hits,
		&sess.Tally.Misses,
		&sess.Tally.FalseAlarms,
		&sess.Tally.CorrectRejections,
		&sess.HitRate,
		&sess.CorrectRejectionRate,
		&sess.Accuracy,
		&seed,
		&started,
		&completed,
		&trialsJSON,
	)
	if err != nil {
		return Session{}, err
	}

	sess.Seed = uint64(seed)
	sess.StartedAt = fromMillis(started)
	sess.CompletedAt = fromMillis(completed)
	sess.Trials, err = unmarshalTrials(trialsJSON)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}
