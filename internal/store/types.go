package store

import (
	"time"

	"github.com/roach88/nback/internal/scoring"
)

// TrialRecord is one scored trial inside a stored session.
type TrialRecord struct {
	Index   int    `json:"index"`
	Match   bool   `json:"match"`
	Pressed bool   `json:"pressed"`
	Outcome string `json:"outcome"`
}

// Session is a completed block as stored.
type Session struct {
	ID          string `json:"id"`
	N           int    `json:"n"`
	NextLevel   int    `json:"next_level"`
	TotalTrials int    `json:"total_trials"`

	Tally                scoring.Tally `json:"tally"`
	HitRate              float64       `json:"hit_rate"`
	CorrectRejectionRate float64       `json:"correct_rejection_rate"`
	Accuracy             float64       `json:"accuracy"`

	Seed        uint64    `json:"seed"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`

	Trials []TrialRecord `json:"trials"`
}

// Result rebuilds the block result from the stored tally and rates.
func (s Session) Result() scoring.BlockResult {
	return scoring.BlockResult{
		Tally:                s.Tally,
		HitRate:              s.HitRate,
		CorrectRejectionRate: s.CorrectRejectionRate,
		Accuracy:             s.Accuracy,
	}
}
