package engine

import (
	"github.com/roach88/nback/internal/scoring"
)

// EventType distinguishes notification kinds.
type EventType int

const (
	EventBlockStart EventType = iota + 1
	EventTrialStart
	EventTrialEnd
	EventPaused
	EventResumed
	EventStopped
	EventBlockComplete
)

func (t EventType) String() string {
	switch t {
	case EventBlockStart:
		return "blockStart"
	case EventTrialStart:
		return "trialStart"
	case EventTrialEnd:
		return "trialEnd"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventStopped:
		return "stopped"
	case EventBlockComplete:
		return "blockComplete"
	default:
		return "unknown"
	}
}

// BlockStart is the payload of EventBlockStart.
type BlockStart struct {
	N           int `json:"n"`
	TotalTrials int `json:"total_trials"`
}

// TrialStart is the payload of EventTrialStart.
//
// IsMatch is informational for the UI. Callers must not show it to the
// player before the trial ends.
type TrialStart struct {
	TrialIndex  int  `json:"trial_index"`
	TotalTrials int  `json:"total_trials"`
	IsMatch     bool `json:"is_match"`
}

// TrialEnd is the payload of EventTrialEnd.
type TrialEnd struct {
	TrialIndex  int             `json:"trial_index"`
	UserPressed bool            `json:"user_pressed"`
	WasMatch    bool            `json:"was_match"`
	Correct     bool            `json:"correct"`
	Outcome     scoring.Outcome `json:"-"`
}

// BlockComplete is the payload of EventBlockComplete.
type BlockComplete struct {
	Results   scoring.BlockResult `json:"results"`
	NextLevel int                 `json:"next_level"`
	CurrentN  int                 `json:"current_n"`
}

// Event is a lifecycle notification. Exactly one payload pointer matching
// Type is set; paused, resumed and stopped carry no payload.
type Event struct {
	Type          EventType
	Seq           int64
	BlockStart    *BlockStart
	TrialStart    *TrialStart
	TrialEnd      *TrialEnd
	BlockComplete *BlockComplete
}

// Listener receives notifications.
type Listener func(Event)
