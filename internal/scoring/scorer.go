// Package scoring tallies n-back responses by signal-detection category and
// decides the next difficulty level from a block's balanced accuracy.
package scoring

// Outcome is the signal-detection category of one trial.
type Outcome int

const (
	// Hit: match trial with a response.
	Hit Outcome = iota + 1
	// Miss: match trial without a response.
	Miss
	// FalseAlarm: non-match trial with a response.
	FalseAlarm
	// CorrectRejection: non-match trial without a response.
	CorrectRejection
)

// Classify maps a (responded, wasMatch) pair to exactly one Outcome.
func Classify(responded, wasMatch bool) Outcome {
	switch {
	case wasMatch && responded:
		return Hit
	case wasMatch:
		return Miss
	case responded:
		return FalseAlarm
	default:
		return CorrectRejection
	}
}

// Correct reports whether the outcome counts as a correct response.
func (o Outcome) Correct() bool {
	return o == Hit || o == CorrectRejection
}

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	case FalseAlarm:
		return "false-alarm"
	case CorrectRejection:
		return "correct-rejection"
	default:
		return "unknown"
	}
}

// Tally holds the four outcome counters for a block.
type Tally struct {
	Hits              int `json:"hits"`
	Misses            int `json:"misses"`
	FalseAlarms       int `json:"false_alarms"`
	CorrectRejections int `json:"correct_rejections"`
}

// TotalMatches is the number of match trials recorded.
func (t Tally) TotalMatches() int { return t.Hits + t.Misses }

// TotalNonMatches is the number of non-match trials recorded.
func (t Tally) TotalNonMatches() int { return t.FalseAlarms + t.CorrectRejections }

// Total is the number of trials recorded.
func (t Tally) Total() int { return t.TotalMatches() + t.TotalNonMatches() }

// BlockResult is an immutable snapshot of a block's score.
type BlockResult struct {
	Tally
	HitRate              float64 `json:"hit_rate"`
	CorrectRejectionRate float64 `json:"correct_rejection_rate"`
	Accuracy             float64 `json:"accuracy"`
}

// Scorer accumulates trial outcomes for the block in progress.
//
// The engine records each logical trial exactly once; Scorer does not
// enforce that. A Scorer is not safe for concurrent use.
type Scorer struct {
	tally Tally
}

// NewScorer returns a zeroed Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Reset zeroes all counters.
func (s *Scorer) Reset() {
	s.tally = Tally{}
}

// RecordTrial classifies one trial and updates the tally.
func (s *Scorer) RecordTrial(responded, wasMatch bool) Outcome {
	o := Classify(responded, wasMatch)
	switch o {
	case Hit:
		s.tally.Hits++
	case Miss:
		s.tally.Misses++
	case FalseAlarm:
		s.tally.FalseAlarms++
	case CorrectRejection:
		s.tally.CorrectRejections++
	}
	return o
}

// Tally returns the current counters.
func (s *Scorer) Tally() Tally {
	return s.tally
}

// Results computes rates and the balanced accuracy.
//
// A rate whose denominator is zero is defined as 0, so a block without
// matches is scored on its correct-rejection rate alone (halved).
func (s *Scorer) Results() BlockResult {
	return ResultsFor(s.tally)
}

// ResultsFor computes a BlockResult from a tally.
func ResultsFor(t Tally) BlockResult {
	var hitRate, crRate float64
	if m := t.TotalMatches(); m > 0 {
		hitRate = float64(t.Hits) / float64(m)
	}
	if nm := t.TotalNonMatches(); nm > 0 {
		crRate = float64(t.CorrectRejections) / float64(nm)
	}
	return BlockResult{
		Tally:                t,
		HitRate:              hitRate,
		CorrectRejectionRate: crRate,
		Accuracy:             (hitRate + crRate) / 2,
	}
}
