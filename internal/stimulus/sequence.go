package stimulus

import (
	"fmt"
	"sort"
)

// Sequence is the immutable stimulus list for one block.
type Sequence struct {
	Stimuli        []Symbol `json:"stimuli"`
	N              int      `json:"n"`
	TotalTrials    int      `json:"total_trials"`
	MatchPositions []int    `json:"match_positions"` // ascending
	Seed           uint64   `json:"seed"`
}

// IsMatch reports whether trial i is a match position.
func (s Sequence) IsMatch(i int) bool {
	idx := sort.SearchInts(s.MatchPositions, i)
	return idx < len(s.MatchPositions) && s.MatchPositions[idx] == i
}

// MatchCount returns the number of match positions.
func (s Sequence) MatchCount() int {
	return len(s.MatchPositions)
}

// Validate checks every structural invariant of a sequence. Generated
// sequences always pass; hand-written ones (scenarios, tests) may not.
func (s Sequence) Validate() error {
	if s.N < 1 {
		return fmt.Errorf("n must be >= 1, got %d", s.N)
	}
	if s.TotalTrials < s.N+1 {
		return fmt.Errorf("total trials %d must be >= n+1 (%d)", s.TotalTrials, s.N+1)
	}
	if len(s.Stimuli) != s.TotalTrials {
		return fmt.Errorf("stimuli length %d != total trials %d", len(s.Stimuli), s.TotalTrials)
	}
	if !sort.IntsAreSorted(s.MatchPositions) {
		return fmt.Errorf("match positions are not sorted: %v", s.MatchPositions)
	}

	for i, p := range s.MatchPositions {
		if i > 0 && s.MatchPositions[i-1] == p {
			return fmt.Errorf("duplicate match position %d", p)
		}
		if p < s.N || p >= s.TotalTrials {
			return fmt.Errorf("match position %d outside [%d, %d)", p, s.N, s.TotalTrials)
		}
	}

	for i := s.N; i < s.TotalTrials; i++ {
		same := s.Stimuli[i] == s.Stimuli[i-s.N]
		if s.IsMatch(i) && !same {
			return fmt.Errorf("position %d is marked as a match but %q != %q", i, s.Stimuli[i], s.Stimuli[i-s.N])
		}
		if !s.IsMatch(i) && same {
			return fmt.Errorf("position %d repeats %q from %d back but is not marked as a match", i, s.Stimuli[i], s.N)
		}
	}
	return nil
}

// FromStimuli builds a Sequence from an explicit stimulus list, deriving the
// match positions by comparing each symbol with the one n steps back.
func FromStimuli(n int, stimuli []Symbol) Sequence {
	seq := Sequence{
		Stimuli:        append([]Symbol(nil), stimuli...),
		N:              n,
		TotalTrials:    len(stimuli),
		MatchPositions: []int{},
	}
	if n < 1 {
		return seq
	}
	for i := n; i < len(stimuli); i++ {
		if stimuli[i] == stimuli[i-n] {
			seq.MatchPositions = append(seq.MatchPositions, i)
		}
	}
	return seq
}
