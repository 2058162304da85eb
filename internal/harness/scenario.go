package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/nback/internal/stimulus"
)

// Scenario is one scripted block.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// N is the block level.
	N int `yaml:"n"`

	// Stimuli are the letters presented, in order.
	Stimuli []string `yaml:"stimuli"`

	// Matches optionally restates the match positions. When present it must
	// agree with Stimuli.
	Matches []int `yaml:"matches,omitempty"`

	// Presses lists the trials during which the player presses.
	Presses []int `yaml:"presses,omitempty"`

	// Control scripts pause/resume and stop.
	Control *Control `yaml:"control,omitempty"`

	// Expect holds the expected block outcome.
	Expect Expect `yaml:"expect"`

	// Assertions are checked against the trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Control scripts the engine's control methods. Both act during the
// trialStart of the given trial; a pause is lifted at that trial's trialEnd.
type Control struct {
	PauseAt *int `yaml:"pause_at,omitempty"`
	StopAt  *int `yaml:"stop_at,omitempty"`
}

// Expect is the expected outcome. Nil fields are not checked.
type Expect struct {
	Hits              *int `yaml:"hits,omitempty"`
	Misses            *int `yaml:"misses,omitempty"`
	FalseAlarms       *int `yaml:"false_alarms,omitempty"`
	CorrectRejections *int `yaml:"correct_rejections,omitempty"`
	NextLevel         *int `yaml:"next_level,omitempty"`
	Aborted           bool `yaml:"aborted,omitempty"`
}

// Assertion is a check on the trace.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Entry is matched against rendered entries as "<kind>" or
	// "<kind> <detail prefix>" (trace_contains, trace_count).
	Entry string `yaml:"entry,omitempty"`

	// Entries are expected in this relative order (trace_order).
	Entries []string `yaml:"entries,omitempty"`

	// Count is the exact number of matching entries (trace_count).
	Count int `yaml:"count,omitempty"`

	// State is the engine state after the block (final_state).
	State string `yaml:"state,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is inconsistent.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "press:" vs "presses:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml / *.yml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// Sequence builds the stimulus sequence the scenario describes.
func (s *Scenario) Sequence() (stimulus.Sequence, error) {
	symbols := make([]stimulus.Symbol, len(s.Stimuli))
	for i, l := range s.Stimuli {
		symbols[i] = stimulus.Symbol(l)
	}

	seq := stimulus.FromStimuli(s.N, symbols)
	if s.Matches != nil {
		seq.MatchPositions = slices.Clone(s.Matches)
	}
	if err := seq.Validate(); err != nil {
		return stimulus.Sequence{}, err
	}
	return seq, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.N < 1 || s.N > 9 {
		return fmt.Errorf("n must be in [1, 9], got %d", s.N)
	}

	if _, err := s.Sequence(); err != nil {
		return fmt.Errorf("stimuli: %w", err)
	}

	total := len(s.Stimuli)
	for _, p := range s.Presses {
		if p < 0 || p >= total {
			return fmt.Errorf("press at trial %d outside [0, %d)", p, total)
		}
	}

	if c := s.Control; c != nil {
		if c.PauseAt != nil && (*c.PauseAt < 0 || *c.PauseAt >= total) {
			return fmt.Errorf("pause_at %d outside [0, %d)", *c.PauseAt, total)
		}
		if c.StopAt != nil && (*c.StopAt < 0 || *c.StopAt >= total) {
			return fmt.Errorf("stop_at %d outside [0, %d)", *c.StopAt, total)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Entry == "" {
			return fmt.Errorf("assertion %d: trace_contains requires entry", index)
		}
	case AssertTraceOrder:
		if len(a.Entries) < 2 {
			return fmt.Errorf("assertion %d: trace_order requires at least 2 entries", index)
		}
	case AssertTraceCount:
		if a.Entry == "" {
			return fmt.Errorf("assertion %d: trace_count requires entry", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertion %d: trace_count count must be >= 0", index)
		}
	case AssertFinalState:
		if a.State == "" {
			return fmt.Errorf("assertion %d: final_state requires state", index)
		}
	default:
		return fmt.Errorf("assertion %d: unknown type %q", index, a.Type)
	}
	return nil
}
