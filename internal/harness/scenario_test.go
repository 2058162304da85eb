package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario(t *testing.T) {
	s := mustParse(t, `
name: parsed
description: all fields
n: 2
stimuli: [C, H, C]
matches: [2]
presses: [2]
control:
  pause_at: 1
expect:
  hits: 1
assertions:
  - type: trace_contains
    entry: paused
`)

	assert.Equal(t, "parsed", s.Name)
	assert.Equal(t, 2, s.N)
	assert.Equal(t, []string{"C", "H", "C"}, s.Stimuli)
	require.NotNil(t, s.Control)
	require.NotNil(t, s.Control.PauseAt)
	assert.Equal(t, 1, *s.Control.PauseAt)
	assert.Nil(t, s.Control.StopAt)
	require.NotNil(t, s.Expect.Hits)
	assert.Equal(t, 1, *s.Expect.Hits)
	assert.Nil(t, s.Expect.Misses)

	seq, err := s.Sequence()
	require.NoError(t, err)
	assert.Equal(t, []int{2}, seq.MatchPositions)
	assert.Equal(t, 3, seq.TotalTrials)
}

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "unknown field",
			doc:  "name: x\ndescription: d\nn: 1\nstimuli: [A, B]\npress: [1]\n",
			want: "failed to parse YAML",
		},
		{
			name: "missing name",
			doc:  "description: d\nn: 1\nstimuli: [A, B]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			doc:  "name: x\nn: 1\nstimuli: [A, B]\n",
			want: "description is required",
		},
		{
			name: "n out of range",
			doc:  "name: x\ndescription: d\nn: 10\nstimuli: [A, B]\n",
			want: "n must be in [1, 9]",
		},
		{
			name: "too few stimuli",
			doc:  "name: x\ndescription: d\nn: 2\nstimuli: [A, B]\n",
			want: "stimuli",
		},
		{
			name: "matches disagree with stimuli",
			doc:  "name: x\ndescription: d\nn: 1\nstimuli: [A, B, B]\nmatches: [1]\n",
			want: "stimuli",
		},
		{
			name: "press out of range",
			doc:  "name: x\ndescription: d\nn: 1\nstimuli: [A, B]\npresses: [2]\n",
			want: "press at trial 2",
		},
		{
			name: "pause out of range",
			doc:  "name: x\ndescription: d\nn: 1\nstimuli: [A, B]\ncontrol:\n  pause_at: -1\n",
			want: "pause_at -1",
		},
		{
			name: "stop out of range",
			doc:  "name: x\ndescription: d\nn: 1\nstimuli: [A, B]\ncontrol:\n  stop_at: 5\n",
			want: "stop_at 5",
		},
		{
			name: "unknown assertion",
			doc:  "name: x\ndescription: d\nn: 1\nstimuli: [A, B]\nassertions:\n  - type: nope\n",
			want: `unknown type "nope"`,
		},
		{
			name: "order needs two entries",
			doc:  "name: x\ndescription: d\nn: 1\nstimuli: [A, B]\nassertions:\n  - type: trace_order\n    entries: [blockStart]\n",
			want: "at least 2 entries",
		},
		{
			name: "final state needs state",
			doc:  "name: x\ndescription: d\nn: 1\nstimuli: [A, B]\nassertions:\n  - type: final_state\n",
			want: "final_state requires state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenariosSortsAndReportsFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, doc string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(doc), 0o644))
	}
	write("b.yaml", "name: b\ndescription: d\nn: 1\nstimuli: [A, B]\n")
	write("a.yml", "name: a\ndescription: d\nn: 1\nstimuli: [A, B]\n")
	write("notes.txt", "ignored")

	scenarios, err := LoadScenarios(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "a", scenarios[0].Name)
	assert.Equal(t, "b", scenarios[1].Name)

	write("c.yaml", "name: c\n")
	_, err = LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "c.yaml")
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
