package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nback/internal/engine"
)

func TestScenariosMatchGolden(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.Len(t, scenarios, 4)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRunReportsOutcome(t *testing.T) {
	s := mustParse(t, `
name: outcome
description: two hits at n=1
n: 1
stimuli: [A, A, A]
presses: [1, 2]
`)

	result, err := Run(s)
	require.NoError(t, err)
	require.NotNil(t, result.Outcome)

	assert.Equal(t, 2, result.Outcome.Results.Hits)
	assert.Equal(t, 1, result.Outcome.Results.CorrectRejections)
	assert.Equal(t, 2, result.Outcome.NextLevel)
	assert.Equal(t, engine.StateComplete, result.FinalState)
	assert.True(t, result.Pass)
}

func TestRunFailsOnWrongExpectation(t *testing.T) {
	s := mustParse(t, `
name: wrong
description: expects a hit that never happens
n: 1
stimuli: [A, A]
expect:
  hits: 1
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "hits: expected 1, got 0", result.Errors[0])
}

func TestRunAbortedExpectation(t *testing.T) {
	s := mustParse(t, `
name: not_aborted
description: the block completes but the scenario expects a stop
n: 1
stimuli: [A, B]
expect:
  aborted: true
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors, "expected an aborted block, got a result")
}

func TestRunContextCancelled(t *testing.T) {
	s := mustParse(t, `
name: cancelled
description: never runs
n: 1
stimuli: [A, B]
`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunContext(ctx, s)
	require.ErrorIs(t, err, context.Canceled)
}

func TestTraceIsReproducible(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "pause_resume.yaml"))
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, Render(first.Trace), Render(second.Trace))
}

func TestCompareAndWriteGolden(t *testing.T) {
	dir := t.TempDir()
	trace := []TraceEntry{
		{Step: 1, Kind: "blockStart", Detail: "n=1 trials=2"},
		{Step: 2, Kind: "paused"},
	}

	ok, err := CompareGolden(dir, "missing", trace)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, WriteGolden(dir, "written", trace))

	ok, err = CompareGolden(dir, "written", trace)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CompareGolden(dir, "written", trace[:1])
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, filepath.Join(dir, "written.golden"), GoldenPath(dir, "written"))
}

func TestTraceEntryString(t *testing.T) {
	assert.Equal(t, "007 sound         hit", TraceEntry{Step: 7, Kind: KindSound, Detail: "hit"}.String())
	assert.Equal(t, "012 resumed", TraceEntry{Step: 12, Kind: "resumed"}.String())
	assert.Equal(t, "001 blockStart    n=2 trials=21\n002 stopped\n",
		string(Render([]TraceEntry{
			{Step: 1, Kind: "blockStart", Detail: "n=2 trials=21"},
			{Step: 2, Kind: "stopped"},
		})))
}

func mustParse(t *testing.T, doc string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(doc))
	require.NoError(t, err)
	return s
}
