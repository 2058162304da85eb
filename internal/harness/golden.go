package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenSuffix is the golden file extension.
const GoldenSuffix = ".golden"

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(GoldenSuffix),
	)
	g.Assert(t, scenarioName, Render(result.Trace))
}

// GoldenPath returns the golden file for a scenario under dir.
func GoldenPath(dir, scenarioName string) string {
	return filepath.Join(dir, scenarioName+GoldenSuffix)
}

// CompareGolden compares a trace with its golden file under dir outside of
// tests. A missing golden file is reported as a mismatch.
func CompareGolden(dir, scenarioName string, trace []TraceEntry) (bool, error) {
	want, err := os.ReadFile(GoldenPath(dir, scenarioName))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read golden: %w", err)
	}
	return bytes.Equal(want, Render(trace)), nil
}

// WriteGolden writes (or replaces) a scenario's golden file under dir.
func WriteGolden(dir, scenarioName string, trace []TraceEntry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create golden dir: %w", err)
	}
	if err := os.WriteFile(GoldenPath(dir, scenarioName), Render(trace), 0o644); err != nil {
		return fmt.Errorf("write golden: %w", err)
	}
	return nil
}
