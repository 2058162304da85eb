package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEntry // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, entry := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", entry)
		}
	}

	return buf.String()
}

// assertTraceContains checks that some entry matches assertion.Entry.
func assertTraceContains(trace []TraceEntry, assertion Assertion) error {
	for _, entry := range trace {
		if entry.matches(assertion.Entry) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("entry %q", assertion.Entry),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the entries appear in the specified order.
// Entries don't need to be consecutive. Each pattern is matched at its
// first occurrence after the previous pattern's match.
func assertTraceOrder(trace []TraceEntry, assertion Assertion) error {
	pos := 0
	for _, pattern := range assertion.Entries {
		found := false
		for ; pos < len(trace); pos++ {
			if trace[pos].matches(pattern) {
				found = true
				pos++
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("entries in order: %v", assertion.Entries),
				Actual:   fmt.Sprintf("%q not found after step %d", pattern, stepBefore(trace, pos)),
				Trace:    trace,
			}
		}
	}
	return nil
}

func stepBefore(trace []TraceEntry, pos int) int64 {
	if pos == 0 || len(trace) == 0 {
		return 0
	}
	return trace[min(pos, len(trace))-1].Step
}

// assertTraceCount checks that exactly Count entries match.
func assertTraceCount(trace []TraceEntry, assertion Assertion) error {
	count := 0
	for _, entry := range trace {
		if entry.matches(assertion.Entry) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %q", assertion.Count, assertion.Entry),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertFinalState checks the engine state after the block.
func assertFinalState(result *Result, assertion Assertion) error {
	if string(result.FinalState) != assertion.State {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("state %s", assertion.State),
			Actual:   fmt.Sprintf("state %s", result.FinalState),
		}
	}
	return nil
}

// EvaluateAssertions checks every assertion and returns the failure
// messages (empty when all pass).
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalState:
			err = assertFinalState(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}
