package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// marshalTrials converts trial records to JSON TEXT for storage.
func marshalTrials(trials []TrialRecord) (string, error) {
	if len(trials) == 0 {
		return "[]", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(trials); err != nil {
		return "", fmt.Errorf("marshal trials: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalTrials parses JSON TEXT back into trial records.
// Returns an empty (non-nil) slice for "[]" or "".
func unmarshalTrials(data string) ([]TrialRecord, error) {
	if data == "" || data == "[]" {
		return []TrialRecord{}, nil
	}
	var trials []TrialRecord
	if err := json.Unmarshal([]byte(data), &trials); err != nil {
		return nil, fmt.Errorf("unmarshal trials: %w", err)
	}
	return trials, nil
}

// toMillis stores times as unix milliseconds.
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// fromMillis restores a UTC time from unix milliseconds.
func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
