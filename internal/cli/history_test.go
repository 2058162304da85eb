package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nback/internal/scoring"
	"github.com/roach88/nback/internal/store"
)

// seedSessions writes count blocks at level 2 into db, one minute apart.
func seedSessions(t *testing.T, db string, count int) {
	t.Helper()

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := range count {
		require.NoError(t, st.WriteSession(context.Background(), store.Session{
			ID:                   fmt.Sprintf("block-%d", i),
			N:                    2,
			NextLevel:            2,
			TotalTrials:          22,
			Tally:                scoring.Tally{Hits: 4, Misses: 2, FalseAlarms: 1, CorrectRejections: 13},
			HitRate:              4.0 / 6,
			CorrectRejectionRate: 13.0 / 14,
			Accuracy:             0.798,
			Seed:                 uint64(i + 1),
			StartedAt:            base.Add(time.Duration(i) * time.Minute),
			CompletedAt:          base.Add(time.Duration(i)*time.Minute + 50*time.Second),
		}))
	}
}

func TestHistory_Empty(t *testing.T) {
	out, _, err := execute(t, "", "history", "--db", tempDB(t))
	require.NoError(t, err)
	assert.Equal(t, "No blocks saved yet.\n", out)
}

func TestHistory_LimitNotesTotal(t *testing.T) {
	db := tempDB(t)
	seedSessions(t, db, 3)

	out, _, err := execute(t, "", "history", "--db", db, "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "block-2")
	assert.Contains(t, out, "block-1")
	assert.NotContains(t, out, "block-0")
	assert.Contains(t, out, "(2 of 3 blocks)")
	assert.Contains(t, out, "n=2  acc= 79.8%  H=4 M=2 FA=1 CR=13  next=2")
}

func TestHistory_ShowMissingBlock(t *testing.T) {
	out, _, err := execute(t, "", "history", "--db", tempDB(t), "--id", "nope", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_NOT_FOUND", resp.Error.Code)
}

func TestStats_Empty(t *testing.T) {
	out, _, err := execute(t, "", "stats", "--db", tempDB(t))
	require.NoError(t, err)
	assert.Equal(t, "No blocks saved yet.\n", out)
}

func TestStats_Text(t *testing.T) {
	db := tempDB(t)
	seedSessions(t, db, 2)

	out, _, err := execute(t, "", "stats", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "2 blocks")
	assert.Contains(t, out, "levels       best 2  latest 2  next 2")
	assert.Contains(t, out, "trend        +0.0 points")
	assert.Contains(t, out, "2-back    2 blocks")
}
