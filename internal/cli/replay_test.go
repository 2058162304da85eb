package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nback/internal/store"
)

func TestReplay_EmptyDatabase(t *testing.T) {
	out, _, err := execute(t, "", "replay", "--db", tempDB(t))
	require.NoError(t, err)
	assert.Equal(t, "No blocks found in database.\n", out)
}

func TestReplay_DetectsTamperedTally(t *testing.T) {
	db := tempDB(t)
	res := simulatePerfect(t, db)

	tampered := res.Sessions[0]
	tampered.ID = "tampered"
	tampered.Tally.Hits++

	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.WriteSession(context.Background(), tampered))
	require.NoError(t, st.Close())

	out, _, err := execute(t, "", "replay", "--db", db, "--id", "tampered", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
		Error  *CLIError    `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_DETERMINISM", resp.Error.Code)
	require.Len(t, resp.Data.Sessions, 1)
	assert.False(t, resp.Data.Sessions[0].Deterministic)
	assert.Equal(t, "tally differs", resp.Data.Sessions[0].Reason)
}

func TestReplay_DetectsAlteredTrials(t *testing.T) {
	db := tempDB(t)
	res := simulatePerfect(t, db)

	// The first n trials can never be matches.
	tampered := res.Sessions[1]
	tampered.ID = "altered"
	tampered.Trials = append([]store.TrialRecord(nil), tampered.Trials...)
	tampered.Trials[0].Match = true

	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.WriteSession(context.Background(), tampered))
	require.NoError(t, st.Close())

	out, _, err := execute(t, "", "replay", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Replay Summary: 3 block(s)")
	assert.Contains(t, out, "trial 0: stored match=true, replayed match=false")
	assert.Contains(t, out, "Replay verification failed")
}

func TestReplay_MissingID(t *testing.T) {
	_, _, err := execute(t, "", "replay", "--db", tempDB(t), "--id", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, store.ErrNotFound)
}
