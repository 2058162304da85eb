package cli

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlay_HeadlessQuitBeforeFirstBlockEnds(t *testing.T) {
	out, errOut, err := execute(t, "q\n", "play", "--headless", "--db", tempDB(t))
	require.NoError(t, err)
	assert.Equal(t, "No blocks completed.\nNext level: 2\n", out)
	assert.Contains(t, errOut, "q = quit")
}

func TestPlay_LevelOverrideIsStored(t *testing.T) {
	db := tempDB(t)

	out, _, err := execute(t, "q\n", "play", "--headless", "--level", "3", "--db", db, "--format", "json")
	require.NoError(t, err)

	var res PlayResult
	decodeData(t, out, &res)
	assert.Empty(t, res.Sessions)
	assert.Equal(t, 3, res.NextLevel)

	out, _, err = execute(t, "", "level", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "Current level: 3-back\n", out)
}

func TestProgramOptions_RedirectsReplacedStreams(t *testing.T) {
	cmd := &cobra.Command{}
	assert.Empty(t, programOptions(cmd))

	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&strings.Builder{})
	assert.Len(t, programOptions(cmd), 2)
}

func TestLogFile(t *testing.T) {
	w, closeLog, err := logFile("")
	require.NoError(t, err)
	closeLog()
	assert.NotNil(t, w)

	_, _, err = logFile("/nonexistent/dir/nback.log")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
