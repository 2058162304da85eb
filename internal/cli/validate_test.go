package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nback.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `
alphabet: [C, H, K, L, Q, R, S, T]
isi: 2500ms
response_window: 2s
match_rate: 0.3
thresholds:
  increase: 0.9
  decrease: 0.6
levels:
  min: 1
  max: 6
start_level: 3
`

func TestValidate_ValidConfig(t *testing.T) {
	out, _, err := execute(t, "", "validate", writeConfig(t, validConfig))
	require.NoError(t, err)
	assert.Contains(t, out, "Config is valid")
}

func TestValidate_UsesConfigFlag(t *testing.T) {
	out, _, err := execute(t, "", "validate", "--config", writeConfig(t, validConfig), "--format", "json")
	require.NoError(t, err)

	var res ValidationResult
	decodeData(t, out, &res)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestValidate_ReportsViolation(t *testing.T) {
	path := writeConfig(t, "alphabet: [A]\n")

	out, _, err := execute(t, "", "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "validation error(s)")
	assert.Contains(t, out, "alphabet")
}

func TestValidate_InvalidConfigJSON(t *testing.T) {
	out, _, err := execute(t, "", "validate", writeConfig(t, "match_rate: 2\n"), "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_INVALID_CONFIG", resp.Error.Code)
}

func TestValidate_UnknownKeyIsCommandError(t *testing.T) {
	out, _, err := execute(t, "", "validate", writeConfig(t, "bogus: 1\n"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E_CONFIG")
}

func TestValidate_NoPath(t *testing.T) {
	out, _, err := execute(t, "", "validate")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E_USAGE")
}

func TestValidate_Scenarios(t *testing.T) {
	out, _, err := execute(t, "", "validate", writeConfig(t, validConfig), "--scenarios", testScenariosDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Config is valid (4 scenarios)")
}
