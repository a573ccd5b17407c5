package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand_Valid(t *testing.T) {
	dir := writeFixture(t, nil)
	path := filepath.Join(dir, "stores.cue")

	out, errOut, err := execute(t, "validate", path, "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+path+" (2 stores)")
	assert.Contains(t, errOut, "counts: sum int64")
	assert.Contains(t, errOut, "low: set_min bigdecimal")
}

func TestValidateCommand_ValidJSON(t *testing.T) {
	dir := writeFixture(t, nil)

	out, _, err := execute(t, "validate", filepath.Join(dir, "stores.cue"), "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, []DeclaredStore{
		{Name: "counts", Policy: "sum", Domain: "int64"},
		{Name: "low", Policy: "set_min", Domain: "bigdecimal"},
	}, resp.Data.Stores)
}

func TestValidateCommand_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.cue")
	require.NoError(t, os.WriteFile(path, []byte(`stores: {x: {policy: "avg", domain: "int64"}}`), 0644))

	out, _, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ "+path)
	assert.Contains(t, out, "policy")

	out, _, err = execute(t, "validate", path, "--format", "json")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidInput, resp.Error.Code)
}

func TestValidateCommand_NotFound(t *testing.T) {
	out, _, err := execute(t, "validate", "/nonexistent/stores.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]: manifest not found")
}
