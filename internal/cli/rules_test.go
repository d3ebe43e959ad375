package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/customobjects/internal/rules"
)

func executeRules(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewRulesCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRulesDefaultText(t *testing.T) {
	out, err := executeRules(t, "text")
	require.NoError(t, err)

	assert.Contains(t, out, "Rule table: rules.cue (48 rules)")
	assert.Contains(t, out, "known_bad (6)")
	assert.Contains(t, out, "keyword (10)")
	assert.Contains(t, out, "blueprint_keyword (16)")
	assert.Contains(t, out, "scene_category (12)")
	assert.Contains(t, out, "problem_mesh (4)")
	assert.Contains(t, out, "/Game/Game/Actors/Weapons/")
}

func TestRulesDefaultJSON(t *testing.T) {
	out, err := executeRules(t, "json")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   RulesResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "rules.cue", resp.Data.Origin)
	assert.Equal(t, 48, resp.Data.Count)
	require.Len(t, resp.Data.Rules, 48)
	assert.Equal(t, rules.StageKnownBad, resp.Data.Rules[0].Stage)
}

func TestRulesCustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.cue")
	require.NoError(t, os.WriteFile(path, []byte(`
rules: [
	{pattern: "Fence", stage: "keyword", reason: "fence"},
	{pattern: "BP_Crate_", stage: "scene_category", reason: ""},
]
`), 0644))

	out, err := executeRules(t, "text", "--rules", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Rule table: "+path+" (2 rules)")
	assert.Contains(t, out, "keyword (1)")
	assert.Contains(t, out, "known_bad (0)")
	assert.Contains(t, out, "Fence")
	assert.Contains(t, out, "BP_Crate_")
}

func TestRulesInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.cue")
	require.NoError(t, os.WriteFile(path, []byte("rules: [{pattern: \"Door\", stage:\n"), 0644))

	out, err := executeRules(t, "json", "--rules", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeRules, resp.Error.Code)

	details, ok := resp.Error.Details.(map[string]interface{})
	require.True(t, ok, "details should carry the CUE position")
	assert.Equal(t, path, details["file"])
}

func TestRulesMissingFile(t *testing.T) {
	_, err := executeRules(t, "text", "--rules", "/nonexistent/rules.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}
