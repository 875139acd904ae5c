package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommandStructure(t *testing.T) {
	assert.NotNil(t, validateCmd)
	assert.Equal(t, "validate", validateCmd.Use)
	assert.NotEmpty(t, validateCmd.Short)
	assert.NotNil(t, validateCmd.RunE)
	assert.Contains(t, validateCmd.Long, "Checks performed")
	assert.Contains(t, validateCmd.Long, "pealscope validate")
}

func TestValidateAllGood(t *testing.T) {
	dir := pealDir(t, map[string]string{
		"four.txt":  plainHuntFour,
		"three.txt": plainChangesThree,
	})

	_, report, err := executeCommand(t, "validate", "--config", missingConfig(t), "-i", dir, "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, report, "Configuration Validation")
	assert.Contains(t, report, "four.txt (stage 4, 9 rows)")
	assert.Contains(t, report, "three.txt (stage 3, 7 rows)")
	assert.Contains(t, report, "Validation Complete")
}

func TestValidateReportsFailures(t *testing.T) {
	dir := pealDir(t, map[string]string{
		"four.txt":   plainHuntFour,
		"broken.txt": brokenPeal,
		"empty.txt":  "# title: nothing here\n",
	})

	_, report, err := executeCommand(t, "validate", "--config", missingConfig(t), "-i", dir, "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 item(s)")
	assert.Contains(t, report, "broken.txt")
	assert.Contains(t, report, "empty.txt")
	assert.NotContains(t, report, "Validation Complete")
}

func TestValidateMissingInput(t *testing.T) {
	_, _, err := executeCommand(t, "validate", "--config", missingConfig(t), "-i", "/nonexistent/peals")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to discover peal files")
}
