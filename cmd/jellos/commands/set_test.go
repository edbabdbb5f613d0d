package commands

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCommand_FromStdin(t *testing.T) {
	t.Setenv("JELLOS_SECRET_DEVELOPMENT_NEW_TOKEN", "")

	cmd := NewSetCommand(testConfig(t))
	cmd.SetIn(strings.NewReader("stdin-secret\n"))
	output, err := captureOutput(t, cmd, []string{"NEW_TOKEN", "--stdin", "--provider", "env"})
	require.NoError(t, err)

	assert.Equal(t, "Stored development/NEW_TOKEN in env\n", output)
	assert.Equal(t, "stdin-secret", os.Getenv("JELLOS_SECRET_DEVELOPMENT_NEW_TOKEN"))
}

func TestSetCommand_TrailingNewlineStripped(t *testing.T) {
	t.Setenv("JELLOS_SECRET_DEVELOPMENT_CRLF_TOKEN", "")

	cmd := NewSetCommand(testConfig(t))
	cmd.SetIn(strings.NewReader("windows-value\r\n"))
	_, err := captureOutput(t, cmd, []string{"CRLF_TOKEN", "--stdin", "--provider", "env"})
	require.NoError(t, err)

	assert.Equal(t, "windows-value", os.Getenv("JELLOS_SECRET_DEVELOPMENT_CRLF_TOKEN"))
}

func TestSetCommand_ValueArgument(t *testing.T) {
	t.Setenv("JELLOS_SECRET_DEVELOPMENT_ARG_TOKEN", "")

	cmd := NewSetCommand(testConfig(t))
	output, err := captureOutput(t, cmd, []string{"ARG_TOKEN", "inline-value", "--provider", "env"})
	require.NoError(t, err)

	assert.Contains(t, output, "Stored development/ARG_TOKEN in env")
	assert.Equal(t, "inline-value", os.Getenv("JELLOS_SECRET_DEVELOPMENT_ARG_TOKEN"))
}

func TestSetCommand_QualifiedKey(t *testing.T) {
	t.Setenv("JELLOS_SECRET_PRODUCTION_PIN_TOKEN", "")

	cmd := NewSetCommand(testConfig(t))
	cmd.SetIn(strings.NewReader("prod-value"))
	output, err := captureOutput(t, cmd, []string{"production/PIN_TOKEN", "--stdin", "--provider", "env"})
	require.NoError(t, err)

	assert.Equal(t, "Stored production/PIN_TOKEN in env\n", output)
	assert.Equal(t, "prod-value", os.Getenv("JELLOS_SECRET_PRODUCTION_PIN_TOKEN"))
}

func TestSetCommand_Errors(t *testing.T) {
	t.Run("no value", func(t *testing.T) {
		cmd := NewSetCommand(testConfig(t))
		cmd.SetArgs([]string{"SOME_KEY"})

		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "No value provided")
	})

	t.Run("both value and stdin", func(t *testing.T) {
		cmd := NewSetCommand(testConfig(t))
		cmd.SetIn(strings.NewReader("x"))
		cmd.SetArgs([]string{"SOME_KEY", "value", "--stdin"})

		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Both a VALUE argument and --stdin")
	})

	t.Run("empty stdin", func(t *testing.T) {
		cmd := NewSetCommand(testConfig(t))
		cmd.SetIn(strings.NewReader(""))
		cmd.SetArgs([]string{"SOME_KEY", "--stdin"})

		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Empty value from stdin")
	})

	t.Run("unknown provider", func(t *testing.T) {
		cmd := NewSetCommand(testConfig(t))
		cmd.SetArgs([]string{"SOME_KEY", "value", "--provider", "onepassword"})

		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unknown provider 'onepassword'")
		assert.Contains(t, err.Error(), "credential-store")
	})

	t.Run("invalid key", func(t *testing.T) {
		cmd := NewSetCommand(testConfig(t))
		cmd.SetArgs([]string{"a/b/c", "value"})

		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid key")
	})
}
