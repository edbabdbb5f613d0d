package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-jelly/jellos-sub002/internal/config"
	"github.com/dev-jelly/jellos-sub002/internal/logging"
)

// testConfig returns a Config pointing at a path with no file behind
// it, so every built-in default applies.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Path:   filepath.Join(t.TempDir(), "jellos.yaml"),
		Logger: logging.New(false, true),
	}
}

// writeConfigFile writes a jellos.yaml and returns a Config loading it.
func writeConfigFile(t *testing.T, content string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jellos.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return &config.Config{
		Path:   path,
		Logger: logging.New(false, true),
	}
}

// captureOutput runs the command with args and returns what it wrote
// to stdout, plus the execution error.
func captureOutput(t *testing.T, cmd *cobra.Command, args []string) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	if args != nil {
		cmd.SetArgs(args)
	}
	execErr := cmd.Execute()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String(), execErr
}

func TestGetCommand_BasicUsage(t *testing.T) {
	t.Setenv("JELLOS_SECRET_DEVELOPMENT_DATABASE_URL", "postgres://localhost/testdb")
	t.Setenv("JELLOS_SECRET_PRODUCTION_API_KEY", "prod-api-key-123")

	t.Run("bare key resolves in the default namespace", func(t *testing.T) {
		cmd := NewGetCommand(testConfig(t))
		output, err := captureOutput(t, cmd, []string{"DATABASE_URL"})
		require.NoError(t, err)

		// Raw output is just the value, no trailing newline.
		assert.Equal(t, "postgres://localhost/testdb", output)
	})

	t.Run("qualified key resolves in its namespace", func(t *testing.T) {
		cmd := NewGetCommand(testConfig(t))
		output, err := captureOutput(t, cmd, []string{"production/API_KEY"})
		require.NoError(t, err)

		assert.Equal(t, "prod-api-key-123", output)
	})
}

func TestGetCommand_JSONOutput(t *testing.T) {
	t.Setenv("JELLOS_SECRET_DEVELOPMENT_DATABASE_URL", "postgres://localhost/testdb")

	cmd := NewGetCommand(testConfig(t))
	output, err := captureOutput(t, cmd, []string{"DATABASE_URL", "--json"})
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &result))

	assert.Equal(t, "DATABASE_URL", result["key"])
	assert.Equal(t, "development", result["namespace"])
	assert.Equal(t, "postgres://localhost/testdb", result["value"])
	assert.Equal(t, "env", result["source"])
	assert.Equal(t, false, result["fromCache"])
}

func TestGetCommand_NotFound(t *testing.T) {
	cmd := NewGetCommand(testConfig(t))
	cmd.SetArgs([]string{"NO_SUCH_KEY_XYZ"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Contains(t, err.Error(), "jellos doctor")
}

func TestGetCommand_InvalidKey(t *testing.T) {
	cmd := NewGetCommand(testConfig(t))
	cmd.SetArgs([]string{"a/b/c"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid key")
}

func TestGetCommand_ConfiguredNamespace(t *testing.T) {
	t.Setenv("JELLOS_SECRET_STAGING_SERVICE_TOKEN", "staging-token")

	cfg := writeConfigFile(t, "defaultNamespace: staging\n")
	cmd := NewGetCommand(cfg)
	output, err := captureOutput(t, cmd, []string{"SERVICE_TOKEN"})
	require.NoError(t, err)

	assert.Equal(t, "staging-token", output)
}

func TestGetCommand_NamespaceFlagOverride(t *testing.T) {
	t.Setenv("JELLOS_SECRET_QA_SERVICE_TOKEN", "qa-token")

	// The root command copies --namespace into cfg before RunE; tests
	// set the field directly.
	cfg := testConfig(t)
	cfg.Namespace = "qa"

	cmd := NewGetCommand(cfg)
	output, err := captureOutput(t, cmd, []string{"SERVICE_TOKEN"})
	require.NoError(t, err)

	assert.Equal(t, "qa-token", output)
}

func TestGetCommand_SpecialCharacterValues(t *testing.T) {
	t.Setenv("JELLOS_SECRET_DEVELOPMENT_MULTILINE", "line1\nline2\nline3")
	t.Setenv("JELLOS_SECRET_DEVELOPMENT_WITH_QUOTES", `value with "quotes" and 'apostrophes'`)

	t.Run("multiline value", func(t *testing.T) {
		cmd := NewGetCommand(testConfig(t))
		output, err := captureOutput(t, cmd, []string{"MULTILINE"})
		require.NoError(t, err)
		assert.Equal(t, "line1\nline2\nline3", output)
	})

	t.Run("quotes in value", func(t *testing.T) {
		cmd := NewGetCommand(testConfig(t))
		output, err := captureOutput(t, cmd, []string{"WITH_QUOTES"})
		require.NoError(t, err)
		assert.Equal(t, `value with "quotes" and 'apostrophes'`, output)
	})
}
