package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAuditFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAuditCommand(t *testing.T) {
	t.Setenv("JELLOS_SECRET_DEVELOPMENT_AUDIT_ALPHA", "a-value")
	t.Setenv("JELLOS_SECRET_DEVELOPMENT_AUDIT_BETA", "b-value")

	path := writeAuditFile(t, "A=${secret:AUDIT_ALPHA}\nB=${secret:AUDIT_BETA}\n")

	cmd := NewAuditCommand(testConfig(t))
	output, err := captureOutput(t, cmd, []string{path})
	require.NoError(t, err)

	assert.Contains(t, output, "TIME")
	assert.Contains(t, output, "AUDIT_ALPHA")
	assert.Contains(t, output, "AUDIT_BETA")
	assert.Contains(t, output, "env")
	assert.Contains(t, output, "ok")

	// Values never appear in the log.
	assert.NotContains(t, output, "a-value")
	assert.NotContains(t, output, "b-value")
}

func TestAuditCommand_RecordsMisses(t *testing.T) {
	path := writeAuditFile(t, "X=${secret:AUDIT_NEVER_STORED}\n")

	cmd := NewAuditCommand(testConfig(t))
	output, err := captureOutput(t, cmd, []string{path})
	require.NoError(t, err)

	assert.Contains(t, output, "AUDIT_NEVER_STORED")
	assert.Contains(t, output, "not found in any available provider")
}

func TestAuditCommand_Limit(t *testing.T) {
	t.Setenv("JELLOS_SECRET_DEVELOPMENT_AUDIT_ONE", "1")
	t.Setenv("JELLOS_SECRET_DEVELOPMENT_AUDIT_TWO", "2")

	path := writeAuditFile(t, "A=${secret:AUDIT_ONE}\nB=${secret:AUDIT_TWO}\n")

	cmd := NewAuditCommand(testConfig(t))
	output, err := captureOutput(t, cmd, []string{path, "--limit", "1"})
	require.NoError(t, err)

	// Header, dashes, one entry.
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	assert.Len(t, lines, 3)
}

func TestAuditCommand_NoDefaultFile(t *testing.T) {
	cmd := NewAuditCommand(testConfig(t))
	output, err := captureOutput(t, cmd, []string{})
	require.NoError(t, err)

	assert.Contains(t, output, "No accesses recorded")
}

func TestAuditCommand_MissingExplicitFile(t *testing.T) {
	cmd := NewAuditCommand(testConfig(t))
	cmd.SetArgs([]string{"does-not-exist.env"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot read")
}
