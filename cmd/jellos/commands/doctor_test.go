package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDoctorCommand(t *testing.T) {
	cmd := NewDoctorCommand(testConfig(t))

	// Whether the run errors depends on which stores exist on this
	// machine; the env provider row and the summary are always there.
	output, _ := captureOutput(t, cmd, []string{})

	assert.Contains(t, output, "PROVIDER")
	assert.Contains(t, output, "STATUS")
	assert.Contains(t, output, "AUTH")
	assert.Contains(t, output, "env")
	assert.Contains(t, output, "✓ healthy")
	assert.Contains(t, output, "Summary: ")
	assert.Contains(t, output, "/3 providers healthy")
}

func TestDoctorCommand_ConfigError(t *testing.T) {
	cfg := writeConfigFile(t, "defaultNamespase: oops\n")
	cmd := NewDoctorCommand(cfg)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	assert.Error(t, err)
}

func TestLatencyString(t *testing.T) {
	assert.Equal(t, "-", latencyString(0))
	assert.Equal(t, "<1ms", latencyString(500_000))
	assert.Equal(t, "12ms", latencyString(12_400_000))
}

func TestAuthString(t *testing.T) {
	yes, no := true, false
	assert.Equal(t, "-", authString(nil))
	assert.Equal(t, "yes", authString(&yes))
	assert.Equal(t, "no", authString(&no))
}
