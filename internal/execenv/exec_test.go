package execenv

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jerrors "github.com/dev-jelly/jellos-sub002/internal/errors"
	"github.com/dev-jelly/jellos-sub002/internal/logging"
	"github.com/dev-jelly/jellos-sub002/internal/masking"
)

func newTestExecutor(tracker *masking.Tracker) *Executor {
	return New(logging.NewWithWriter(io.Discard, false, true), tracker)
}

func TestExecMasksChildOutput(t *testing.T) {
	tracker := masking.NewTracker()
	tracker.Track("hunter2")

	var out bytes.Buffer
	err := newTestExecutor(tracker).Exec(context.Background(), ExecOptions{
		Command: []string{"sh", "-c", "echo the password is hunter2"},
		Stdout:  &out,
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "the password is hunt***")
	assert.NotContains(t, out.String(), "hunter2")
}

func TestExecMasksStderr(t *testing.T) {
	tracker := masking.NewTracker()
	tracker.Track("tok-s3cret-value")

	var errOut bytes.Buffer
	err := newTestExecutor(tracker).Exec(context.Background(), ExecOptions{
		Command: []string{"sh", "-c", "echo leaking tok-s3cret-value >&2"},
		Stderr:  &errOut,
	})
	require.NoError(t, err)

	assert.NotContains(t, errOut.String(), "tok-s3cret-value")
	assert.Contains(t, errOut.String(), "tok-")
}

func TestExecMasksPartialLastLine(t *testing.T) {
	tracker := masking.NewTracker()
	tracker.Track("hunter2")

	// printf emits no trailing newline; the deferred Flush must still
	// mask the buffered tail.
	var out bytes.Buffer
	err := newTestExecutor(tracker).Exec(context.Background(), ExecOptions{
		Command: []string{"sh", "-c", "printf hunter2"},
		Stdout:  &out,
	})
	require.NoError(t, err)
	assert.Equal(t, "hunt***", out.String())
}

func TestExecPreservesExitCode(t *testing.T) {
	err := newTestExecutor(nil).Exec(context.Background(), ExecOptions{
		Command: []string{"sh", "-c", "exit 3"},
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	})
	require.Error(t, err)

	var exitErr ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.Code)
}

func TestExecEmptyCommand(t *testing.T) {
	err := newTestExecutor(nil).Exec(context.Background(), ExecOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No command specified")
}

func TestExecCommandNotFound(t *testing.T) {
	err := newTestExecutor(nil).Exec(context.Background(), ExecOptions{
		Command: []string{"this_command_does_not_exist_12345"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestExecTimeout(t *testing.T) {
	err := newTestExecutor(nil).Exec(context.Background(), ExecOptions{
		Command: []string{"sh", "-c", "sleep 5"},
		Timeout: 1,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	})
	require.Error(t, err)

	var cmdErr jerrors.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Contains(t, cmdErr.Message, "timed out")
}

func TestExecWorkingDir(t *testing.T) {
	dir := t.TempDir()

	var out bytes.Buffer
	err := newTestExecutor(nil).Exec(context.Background(), ExecOptions{
		Command:    []string{"sh", "-c", "pwd"},
		WorkingDir: dir,
		Stdout:     &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), filepath.Base(dir))
}

func TestPrintEnvironment(t *testing.T) {
	t.Run("masks values and sorts names", func(t *testing.T) {
		t.Setenv("JELLOSEXEC_API_KEY", "supersecretkey123")
		t.Setenv("JELLOSEXEC_AAA", "aaaa-value")

		var out bytes.Buffer
		newTestExecutor(nil).printEnvironment(&out,
			[]string{"JELLOSEXEC_API_KEY", "JELLOSEXEC_AAA"})

		output := out.String()
		assert.Contains(t, output, "Loaded 2 environment variables")
		assert.Contains(t, output, "JELLOSEXEC_API_KEY=supe")
		assert.NotContains(t, output, "supersecretkey123")
		assert.Less(t,
			strings.Index(output, "JELLOSEXEC_AAA"),
			strings.Index(output, "JELLOSEXEC_API_KEY"))
	})

	t.Run("reports when nothing was loaded", func(t *testing.T) {
		var out bytes.Buffer
		newTestExecutor(nil).printEnvironment(&out, nil)
		assert.Contains(t, out.String(), "No environment variables loaded")
	})
}

func TestValidateCommand(t *testing.T) {
	t.Parallel()

	t.Run("empty command", func(t *testing.T) {
		t.Parallel()
		err := ValidateCommand(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "No command specified")
	})

	t.Run("existing command passes", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, ValidateCommand([]string{"echo", "test"}))
	})

	t.Run("missing command fails", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, ValidateCommand([]string{"this_command_does_not_exist_12345"}))
	})

	t.Run("dangerous command flagged", func(t *testing.T) {
		t.Parallel()
		err := ValidateCommand([]string{"rm", "-rf", "/tmp/x"})
		if err != nil {
			assert.Contains(t, err.Error(), "dangerous")
		}
	})
}
